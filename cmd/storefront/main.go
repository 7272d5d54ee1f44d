// Package main is an interactive storefront client for the Vendaria API: a
// line-based shell over the same session, cart, address, and checkout
// machinery a graphical front end would use. State persists in a local
// SQLite store, so quitting and restarting resumes the session (until the
// rolling window expires it).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vendaria/vendaria/internal/storefront"
	"github.com/vendaria/vendaria/internal/storefront/address"
	"github.com/vendaria/vendaria/internal/storefront/api"
	"github.com/vendaria/vendaria/internal/storefront/cart"
	"github.com/vendaria/vendaria/internal/storefront/catalog"
	"github.com/vendaria/vendaria/internal/storefront/checkout"
	"github.com/vendaria/vendaria/internal/storefront/localstore"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Vendaria API base URL")
	catalogURL := flag.String("catalog", "https://dummyjson.com", "product catalog base URL")
	dbPath := flag.String("db", "storefront.db", "local store database path")
	window := flag.Duration("session-window", 30*time.Minute, "rolling session window")
	paymentDelay := flag.Duration("payment-delay", 2*time.Second, "simulated payment latency")
	flag.Parse()

	ctx := context.Background()

	store, err := localstore.OpenSQLite(ctx, *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "opening local store:", err)
		os.Exit(1)
	}
	defer store.Close()

	client, err := storefront.New(ctx, store, api.NewHTTPClient(*serverURL), storefront.Options{
		Window: *window,
		Notice: func(msg string) { fmt.Println("!", msg) },
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "restoring session:", err)
		os.Exit(1)
	}

	basket := cart.New(store, client.Session)
	shell := &shell{
		client:   client,
		cart:     basket,
		book:     address.NewBook(store, address.NewHTTPResolver(*serverURL)),
		catalog:  catalog.NewClient(*catalogURL),
		checkout: checkout.NewService(store, client.Session, basket, checkout.NewProcessor(*paymentDelay)),
	}
	shell.run(ctx)
}

type shell struct {
	client   *storefront.Client
	cart     *cart.Cart
	book     *address.Book
	catalog  *catalog.Client
	checkout *checkout.Service

	// in reads command lines and inline confirmation answers.
	in *bufio.Scanner

	// products caches the last fetched listing so "add" can reference it.
	products []catalog.Product
}

func (s *shell) run(ctx context.Context) {
	fmt.Println("vendaria storefront — type 'help' for commands")
	s.in = bufio.NewScanner(os.Stdin)

	for {
		s.prompt()
		if !s.in.Scan() {
			return
		}
		fields := strings.Fields(s.in.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		if err := s.dispatch(ctx, fields[0], fields[1:]); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func (s *shell) prompt() {
	if user, ok := s.client.CurrentUser(); ok {
		fmt.Printf("%s> ", user.Email)
		return
	}
	fmt.Print("> ")
}

// logout asks for confirmation first: logging out clears the cart, address
// book, and order history along with the session.
func (s *shell) logout(ctx context.Context) error {
	fmt.Print("log out and clear local state? [y/N] ")
	if !s.in.Scan() {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(s.in.Text())) {
	case "y", "yes":
		return s.client.Logout(ctx)
	default:
		fmt.Println("cancelled")
		return nil
	}
}

func (s *shell) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		s.help()
		return nil
	case "register":
		return s.register(ctx, args)
	case "login":
		return s.login(ctx, args)
	case "logout":
		return s.logout(ctx)
	case "me":
		return s.me(ctx)
	case "products":
		return s.listProducts(ctx, args)
	case "add":
		return s.addToCart(ctx, args)
	case "cart":
		return s.showCart(ctx)
	case "remove":
		return s.removeFromCart(ctx, args)
	case "addresses":
		return s.listAddresses(ctx)
	case "addaddr":
		return s.addAddress(ctx, args)
	case "cep":
		return s.lookupCEP(ctx, args)
	case "checkout":
		return s.placeOrder(ctx, args)
	case "orders":
		return s.listOrders(ctx)
	case "cancel":
		return s.cancelOrder(ctx, args)
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func (s *shell) help() {
	fmt.Print(`commands:
  register <name..> <email> <password>
  login <email> <password>
  logout
  me
  products [query]
  add <product-id> — add to cart
  cart
  remove <product-id>
  addresses
  addaddr <home|work|other> <cep> <number> — save an address via CEP autofill
  cep <code> — look up a postal code
  checkout <address-id> <pix|credit|debit>
  orders
  cancel <order-id> <reason..>
  quit
`)
}

func (s *shell) register(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: register <name..> <email> <password>")
	}
	name := strings.Join(args[:len(args)-2], " ")
	email, password := args[len(args)-2], args[len(args)-1]

	user, err := s.client.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Println("welcome,", user.Name)
	return nil
}

func (s *shell) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <email> <password>")
	}
	user, err := s.client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Println("welcome back,", user.Name)
	return nil
}

func (s *shell) me(ctx context.Context) error {
	user, err := s.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("#%d %s <%s> (%s)\n", user.ID, user.Name, user.Email, user.Profile)
	return nil
}

func (s *shell) listProducts(ctx context.Context, args []string) error {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		products = catalog.Search(products, strings.Join(args, " "))
	}
	s.products = products

	for _, p := range products {
		fmt.Printf("  %4d  %-40s  R$ %8.2f  %.1f★  [%s]\n", p.ID, p.Title, p.Price, p.Rating, p.Category)
	}
	return nil
}

func (s *shell) addToCart(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: add <product-id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad product id %q", args[0])
	}

	for _, p := range s.products {
		if p.ID == id {
			return s.cart.Add(ctx, cart.Item{
				ID: p.ID, Title: p.Title, Price: p.Price, Thumbnail: p.Thumbnail, Quantity: 1,
			})
		}
	}
	return fmt.Errorf("product %d not in the last listing, run 'products' first", id)
}

func (s *shell) showCart(ctx context.Context) error {
	items, err := s.cart.Items(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Printf("  %4d  %-40s  %d × R$ %.2f\n", item.ID, item.Title, item.Quantity, item.Price)
	}

	summary := cart.Summarize(items)
	fmt.Printf("  subtotal R$ %.2f + shipping R$ %.2f = R$ %.2f\n",
		summary.Subtotal, summary.Shipping, summary.Total)
	return nil
}

func (s *shell) removeFromCart(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: remove <product-id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad product id %q", args[0])
	}
	return s.cart.Remove(ctx, id)
}

func (s *shell) listAddresses(ctx context.Context) error {
	addresses, err := s.book.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range addresses {
		fmt.Printf("  %d [%s] %s, %s — %s, %s/%s (%s)\n",
			a.ID, a.Type, a.Street, a.Number, a.Neighborhood, a.City, a.State, a.CEP)
	}
	return nil
}

func (s *shell) addAddress(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: addaddr <home|work|other> <cep> <number>")
	}
	fill, err := s.book.AutofillFromCEP(ctx, args[1])
	if err != nil {
		return err
	}

	saved, err := s.book.Add(ctx, address.Address{
		Type:         address.Type(args[0]),
		CEP:          fill.CEP,
		Street:       fill.Street,
		Number:       args[2],
		Neighborhood: fill.Neighborhood,
		City:         fill.City,
		State:        fill.State,
	})
	if err != nil {
		return err
	}
	fmt.Printf("saved address %d: %s, %s — %s/%s\n",
		saved.ID, saved.Street, saved.Number, saved.City, saved.State)
	return nil
}

func (s *shell) lookupCEP(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cep <code>")
	}
	fill, err := s.book.AutofillFromCEP(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("  %s — %s, %s/%s (%s)\n", fill.Street, fill.Neighborhood, fill.City, fill.State, fill.CEP)
	return nil
}

func (s *shell) placeOrder(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: checkout <address-id> <pix|credit|debit>")
	}
	addressID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad address id %q", args[0])
	}

	addresses, err := s.book.List(ctx)
	if err != nil {
		return err
	}
	var deliverTo *address.Address
	for i := range addresses {
		if addresses[i].ID == addressID {
			deliverTo = &addresses[i]
			break
		}
	}
	if deliverTo == nil {
		return fmt.Errorf("no address with id %d", addressID)
	}

	fmt.Println("processing payment...")
	order, err := s.checkout.PlaceOrder(ctx, *deliverTo, checkout.PaymentMethod(args[1]))
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed — %s — total R$ %.2f\n", order.ID, order.Payment.Message, order.Total)
	return nil
}

func (s *shell) listOrders(ctx context.Context) error {
	orders, err := s.checkout.Orders(ctx)
	if err != nil {
		return err
	}
	for _, o := range orders {
		fmt.Printf("  %s  %s  %-16s  R$ %8.2f  (%d items)\n",
			o.ID, o.Date, o.Status, o.Total, len(o.Items))
	}
	return nil
}

func (s *shell) cancelOrder(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: cancel <order-id> <reason..>")
	}
	return s.checkout.Cancel(ctx, args[0], strings.Join(args[1:], " "))
}
