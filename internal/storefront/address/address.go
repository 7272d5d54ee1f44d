// Package address manages the shopper's address book: at most three saved
// addresses, full-field validation, and CEP autofill through the server's
// postal lookup proxy.
package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vendaria/vendaria/internal/storefront/localstore"
)

// storeKey is the localstore key holding the address book JSON array.
const storeKey = "addresses"

// MaxAddresses is the address book capacity.
const MaxAddresses = 3

var (
	// ErrBookFull is returned when adding a fourth address.
	ErrBookFull = errors.New("a maximum of 3 addresses is allowed")

	// ErrNotFound is returned for updates or deletes of an unknown address.
	ErrNotFound = errors.New("address not found")
)

// Type labels an address slot.
type Type string

const (
	TypeHome  Type = "home"
	TypeWork  Type = "work"
	TypeOther Type = "other"
)

// Address is one saved delivery address.
type Address struct {
	ID           int64  `json:"id"`
	Type         Type   `json:"type"`
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// validate checks the required fields. Complement is the only optional one.
func (a Address) validate() error {
	switch a.Type {
	case TypeHome, TypeWork, TypeOther:
	default:
		return fmt.Errorf("invalid address type %q", a.Type)
	}

	required := map[string]string{
		"cep":          a.CEP,
		"street":       a.Street,
		"number":       a.Number,
		"neighborhood": a.Neighborhood,
		"city":         a.City,
		"state":        a.State,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	return nil
}

// Autofill is what a CEP lookup can pre-populate on the address form.
type Autofill struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Neighborhood string `json:"district"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Resolver resolves a CEP code into autofill data. Implemented over the
// server's /cep proxy; faked in tests.
type Resolver interface {
	Resolve(ctx context.Context, code string) (Autofill, error)
}

// Book is the persisted address book.
type Book struct {
	store    localstore.Store
	resolver Resolver
	nextID   func() int64
}

// NewBook creates an address book over the given store. resolver may be nil
// when autofill is not needed.
func NewBook(store localstore.Store, resolver Resolver) *Book {
	var counter int64
	return &Book{
		store:    store,
		resolver: resolver,
		nextID: func() int64 {
			counter++
			return counter
		},
	}
}

// List returns all saved addresses.
func (b *Book) List(ctx context.Context) ([]Address, error) {
	raw, ok, err := b.store.Get(ctx, storeKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var addresses []Address
	if err := json.Unmarshal([]byte(raw), &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// Add validates and saves a new address, enforcing the capacity limit.
func (b *Book) Add(ctx context.Context, addr Address) (Address, error) {
	if err := addr.validate(); err != nil {
		return Address{}, err
	}

	addresses, err := b.List(ctx)
	if err != nil {
		return Address{}, err
	}
	if len(addresses) >= MaxAddresses {
		return Address{}, ErrBookFull
	}

	addr.ID = b.allocateID(addresses)
	addresses = append(addresses, addr)

	if err := b.save(ctx, addresses); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// Update replaces an existing address. The capacity limit does not apply to
// edits.
func (b *Book) Update(ctx context.Context, addr Address) error {
	if err := addr.validate(); err != nil {
		return err
	}

	addresses, err := b.List(ctx)
	if err != nil {
		return err
	}
	for i := range addresses {
		if addresses[i].ID == addr.ID {
			addresses[i] = addr
			return b.save(ctx, addresses)
		}
	}
	return ErrNotFound
}

// Remove deletes an address by id.
func (b *Book) Remove(ctx context.Context, id int64) error {
	addresses, err := b.List(ctx)
	if err != nil {
		return err
	}

	kept := addresses[:0]
	found := false
	for _, addr := range addresses {
		if addr.ID == id {
			found = true
			continue
		}
		kept = append(kept, addr)
	}
	if !found {
		return ErrNotFound
	}
	return b.save(ctx, kept)
}

// AutofillFromCEP resolves a CEP into pre-populated form fields.
func (b *Book) AutofillFromCEP(ctx context.Context, code string) (Autofill, error) {
	if b.resolver == nil {
		return Autofill{}, errors.New("no CEP resolver configured")
	}
	return b.resolver.Resolve(ctx, code)
}

// allocateID picks an id one past the highest in use, so ids stay unique
// even after deletions within a session.
func (b *Book) allocateID(addresses []Address) int64 {
	id := b.nextID()
	for _, addr := range addresses {
		if addr.ID >= id {
			id = addr.ID + 1
		}
	}
	return id
}

func (b *Book) save(ctx context.Context, addresses []Address) error {
	raw, err := json.Marshal(addresses)
	if err != nil {
		return err
	}
	return b.store.Set(ctx, storeKey, string(raw))
}
