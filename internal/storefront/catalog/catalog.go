// Package catalog is a thin client for the remote product catalog plus the
// pure search/filter/sort operations the storefront applies to a fetched
// product list. The catalog is fixed and external; nothing is cached.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// DefaultLimit is how many products one listing fetch asks for.
const DefaultLimit = 20

// Product is one catalog entry.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	Thumbnail   string  `json:"thumbnail"`
}

// Client fetches products from the catalog API.
type Client struct {
	baseURL string
	client  *http.Client
	limit   int
}

// NewClient creates a catalog client against baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		limit:   DefaultLimit,
	}
}

// listResponse is the catalog API's envelope.
type listResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// List fetches the product listing.
func (c *Client) List(ctx context.Context) ([]Product, error) {
	url := fmt.Sprintf("%s/products?limit=%d", c.baseURL, c.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %s", resp.Status)
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding catalog response: %w", err)
	}
	return body.Products, nil
}

// Search returns the products whose title, description, or category contains
// the query, case-insensitively. An empty query returns everything.
func Search(products []Product, query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products
	}

	var matches []Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), query) ||
			strings.Contains(strings.ToLower(p.Description), query) ||
			strings.Contains(strings.ToLower(p.Category), query) {
			matches = append(matches, p)
		}
	}
	return matches
}

// FilterByCategory returns the products in the given category. An empty
// category returns everything.
func FilterByCategory(products []Product, category string) []Product {
	if category == "" {
		return products
	}

	var matches []Product
	for _, p := range products {
		if p.Category == category {
			matches = append(matches, p)
		}
	}
	return matches
}

// Categories returns the distinct categories present, in first-seen order.
func Categories(products []Product) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories
}

// SortKey selects a product ordering.
type SortKey string

const (
	SortByTitle  SortKey = "title"  // alphabetical
	SortByPrice  SortKey = "price"  // cheapest first
	SortByRating SortKey = "rating" // best rated first
)

// Sort returns a sorted copy; the input slice is left alone. An unknown key
// returns the products in their original order.
func Sort(products []Product, key SortKey) []Product {
	sorted := make([]Product, len(products))
	copy(sorted, products)

	switch key {
	case SortByTitle:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Title < sorted[j].Title
		})
	case SortByPrice:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Price < sorted[j].Price
		})
	case SortByRating:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Rating > sorted[j].Rating
		})
	}
	return sorted
}
