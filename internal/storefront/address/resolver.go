package address

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPResolver resolves CEPs through the Vendaria server's /cep proxy, which
// caches upstream answers so the address form stays snappy.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResolver creates a resolver against the server at baseURL.
func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context, code string) (Autofill, error) {
	url := fmt.Sprintf("%s/cep/%s", r.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Autofill{}, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Autofill{}, fmt.Errorf("looking up CEP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var serverErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&serverErr)
		if serverErr.Message == "" {
			serverErr.Message = resp.Status
		}
		return Autofill{}, fmt.Errorf("looking up CEP: %s", serverErr.Message)
	}

	var fill Autofill
	if err := json.NewDecoder(resp.Body).Decode(&fill); err != nil {
		return Autofill{}, fmt.Errorf("decoding CEP response: %w", err)
	}
	return fill, nil
}
