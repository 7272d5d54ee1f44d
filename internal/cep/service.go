package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vendaria/vendaria/internal/apperror"
	"github.com/vendaria/vendaria/internal/config"
)

// cepPattern accepts 8 digits, optionally hyphenated as 12345-678.
var cepPattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

// Service resolves CEP codes against ViaCEP with a Redis read-through cache.
type Service struct {
	baseURL  string
	client   *http.Client
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewService creates a CEP lookup service. The Redis client may be nil, in
// which case every lookup goes upstream.
func NewService(cfg config.CEPConfig, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
	}
}

// Lookup resolves a CEP to an address. Input is normalized to bare digits;
// cache hits skip the upstream call entirely.
func (s *Service) Lookup(ctx context.Context, code string) (Address, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(code), "-", "")
	if !cepPattern.MatchString(strings.TrimSpace(code)) || len(normalized) != 8 {
		return Address{}, apperror.NewValidation("invalid CEP format")
	}

	if addr, ok := s.fromCache(ctx, normalized); ok {
		return addr, nil
	}

	addr, err := s.fetch(ctx, normalized)
	if err != nil {
		return Address{}, err
	}

	s.store(ctx, normalized, addr)
	return addr, nil
}

func (s *Service) fetch(ctx context.Context, code string) (Address, error) {
	url := fmt.Sprintf("%s/%s/json/", s.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Address{}, apperror.NewInternal(err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Address{}, apperror.NewInternal(fmt.Errorf("reaching CEP service: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return Address{}, apperror.NewValidation("invalid CEP format")
	}
	if resp.StatusCode != http.StatusOK {
		return Address{}, apperror.NewInternal(
			errors.New("CEP service returned status " + resp.Status))
	}

	var upstream viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil {
		return Address{}, apperror.NewInternal(fmt.Errorf("decoding CEP response: %w", err))
	}
	if len(upstream.Erro) > 0 {
		return Address{}, apperror.NewNotFound("CEP not found")
	}

	return upstream.toAddress(), nil
}

func (s *Service) fromCache(ctx context.Context, code string) (Address, bool) {
	if s.cache == nil {
		return Address{}, false
	}

	raw, err := s.cache.Get(ctx, cacheKey(code)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cep cache read failed", slog.String("error", err.Error()))
		}
		return Address{}, false
	}

	var addr Address
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		return Address{}, false
	}
	return addr, true
}

func (s *Service) store(ctx context.Context, code string, addr Address) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(addr)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(code), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("cep cache write failed", slog.String("error", err.Error()))
	}
}

func cacheKey(code string) string {
	return "cep:" + code
}
