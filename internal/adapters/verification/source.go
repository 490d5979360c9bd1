// Package verification fetches login codes and 2FA passwords from an
// operator-supplied HTTP endpoint.
package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/ports"
)

const (
	DefaultGrace        = 3 * time.Second
	DefaultFetchTimeout = 30 * time.Second
	maxBodyBytes        = 1 << 20
)

// HTTPSource performs an unauthenticated GET against the verification URL.
// Code fetches wait Grace first so the code has time to reach the source.
type HTTPSource struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Grace      time.Duration
	Clock      ports.Clock
}

var _ ports.VerificationSource = HTTPSource{}

func (s HTTPSource) FetchCode(ctx context.Context, url string) (string, error) {
	if err := s.clock().Sleep(ctx, s.Grace); err != nil {
		return "", err
	}

	body, err := s.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	return ExtractCode(body)
}

func (s HTTPSource) FetchPassword(ctx context.Context, url string) (string, error) {
	body, err := s.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	return ExtractPassword(body)
}

func (s HTTPSource) fetch(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", errors.New("verification url is empty")
	}

	requestCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create verification request: %w", err)
	}

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch verification url: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read verification response: %w", err)
	}

	return string(data), nil
}

func (s HTTPSource) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}

func (s HTTPSource) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultFetchTimeout
	}
	return s.Timeout
}

func (s HTTPSource) clock() ports.Clock {
	if s.Clock == nil {
		return ports.SystemClock{}
	}
	return s.Clock
}
