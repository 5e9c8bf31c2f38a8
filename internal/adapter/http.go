package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"topowatch/internal/codec"
	"topowatch/internal/domain"
)

// HTTPSource fetches the node list from a discovery server
type HTTPSource struct {
	url     string
	client  *http.Client
	timeout time.Duration
	codec   codec.Importer
}

// NewHTTPSource creates a source for the given node list URL, for
// example "http://discovery:8000/nodes"
func NewHTTPSource(rawURL string, timeout time.Duration) (*HTTPSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid source url %q: scheme must be http or https", rawURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		url:     u.String(),
		client:  &http.Client{},
		timeout: timeout,
		codec:   codec.NewJSONCodec(),
	}, nil
}

// Name returns the source identifier
func (s *HTTPSource) Name() string {
	return "http"
}

// Fetch requests the node list, bypassing intermediate caches
func (s *HTTPSource) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("invalid source url: %w", err)
	}
	q := u.Query()
	q.Set("nocache", strconv.FormatInt(time.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch %s: unexpected status %s", s.url, resp.Status)
	}

	snap, err := s.codec.Parse(s.Name(), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	snap.FetchedAt = time.Now()
	return snap, nil
}
