package repair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
	"github.com/YoshitsuguKoike/evolve/internal/buildinfo"
	"github.com/YoshitsuguKoike/evolve/internal/domain/model/script"
)

// DefaultAPIURL is the hosted repair endpoint
const DefaultAPIURL = "https://aixcel.us/api/v1/evolve"

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 8 << 20

// HTTPRepairGateway implements RepairGateway over a JSON POST
type HTTPRepairGateway struct {
	apiURL     string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

// Option customizes an HTTPRepairGateway
type Option func(*HTTPRepairGateway)

// WithAPIKey sends the key as a bearer token
func WithAPIKey(key string) Option {
	return func(g *HTTPRepairGateway) { g.apiKey = key }
}

// WithTimeout bounds each round-trip. Zero leaves it unbounded.
func WithTimeout(d time.Duration) Option {
	return func(g *HTTPRepairGateway) { g.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying client
func WithHTTPClient(c *http.Client) Option {
	return func(g *HTTPRepairGateway) {
		if c != nil {
			g.httpClient = c
		}
	}
}

// NewHTTPRepairGateway creates a gateway for apiURL, or DefaultAPIURL when empty
func NewHTTPRepairGateway(apiURL string, opts ...Option) *HTTPRepairGateway {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	g := &HTTPRepairGateway{
		apiURL:     apiURL,
		userAgent:  buildinfo.UserAgent(),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// URL returns the endpoint the gateway posts to
func (g *HTTPRepairGateway) URL() string {
	return g.apiURL
}

// Repair posts the request. Any transport failure or status other than
// 200 is reported as script.ErrRepairUnavailable.
func (g *HTTPRepairGateway) Repair(ctx context.Context, req output.RepairRequest) (*output.RepairResponse, error) {
	start := time.Now()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", script.ErrRepairUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", g.userAgent)
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", script.ErrRepairUnavailable, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", script.ErrRepairUnavailable, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", script.ErrRepairUnavailable, httpResp.StatusCode, snippet(raw))
	}

	return &output.RepairResponse{
		Body:       responseText(httpResp.Header.Get("Content-Type"), raw),
		StatusCode: httpResp.StatusCode,
		Duration:   time.Since(start),
	}, nil
}

// responseText decodes a JSON string body; anything else is used as is
func responseText(contentType string, raw []byte) string {
	media, _, err := mime.ParseMediaType(contentType)
	if err != nil || media != "application/json" {
		return string(raw)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return string(raw)
	}
	return text
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
