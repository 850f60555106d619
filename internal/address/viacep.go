package address

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/buscacep/internal/telemetry"
)

const (
	// DefaultBaseURL is the public ViaCEP endpoint.
	DefaultBaseURL = "https://viacep.com.br/ws"

	// DefaultTimeout bounds a single registry round trip.
	DefaultTimeout = 10 * time.Second

	// maxResponseBytes caps how much of a registry response is read.
	maxResponseBytes = 64 << 10
)

// ViaCEPConfig configures the ViaCEP client.
type ViaCEPConfig struct {
	// BaseURL is the registry root; the key is appended as /{key}/json/.
	BaseURL string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport. Its own Timeout is left untouched;
	// the per-request deadline comes from Timeout.
	HTTPClient *http.Client

	// Metrics records registry latency per outcome. Optional.
	Metrics *telemetry.LookupMetrics
}

// ViaCEPClient implements Lookuper against the ViaCEP JSON API.
type ViaCEPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	metrics *telemetry.LookupMetrics
}

// NewViaCEPClient creates a new ViaCEP registry client.
func NewViaCEPClient(cfg ViaCEPConfig) *ViaCEPClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &ViaCEPClient{
		baseURL: baseURL,
		timeout: timeout,
		http:    client,
		metrics: cfg.Metrics,
	}
}

// viacepResponse is the registry payload. Unknown fields are ignored.
type viacepResponse struct {
	Address
	Erro errFlag `json:"erro"`
}

// errFlag accepts the registry's "erro" marker, which has been sent both as
// a JSON boolean and as the string "true".
type errFlag bool

func (f *errFlag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", `"true"`:
		*f = true
	case "false", `"false"`, "null", `""`:
		*f = false
	default:
		return fmt.Errorf("unexpected erro value %s", b)
	}
	return nil
}

// Lookup resolves key against the registry.
// key must already be digit-only; see ParseCode.
func (c *ViaCEPClient) Lookup(ctx context.Context, key string) (*Address, error) {
	start := time.Now()
	addr, err := c.lookup(ctx, key)
	c.metrics.ObserveRegistryCall(Outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (c *ViaCEPClient) lookup(ctx context.Context, key string) (*Address, error) {
	const op = "viacep.lookup"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/json/", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, transportError(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(op, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, transportError(op, fmt.Errorf("registry returned status %d", resp.StatusCode))
	}

	var result viacepResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, transportError(op, fmt.Errorf("failed to parse response: %w", err))
	}

	if result.Erro {
		return nil, notFoundError(op, key)
	}

	addr := result.Address
	return &addr, nil
}

// Outcome maps a lookup error to its metrics label.
func Outcome(err error) string {
	if err == nil {
		return telemetry.OutcomeFound
	}
	switch KindOf(err) {
	case KindNotFound:
		return telemetry.OutcomeNotFound
	case KindValidation:
		return telemetry.OutcomeInvalid
	default:
		return telemetry.OutcomeTransport
	}
}
