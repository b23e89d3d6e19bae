package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/bom-weather/internal/weather"
)

// DefaultBoMBaseURL is the root of the Bureau of Meteorology observation feeds.
const DefaultBoMBaseURL = "http://www.bom.gov.au/fwo"

// BoMProvider implements weather.Fetcher for the www.bom.gov.au JSON feeds.
type BoMProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewBoMProvider creates a provider. An empty baseURL selects DefaultBoMBaseURL.
func NewBoMProvider(client *http.Client, baseURL string) *BoMProvider {
	if baseURL == "" {
		baseURL = DefaultBoMBaseURL
	}

	settings := gobreaker.Settings{
		Name:         "bom",
		MaxRequests:  1,
		Interval:     1 * time.Minute,
		Timeout:      30 * time.Second,
		IsSuccessful: countsAsSuccess,
	}

	return &BoMProvider{
		name:    "bom",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
		},
		circuit: gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *BoMProvider) Name() string {
	return p.name
}

// URL returns the feed address for code: <base>/<product>/<code>.json.
func (p *BoMProvider) URL(code weather.StationCode) (string, error) {
	product, _, err := code.Parts()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s.json", p.baseURL, product, code), nil
}

// Fetch issues exactly one request for the station and decodes the JSON document.
func (p *BoMProvider) Fetch(ctx context.Context, code weather.StationCode) (weather.StationRecord, error) {
	u, err := p.URL(code)
	if err != nil {
		return nil, err
	}

	body, err := doRequest(ctx, p.httpCfg.Client, p.circuit, u)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var record weather.StationRecord
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", weather.ErrDecode, code, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s: response is not a JSON object", weather.ErrDecode, code)
	}

	return record, nil
}
