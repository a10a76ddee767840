// Package finnhub accesses the Finnhub API: live quotes and the dedicated
// ISIN search endpoint.
package finnhub

import (
	"fmt"
	"net/http"
	"net/url"

	tracker "github.com/rcamarinha/ai-investment-tracker"
)

// SearchLimit caps the number of candidates returned by an ISIN search.
const SearchLimit = 5

// Client calls the Finnhub API. Without an API key every call returns
// tracker.ErrNoAPIKey.
type Client struct {
	APIKey string
	live   *http.Client
	cached *http.Client
}

// New creates a client for the given API key.
func New(apiKey string) *Client {
	return &Client{
		APIKey: apiKey,
		live:   new(http.Client),
		cached: tracker.DailyCachingClient(),
	}
}

// Name identifies this provider in quote diagnostics.
func (c *Client) Name() string { return "finnhub" }

// Configured reports whether an API key is available.
func (c *Client) Configured() bool { return c != nil && c.APIKey != "" }

// Quote returns the latest price for a symbol. Finnhub answers unknown
// symbols with a zero current price and bad requests with an explicit
// "error" field in the payload; both are reported as tracker.ErrNotFound so
// the caller falls through to the next tier.
func (c *Client) Quote(symbol string) (float64, error) {
	if !c.Configured() {
		return 0, tracker.ErrNoAPIKey
	}
	addr := fmt.Sprintf("https://finnhub.io/api/v1/quote?symbol=%s&token=%s",
		url.QueryEscape(symbol), url.QueryEscape(c.APIKey))

	// that's the payload
	var content struct {
		Current float64 `json:"c"`
		Error   string  `json:"error"`
	}
	if err := tracker.JSONGet(c.live, addr, &content); err != nil {
		return 0, err
	}
	if content.Error != "" {
		return 0, fmt.Errorf("%w: %s", tracker.ErrNotFound, content.Error)
	}
	if content.Current <= 0 {
		return 0, tracker.ErrNotFound
	}
	return content.Current, nil
}

// SearchISIN queries the symbol search endpoint with an ISIN and returns up
// to SearchLimit candidates.
func (c *Client) SearchISIN(isin string) ([]tracker.ResolutionCandidate, error) {
	if !c.Configured() {
		return nil, tracker.ErrNoAPIKey
	}
	addr := fmt.Sprintf("https://finnhub.io/api/v1/search?q=%s&token=%s",
		url.QueryEscape(isin), url.QueryEscape(c.APIKey))

	var content struct {
		Count  int `json:"count"`
		Result []struct {
			Symbol        string `json:"symbol"`
			DisplaySymbol string `json:"displaySymbol"`
			Description   string `json:"description"`
			Type          string `json:"type"`
		} `json:"result"`
	}
	if err := tracker.JSONGet(c.cached, addr, &content); err != nil {
		return nil, err
	}
	var candidates []tracker.ResolutionCandidate
	for _, r := range content.Result {
		if r.Symbol == "" {
			continue
		}
		candidates = append(candidates, tracker.ResolutionCandidate{
			Ticker:    r.Symbol,
			Name:      r.Description,
			AssetType: tracker.NormalizeAssetType(r.Type),
			Confident: content.Count == 1,
		})
		if len(candidates) == SearchLimit {
			break
		}
	}
	return candidates, nil
}
