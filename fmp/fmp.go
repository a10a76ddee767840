// Package fmp accesses the Financial Modeling Prep API: live quotes,
// company profiles looked up by ISIN, and free-text symbol search.
package fmp

import (
	"fmt"
	"net/http"
	"net/url"

	tracker "github.com/rcamarinha/ai-investment-tracker"
)

// SearchLimit caps the number of candidates collected from a free-text search.
const SearchLimit = 5

// Client calls the Financial Modeling Prep API. The zero APIKey disables the
// client entirely: every call returns tracker.ErrNoAPIKey.
type Client struct {
	APIKey string
	// live is used for quote calls, cached for profile/search lookups whose
	// answers do not change within a day.
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
func (c *Client) Name() string { return "fmp" }

// Configured reports whether an API key is available.
func (c *Client) Configured() bool { return c != nil && c.APIKey != "" }

// Quote returns the latest price for a symbol. A zero or missing price means
// the symbol is unknown to FMP and is reported as tracker.ErrNotFound, not
// as a hard error.
func (c *Client) Quote(symbol string) (float64, error) {
	if !c.Configured() {
		return 0, tracker.ErrNoAPIKey
	}
	addr := fmt.Sprintf("https://financialmodelingprep.com/api/v3/quote-short/%s?apikey=%s",
		url.PathEscape(symbol), url.QueryEscape(c.APIKey))

	// that's the payload
	content := make([]struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}, 0)
	if err := tracker.JSONGet(c.live, addr, &content); err != nil {
		return 0, err
	}
	if len(content) == 0 || content[0].Price <= 0 {
		return 0, tracker.ErrNotFound
	}
	return content[0].Price, nil
}

// profileInfo matches one record of the profile and search payloads.
type profileInfo struct {
	Symbol        string `json:"symbol"`
	CompanyName   string `json:"companyName"`
	Name          string `json:"name"` // search payload uses "name"
	ExchangeShort string `json:"exchangeShortName"`
	IsEtf         bool   `json:"isEtf"`
}

func (p profileInfo) candidate() tracker.ResolutionCandidate {
	name := p.CompanyName
	if name == "" {
		name = p.Name
	}
	assetType := tracker.Stock
	if p.IsEtf {
		assetType = tracker.ETF
	}
	return tracker.ResolutionCandidate{
		Ticker:    p.Symbol,
		Name:      name,
		AssetType: assetType,
		Exchange:  p.ExchangeShort,
		Confident: true,
	}
}

// ProfileByISIN queries the profile endpoint by ISIN and returns the direct
// match, if any.
func (c *Client) ProfileByISIN(isin string) ([]tracker.ResolutionCandidate, error) {
	if !c.Configured() {
		return nil, tracker.ErrNoAPIKey
	}
	addr := fmt.Sprintf("https://financialmodelingprep.com/api/v4/search/isin?isin=%s&apikey=%s",
		url.QueryEscape(isin), url.QueryEscape(c.APIKey))

	content := make([]profileInfo, 0)
	if err := tracker.JSONGet(c.cached, addr, &content); err != nil {
		return nil, err
	}
	candidates := make([]tracker.ResolutionCandidate, 0, len(content))
	for _, info := range content {
		if info.Symbol == "" {
			continue
		}
		candidates = append(candidates, info.candidate())
	}
	return candidates, nil
}

// Search collects up to SearchLimit additional candidates from the free-text
// search endpoint.
func (c *Client) Search(query string) ([]tracker.ResolutionCandidate, error) {
	if !c.Configured() {
		return nil, tracker.ErrNoAPIKey
	}
	addr := fmt.Sprintf("https://financialmodelingprep.com/api/v3/search?query=%s&limit=%d&apikey=%s",
		url.QueryEscape(query), SearchLimit, url.QueryEscape(c.APIKey))

	content := make([]profileInfo, 0)
	if err := tracker.JSONGet(c.cached, addr, &content); err != nil {
		return nil, err
	}
	candidates := make([]tracker.ResolutionCandidate, 0, len(content))
	for _, info := range content {
		if info.Symbol == "" {
			continue
		}
		cand := info.candidate()
		cand.Confident = false // free-text matches need human confirmation
		candidates = append(candidates, cand)
	}
	return candidates, nil
}
