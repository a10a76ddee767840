// Package alphavantage accesses the Alpha Vantage GLOBAL_QUOTE endpoint.
//
// The payload buries the price under awkward keys ("Global Quote",
// "05. price"), so values are plucked out with jsonpath instead of struct
// tags.
package alphavantage

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
	tracker "github.com/rcamarinha/ai-investment-tracker"
)

// Client calls the Alpha Vantage API. Without an API key every call returns
// tracker.ErrNoAPIKey.
type Client struct {
	APIKey string
	live   *http.Client
}

// New creates a client for the given API key.
func New(apiKey string) *Client {
	return &Client{APIKey: apiKey, live: new(http.Client)}
}

// Name identifies this provider in quote diagnostics.
func (c *Client) Name() string { return "alphavantage" }

// Configured reports whether an API key is available.
func (c *Client) Configured() bool { return c != nil && c.APIKey != "" }

// Quote returns the latest price for a symbol. A "Note" or "Information"
// field in the payload is Alpha Vantage's rate-limit signal and is reported
// as tracker.ErrRateLimited; an empty quote object means the symbol is
// unknown.
func (c *Client) Quote(symbol string) (float64, error) {
	if !c.Configured() {
		return 0, tracker.ErrNoAPIKey
	}
	addr := fmt.Sprintf("https://www.alphavantage.co/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		url.QueryEscape(symbol), url.QueryEscape(c.APIKey))

	var jobj any
	if err := tracker.JSONGet(c.live, addr, &jobj); err != nil {
		return 0, err
	}

	for _, path := range []string{`$.Note`, `$.Information`} {
		if _, err := jsonpath.Get(path, jobj); err == nil {
			return 0, tracker.ErrRateLimited
		}
	}

	jval, err := jsonpath.Get(`$["Global Quote"]["05. price"]`, jobj)
	if err != nil {
		return 0, tracker.ErrNotFound
	}
	// the price comes back as a string most of the time, but not always.
	var price float64
	switch v := jval.(type) {
	case string:
		price, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot read price for %q: %w", symbol, err)
		}
	case float64:
		price = v
	default:
		return 0, fmt.Errorf("cannot read price for %q: unexpected type %T", symbol, jval)
	}
	if price <= 0 {
		return 0, tracker.ErrNotFound
	}
	return price, nil
}
