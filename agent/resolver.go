// Package agent holds the Gemini-backed collaborators: the batched
// identifier resolver used as the last resolution tier, and the read-only
// portfolio advisor.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tracker "github.com/rcamarinha/ai-investment-tracker"
	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// Resolver answers one batched resolution request for identifiers that no
// market data provider could resolve.
type Resolver struct {
	ModelName string
	client    *genai.Client
}

// NewResolver creates a resolver on an initialized Gemini client. A nil
// client disables the tier.
func NewResolver(client *genai.Client) *Resolver {
	return &Resolver{ModelName: DefaultModel, client: client}
}

// Configured reports whether the AI tier can be used at all.
func (r *Resolver) Configured() bool { return r != nil && r.client != nil }

// resolutionSchema constrains the model to the structured shape the
// pipeline expects, one item per input identifier.
var resolutionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"input":     {Type: genai.TypeString, Description: "The identifier exactly as given."},
			"ticker":    {Type: genai.TypeString, Description: "The primary exchange-tradable ticker, or empty if unknown.", Nullable: genai.Ptr(true)},
			"name":      {Type: genai.TypeString},
			"type":      {Type: genai.TypeString, Description: "Stock, ETF, Crypto, REIT, Bond, Commodity, Cash or Other."},
			"exchange":  {Type: genai.TypeString},
			"confident": {Type: genai.TypeBoolean},
			"alternatives": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"ticker":   {Type: genai.TypeString},
						"name":     {Type: genai.TypeString},
						"type":     {Type: genai.TypeString},
						"exchange": {Type: genai.TypeString},
					},
					Required: []string{"ticker"},
				},
			},
		},
		Required: []string{"input"},
	},
}

const resolutionInstruction = `You resolve security identifiers (mostly ISINs) to exchange-tradable ticker symbols.
For each input return the primary listing's ticker and any alternate exchange listings as alternatives.
A ticker is a short exchange symbol like AAPL or MC.PA. Never return the ISIN itself as a ticker;
if you do not know the ticker, return an empty ticker and set confident to false.`

type jresolution struct {
	Input        string `json:"input"`
	Ticker       string `json:"ticker"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Exchange     string `json:"exchange"`
	Confident    bool   `json:"confident"`
	Alternatives []struct {
		Ticker   string `json:"ticker"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		Exchange string `json:"exchange"`
	} `json:"alternatives"`
}

// ResolveBatch sends all identifiers in one request, whatever their count,
// and maps the structured response back to resolution candidates.
func (r *Resolver) ResolveBatch(ctx context.Context, identifiers []string) (map[string][]tracker.ResolutionCandidate, error) {
	if !r.Configured() {
		return nil, fmt.Errorf("AI resolver is not configured")
	}

	prompt := "Resolve the following identifiers:\n" + strings.Join(identifiers, "\n")
	resp, err := r.client.Models.GenerateContent(ctx, r.ModelName,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: resolutionInstruction}}},
			ResponseMIMEType:  "application/json",
			ResponseSchema:    resolutionSchema,
		})
	if err != nil {
		return nil, fmt.Errorf("resolution request failed: %w", err)
	}

	var items []jresolution
	if err := json.Unmarshal([]byte(resp.Text()), &items); err != nil {
		return nil, fmt.Errorf("cannot parse resolution response: %w", err)
	}

	byInput := make(map[string][]tracker.ResolutionCandidate, len(items))
	for _, item := range items {
		input := strings.ToUpper(strings.TrimSpace(item.Input))
		var candidates []tracker.ResolutionCandidate
		if item.Ticker != "" {
			candidates = append(candidates, tracker.ResolutionCandidate{
				Ticker:    item.Ticker,
				Name:      item.Name,
				AssetType: tracker.NormalizeAssetType(item.Type),
				Exchange:  item.Exchange,
				Confident: item.Confident,
			})
		}
		for _, alt := range item.Alternatives {
			if alt.Ticker == "" {
				continue
			}
			candidates = append(candidates, tracker.ResolutionCandidate{
				Ticker:    alt.Ticker,
				Name:      alt.Name,
				AssetType: tracker.NormalizeAssetType(alt.Type),
				Exchange:  alt.Exchange,
			})
		}
		byInput[input] = candidates
	}
	return byInput, nil
}
