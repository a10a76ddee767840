package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	tracker "github.com/rcamarinha/ai-investment-tracker"
	"google.golang.org/genai"
)

const advisorInstruction = `You are a portfolio advisor for a personal securities tracker.
You are given a read-only snapshot of the user's holdings below. Answer questions about
allocation, concentration, performance and general investing concepts. You cannot place
orders or modify the portfolio, and you never give personalized tax or legal advice.

`

// Advisor is a chat session over a read-only snapshot of the portfolio.
// It can discuss the holdings but has no way to modify them.
type Advisor struct {
	ModelName string
	w         io.Writer
	r         *bufio.Reader
	chat      *genai.Chat
	context   string
}

// NewAdvisor creates an advisor over the given holdings. Output goes to w,
// user input is read from r.
func NewAdvisor(w io.Writer, r io.Reader, holdings []tracker.HoldingSummary, realized tracker.Money) *Advisor {
	return &Advisor{
		ModelName: DefaultModel,
		w:         w,
		r:         bufio.NewReader(r),
		context:   portfolioContext(holdings, realized),
	}
}

// portfolioContext renders the holdings as the plain text block handed to
// the model as system instruction.
func portfolioContext(holdings []tracker.HoldingSummary, realized tracker.Money) string {
	var sb strings.Builder
	sb.WriteString("Current holdings:\n")
	for _, h := range holdings {
		fmt.Fprintf(&sb, "- %s (%s, %s on %s): %s shares, invested %s",
			h.Symbol, h.Name, h.AssetType, h.Platform, h.Shares, h.Invested)
		if h.HasPrice {
			fmt.Fprintf(&sb, ", market value %s, unrealized %s", h.MarketValue, h.UnrealizedPnL.SignedString())
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Total realized gains to date: %s\n", realized.SignedString())
	return sb.String()
}

// Start creates the underlying Gemini chat session.
func (a *Advisor) Start(ctx context.Context, client *genai.Client) error {
	chat, err := client.Chats.Create(ctx, a.ModelName, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: advisorInstruction + a.context}}},
	}, nil)
	if err != nil {
		return fmt.Errorf("cannot start advisor session: %w", err)
	}
	a.chat = chat
	return nil
}

// Ask sends one question and returns the model's answer.
func (a *Advisor) Ask(ctx context.Context, question string) (string, error) {
	resp, err := a.chat.Send(ctx, &genai.Part{Text: question})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

const advisorPrompt = "advise> "

// Run starts the interactive REPL session. Extra prompts are consumed before
// reading from the user, which makes scripted sessions possible. The render
// function formats each answer before printing; pass nil for raw text.
func (a *Advisor) Run(ctx context.Context, client *genai.Client, render func(string) string, prompts ...string) error {
	if a.chat == nil {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}
	if render == nil {
		render = func(s string) string { return s }
	}

	fmt.Fprintln(a.w, "Welcome to the portfolio advisor. Type 'bye' to exit.")

	for {
		fmt.Fprint(a.w, advisorPrompt)
		var input string

		if len(prompts) > 0 {
			input, prompts = prompts[0], prompts[1:]
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			fmt.Fprintln(a.w, input)
		} else {
			var err error
			input, err = a.r.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
		}

		if strings.TrimSpace(input) == "bye" {
			return nil
		}

		answer, err := a.Ask(ctx, input)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.w, render(answer))
	}
}
