package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"billing-service/internal/core"

	"github.com/shopspring/decimal"
)

// Generator is satisfied by *Client.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Assistant turns model replies into typed billing suggestions. Suggestions are
// advisory; callers decide whether to apply them.
type Assistant struct {
	gen Generator
}

// NewAssistant wraps gen.
func NewAssistant(gen Generator) *Assistant {
	return &Assistant{gen: gen}
}

type priceReply struct {
	Price      string  `json:"price" jsonschema:"description=Unit price before tax as a plain decimal string like 125.00"`
	Reasoning  string  `json:"reasoning" jsonschema:"description=One sentence explaining the estimate"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

// PriceSuggestion is a suggested unit price for a line item.
type PriceSuggestion struct {
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	Reasoning  string          `json:"reasoning"`
	Confidence float64         `json:"confidence"`
}

// SuggestPrice estimates a market unit price for description.
func (a *Assistant) SuggestPrice(ctx context.Context, description, currency string) (*PriceSuggestion, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", core.ErrValidation)
	}
	prompt := fmt.Sprintf(`You price services and goods for small businesses.
Suggest a fair unit price, before tax, in %s for the item below.
Amounts must be exact decimal strings (e.g. "100.00").

Item: %s`, currency, description)

	var reply priceReply
	if err := a.ask(ctx, prompt, "price_suggestion", &reply); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(reply.Price))
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("%w: invalid price %q", ErrProviderFailed, reply.Price)
	}
	return &PriceSuggestion{
		Price:      price.Round(2),
		Currency:   currency,
		Reasoning:  reply.Reasoning,
		Confidence: reply.Confidence,
	}, nil
}

// DescriptionSuggestion is a client-facing wording for a line item.
type DescriptionSuggestion struct {
	Description string `json:"description" jsonschema:"description=Short line item title"`
	Details     string `json:"details" jsonschema:"description=One or two sentences describing the deliverable"`
}

// SuggestDescription rewrites a terse title into an invoice-ready description.
func (a *Assistant) SuggestDescription(ctx context.Context, title string) (*DescriptionSuggestion, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", core.ErrValidation)
	}
	prompt := fmt.Sprintf(`Write a professional invoice line item for the work below.
Keep the description under 60 characters. Do not invent prices or quantities.

Work: %s`, title)

	var reply DescriptionSuggestion
	if err := a.ask(ctx, prompt, "description_suggestion", &reply); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply.Description) == "" {
		return nil, fmt.Errorf("%w: empty description", ErrProviderFailed)
	}
	return &reply, nil
}

type discountReply struct {
	Kind      string `json:"kind" jsonschema:"enum=PERCENT,enum=AMOUNT"`
	Value     string `json:"value" jsonschema:"description=Decimal string; percent between 0 and 100 or an amount"`
	Reasoning string `json:"reasoning"`
}

// DiscountSuggestion is a proposed document discount with the totals it yields.
type DiscountSuggestion struct {
	Discount  core.Discount `json:"discount"`
	Totals    core.Totals   `json:"totals"`
	Reasoning string        `json:"reasoning"`
}

// SuggestDiscount proposes a discount for doc. The suggestion is validated and
// priced with the same calculator used for saved documents.
func (a *Assistant) SuggestDiscount(ctx context.Context, doc *core.Document) (*DiscountSuggestion, error) {
	if len(doc.Items) == 0 {
		return nil, fmt.Errorf("%w: document has no items", core.ErrValidation)
	}
	current := core.ComputeTotals(doc.Items, doc.Discount).Rounded()

	var lines strings.Builder
	for _, item := range doc.Items {
		fmt.Fprintf(&lines, "- %s: %s x %s (tax %s%%)\n", item.Description, item.Quantity, item.Price, item.TaxRate)
	}
	prompt := fmt.Sprintf(`You advise a small business on closing a %s with a client.
Suggest one discount that keeps the deal profitable.
Use PERCENT with a value between 0 and 100, or AMOUNT in %s not above the subtotal.

Subtotal: %s
Items:
%s`, doc.Type, doc.Currency, current.Subtotal.StringFixed(2), lines.String())

	var reply discountReply
	if err := a.ask(ctx, prompt, "discount_suggestion", &reply); err != nil {
		return nil, err
	}
	value, err := decimal.NewFromString(strings.TrimSpace(reply.Value))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid discount value %q", ErrProviderFailed, reply.Value)
	}
	discount := core.Discount{Kind: core.DiscountKind(strings.ToUpper(reply.Kind)), Value: value}
	if err := discount.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	if discount.Kind == core.DiscountAmount && value.GreaterThan(current.Subtotal) {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", ErrProviderFailed)
	}

	return &DiscountSuggestion{
		Discount:  discount,
		Totals:    core.ComputeTotals(doc.Items, &discount).Rounded(),
		Reasoning: reply.Reasoning,
	}, nil
}

func (a *Assistant) ask(ctx context.Context, prompt, name string, out any) error {
	schema, err := generateSchema(out)
	if err != nil {
		return err
	}
	content, err := a.gen.Generate(ctx, Request{Prompt: prompt, SchemaName: name, Schema: schema})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), out); err != nil {
		return fmt.Errorf("%w: failed to parse completion: %v", ErrProviderFailed, err)
	}
	return nil
}

// extractJSON strips a Markdown code fence some models wrap around JSON.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
