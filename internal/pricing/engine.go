package pricing

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Discount is one applied discount in a quote. Rule-specific metadata from
// Result.Extra is flattened into the JSON object next to the fixed fields,
// matching the payload the storefront renders.
type Discount struct {
	Name        string
	AmountCents Money
	Amount      string
	Description string
	Extra       map[string]any
}

// MarshalJSON flattens Extra into the discount object. Fixed fields win on
// key collisions.
func (d Discount) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, 4+len(d.Extra))
	for k, v := range d.Extra {
		payload[k] = v
	}
	payload["name"] = d.Name
	payload["amountCents"] = d.AmountCents
	payload["amount"] = d.Amount
	payload["description"] = d.Description
	return json.Marshal(payload)
}

// Quote is the complete pricing result. Field names are part of the wire
// contract with the storefront client; the *InCents fields carry the exact
// integer values for callers that keep computing.
type Quote struct {
	SubtotalCents      Money      `json:"subtotalInCents"`
	TotalDiscountCents Money      `json:"totalDiscountInCents"`
	TotalCents         Money      `json:"totalInCents"`
	Discounts          []Discount `json:"discounts"`
	Subtotal           string     `json:"subtotal"`
	TotalDiscount      string     `json:"totalDiscount"`
	Total              string     `json:"total"`
}

// Engine computes cart totals by running every discount rule and stacking
// the eligible amounts. It is a pure computation over its inputs: no I/O,
// no shared mutable state, safe for concurrent use.
type Engine struct {
	rules  []Rule
	logger zerolog.Logger
}

// NewEngine builds an engine around the provided rule set.
func NewEngine(rules []Rule, logger zerolog.Logger) *Engine {
	return &Engine{rules: rules, logger: logger}
}

// CalculateTotals prices the cart for the given shopper. An empty cart
// yields the all-zero quote; it is not an error. Identical inputs produce
// identical output.
func (e *Engine) CalculateTotals(cart Cart, shopper *Shopper) Quote {
	if len(cart.Items) == 0 {
		return zeroQuote()
	}

	subtotal := cart.SubtotalCents()
	discounts := make([]Discount, 0, len(e.rules))
	var totalDiscount Money

	for _, rule := range e.rules {
		result, err := e.runRule(rule, cart, shopper)
		if err != nil {
			// One broken promotion must never block checkout: the rule
			// contributes nothing and the rest of the set still runs.
			e.logger.Error().Err(err).Str("rule", rule.Name()).Msg("discount rule failed")
			continue
		}
		if result.AmountCents <= 0 {
			continue
		}
		discounts = append(discounts, Discount{
			Name:        rule.Name(),
			AmountCents: result.AmountCents,
			Amount:      result.AmountCents.Display(),
			Description: result.Description,
			Extra:       result.Extra,
		})
		totalDiscount += result.AmountCents
	}

	total := subtotal - totalDiscount
	if total < 0 {
		total = 0
	}

	return Quote{
		SubtotalCents:      subtotal,
		TotalDiscountCents: totalDiscount,
		TotalCents:         total,
		Discounts:          discounts,
		Subtotal:           subtotal.Display(),
		TotalDiscount:      totalDiscount.Display(),
		Total:              total.Display(),
	}
}

func (e *Engine) runRule(rule Rule, cart Cart, shopper *Shopper) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %q panicked: %v", rule.Name(), r)
		}
	}()
	return rule.Calculate(cart, shopper), nil
}

func zeroQuote() Quote {
	return Quote{
		Discounts:     []Discount{},
		Subtotal:      "0.00",
		TotalDiscount: "0.00",
		Total:         "0.00",
	}
}
