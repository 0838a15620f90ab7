package pricing

// Combination declares how a rule's discount combines with others.
type Combination int

const (
	// Stack sums the rule's discount with every other eligible discount.
	Stack Combination = iota
	// BestOnly is declared for future rules that should only keep the
	// largest discount of their group. No current rule uses it and the
	// engine does not aggregate it; it exists so the rule contract stays
	// stable when such a rule arrives.
	BestOnly
)

func (c Combination) String() string {
	if c == BestOnly {
		return "BEST_ONLY"
	}
	return "STACK"
}

// Result is the outcome of evaluating one rule against a cart. An
// ineligible rule reports a zero amount and an explanatory description; it
// never errors, so a single promotion can not fail a pricing request.
type Result struct {
	AmountCents Money
	Description string
	// Extra carries rule-specific metadata (tier, percentage, affected
	// item count) merged into the serialised discount payload.
	Extra map[string]any
}

// Rule is one unit of discount logic. Implementations are stateless and
// safe to share across concurrent pricing requests.
type Rule interface {
	Name() string
	Description() string
	Priority() int
	Combination() Combination
	Eligible(cart Cart, shopper *Shopper) bool
	Calculate(cart Cart, shopper *Shopper) Result
}
