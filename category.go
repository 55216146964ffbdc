package phantommail

import (
	"math/rand/v2"
	"strings"
)

// Category selects which generation branch handles a run. The zero value is
// Unspecified, which Select replaces with a random label.
type Category int

const (
	Unspecified Category = iota
	Order
	Declaration
	Question
	Complaint
	PriceRequest
	WaitingCosts
	UpdateOrder
	Random
)

// AllRandom is the label that asks for a fresh random category per run.
const AllRandom = "all_random"

var categoryLabels = [...]string{
	Unspecified:  "unspecified",
	Order:        "order",
	Declaration:  "declaration",
	Question:     "question",
	Complaint:    "complaint",
	PriceRequest: "price_request",
	WaitingCosts: "waiting_costs",
	UpdateOrder:  "update_order",
	Random:       "random",
}

var categoryDescriptions = [...]string{
	Order:        "Transport order with pickup/delivery details",
	Declaration:  "Customs/import declaration emails",
	Question:     "General transport-related questions",
	Complaint:    "Customer complaint emails",
	PriceRequest: "Price negotiation/inquiry emails",
	WaitingCosts: "Dispute emails for waiting charges",
	UpdateOrder:  "Request updates on existing orders",
	Random:       "Random promotional emails",
}

// Categories returns the eight valid labels in menu order.
func Categories() []Category {
	return []Category{Order, Declaration, Question, Complaint, PriceRequest, WaitingCosts, UpdateOrder, Random}
}

// String returns the wire label, e.g. "price_request".
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryLabels) {
		return "unspecified"
	}
	return categoryLabels[c]
}

// Description returns the one-line menu description.
func (c Category) Description() string {
	if !c.Valid() {
		return "Random type for each email"
	}
	return categoryDescriptions[c]
}

// Valid reports whether c is one of the eight generation categories.
func (c Category) Valid() bool {
	return c >= Order && c <= Random
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown labels decode
// to Unspecified.
func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}

// ParseCategory maps a label to its Category. Empty, unknown and
// "all_random" labels return Unspecified.
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if categoryLabels[c] == s {
			return c
		}
	}
	return Unspecified
}

// Select returns requested when it is a valid category and otherwise a
// label drawn uniformly from Categories. It never returns Unspecified.
// A nil rng uses the global source.
func Select(requested Category, rng *rand.Rand) Category {
	if requested.Valid() {
		return requested
	}
	all := Categories()
	if rng == nil {
		return all[rand.IntN(len(all))]
	}
	return all[rng.IntN(len(all))]
}
