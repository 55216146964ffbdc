package branch

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
)

// TemplatePolicy picks a template index from the indices a category has.
type TemplatePolicy interface {
	Pick(available []int) int
}

// TemplatePolicyFunc adapts a function to TemplatePolicy.
type TemplatePolicyFunc func(available []int) int

// Pick calls f.
func (f TemplatePolicyFunc) Pick(available []int) int { return f(available) }

// FixedTemplate always picks index. An index the category lacks surfaces
// as a template error at generation time.
func FixedTemplate(index int) TemplatePolicy {
	return TemplatePolicyFunc(func([]int) int { return index })
}

// UniformTemplate picks uniformly among the available indices. A nil rng
// uses the global source.
func UniformTemplate(rng *rand.Rand) TemplatePolicy {
	return TemplatePolicyFunc(func(available []int) int {
		if len(available) == 0 {
			return 0
		}
		if rng == nil {
			return available[rand.IntN(len(available))]
		}
		return available[rng.IntN(len(available))]
	})
}

// ParseTemplatePolicy maps "random" (or empty) to a uniform policy and a
// number to a fixed one. A number missing from available is rejected; a
// nil available accepts any positive number.
func ParseTemplatePolicy(s string, available []int, rng *rand.Rand) (TemplatePolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "random" {
		return UniformTemplate(rng), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("must be a template number or \"random\", got %q", s)
	}
	if available != nil && !slices.Contains(available, n) {
		return nil, fmt.Errorf("template %d does not exist (available: %v)", n, available)
	}
	return FixedTemplate(n), nil
}

// defaultOrderTemplate is the order template used unless configured
// otherwise. It carries no attachment.
const defaultOrderTemplate = 6

func pick(p TemplatePolicy, available []int) int {
	return p.Pick(slices.Clone(available))
}
