package analytics

import (
	"fmt"

	"github.com/franz/chinook-insights/internal/util"
)

// ScoreRange is an inclusive range of RFM scores. A zero bound is open:
// Min 0 means 1 and Max 0 means 5.
type ScoreRange struct {
	Min int `mapstructure:"min" yaml:"min"`
	Max int `mapstructure:"max" yaml:"max"`
}

func (r ScoreRange) bounds() (int, int) {
	lo, hi := r.Min, r.Max
	if lo == 0 {
		lo = 1
	}
	if hi == 0 {
		hi = 5
	}
	return lo, hi
}

// Contains reports whether score lies in the range
func (r ScoreRange) Contains(score int) bool {
	lo, hi := r.bounds()
	return score >= lo && score <= hi
}

// SegmentRule names the customers whose R, F and M scores all fall in range
type SegmentRule struct {
	Name string     `mapstructure:"name" yaml:"name"`
	R    ScoreRange `mapstructure:"r" yaml:"r"`
	F    ScoreRange `mapstructure:"f" yaml:"f"`
	M    ScoreRange `mapstructure:"m" yaml:"m"`
}

// Matches reports whether the rule accepts the given scores
func (s SegmentRule) Matches(r, f, m int) bool {
	return s.R.Contains(r) && s.F.Contains(f) && s.M.Contains(m)
}

// FallbackSegment labels customers that match no rule
const FallbackSegment = "Standard"

// DefaultSegmentRules returns the built-in segment table, evaluated in order
func DefaultSegmentRules() []SegmentRule {
	return []SegmentRule{
		{Name: "Champions", R: ScoreRange{4, 5}, F: ScoreRange{4, 5}, M: ScoreRange{4, 5}},
		{Name: "Loyal", R: ScoreRange{3, 5}, F: ScoreRange{4, 5}, M: ScoreRange{3, 5}},
		{Name: "At Risk", R: ScoreRange{1, 2}, F: ScoreRange{3, 5}, M: ScoreRange{3, 5}},
		{Name: "New", R: ScoreRange{4, 5}, F: ScoreRange{1, 2}, M: ScoreRange{1, 5}},
		{Name: "Hibernating", R: ScoreRange{1, 2}, F: ScoreRange{1, 2}, M: ScoreRange{1, 2}},
	}
}

// ValidateSegmentRules checks names and score bounds of user-supplied rules
func ValidateSegmentRules(rules []SegmentRule) error {
	for i, rule := range rules {
		if rule.Name == "" {
			return fmt.Errorf("%w: segment rule %d has no name", util.ErrInvalidConfig, i)
		}
		for axis, r := range map[string]ScoreRange{"r": rule.R, "f": rule.F, "m": rule.M} {
			lo, hi := r.bounds()
			if lo < 1 || hi > 5 || lo > hi {
				return fmt.Errorf("%w: segment %q has invalid %s range %d-%d",
					util.ErrInvalidConfig, rule.Name, axis, r.Min, r.Max)
			}
		}
	}
	return nil
}

// classify returns the first matching rule name, or FallbackSegment
func classify(rules []SegmentRule, r, f, m int) string {
	for _, rule := range rules {
		if rule.Matches(r, f, m) {
			return rule.Name
		}
	}
	return FallbackSegment
}
