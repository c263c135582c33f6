// Package fillmode resolves the ordered fill-policy fallback sequence for
// an order against a given instrument.
package fillmode

import "strings"

// Class is an instrument category used only to pick a preferred fill mode.
type Class string

const (
	ClassForex Class = "forex"
	ClassMetal Class = "metal"
	ClassIndex Class = "index"
	ClassOther Class = "other"
)

// Classifier maps a symbol to an instrument class. Implementations are
// injected so the category policy stays configuration, not code.
type Classifier interface {
	Classify(symbol string) Class
}

// ClassRule matches symbols into a class by prefix or substring.
type ClassRule struct {
	Class    Class
	Prefixes []string
	Contains []string
}

// RuleClassifier classifies symbols with an ordered rule table, first
// match wins. The table normally comes from the config file.
type RuleClassifier struct {
	rules []ClassRule
}

// NewRuleClassifier creates a classifier from an ordered rule table.
func NewRuleClassifier(rules []ClassRule) *RuleClassifier {
	return &RuleClassifier{rules: rules}
}

// DefaultRules returns the rule table used when the config declares none.
func DefaultRules() []ClassRule {
	return []ClassRule{
		{Class: ClassMetal, Prefixes: []string{"XAU", "XAG", "XPT", "XPD"}},
		{Class: ClassIndex, Contains: []string{"US30", "US500", "NAS100", "GER40", "UK100", "JP225"}},
		{Class: ClassForex, Prefixes: []string{"EUR", "GBP", "USD", "AUD", "NZD", "CHF", "CAD", "JPY"}},
	}
}

// Classify returns the class of the first matching rule, ClassOther when
// nothing matches.
func (c *RuleClassifier) Classify(symbol string) Class {
	upper := strings.ToUpper(symbol)
	for _, rule := range c.rules {
		for _, p := range rule.Prefixes {
			if strings.HasPrefix(upper, p) {
				return rule.Class
			}
		}
		for _, s := range rule.Contains {
			if strings.Contains(upper, s) {
				return rule.Class
			}
		}
	}
	return ClassOther
}
