package guard

import "time"

// Rule — лимит для семейства маршрутов. Name входит в ключ лимитера.
type Rule struct {
	Name   string
	Max    int
	Window time.Duration
}

var (
	RuleAPI    = Rule{Name: "api", Max: 60, Window: time.Minute}
	RuleWrite  = Rule{Name: "write", Max: 30, Window: time.Minute}
	RuleLink   = Rule{Name: "link", Max: 5, Window: time.Minute}
	RuleAdmin  = Rule{Name: "admin", Max: 10, Window: time.Minute}
	RulePublic = Rule{Name: "public", Max: 120, Window: time.Minute}
)

// DefaultRules — правила по умолчанию, ключ = Rule.Name.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		RuleAPI.Name:    RuleAPI,
		RuleWrite.Name:  RuleWrite,
		RuleLink.Name:   RuleLink,
		RuleAdmin.Name:  RuleAdmin,
		RulePublic.Name: RulePublic,
	}
}
