package fillmode

import (
	"mt5-guard/internal/config"
	"mt5-guard/internal/models"
)

// PolicyFromConfig builds the preference policy from configuration,
// falling back to defaults for anything the config leaves out.
func PolicyFromConfig(cfg config.FillModeConfig) Policy {
	policy := DefaultPolicy()
	policy.SmallVolumeMax = cfg.SmallVolumeMax

	if len(cfg.Classes) > 0 {
		rules := make([]ClassRule, 0, len(cfg.Classes))
		for _, rc := range cfg.Classes {
			rules = append(rules, ClassRule{
				Class:    Class(rc.Class),
				Prefixes: rc.Prefixes,
				Contains: rc.Contains,
			})
		}
		policy.Classifier = NewRuleClassifier(rules)
	}

	if len(cfg.Preferred) > 0 {
		preferred := make(map[Class]models.FillMode, len(cfg.Preferred))
		for class, name := range cfg.Preferred {
			if mode, ok := models.ParseFillMode(name); ok {
				preferred[Class(class)] = mode
			}
		}
		policy.Preferred = preferred
	}

	return policy
}
