package strategy

import (
	"go.uber.org/zap"

	"tacticbot/internal/asset"
	"tacticbot/internal/config"
)

type SkipReason int

const (
	Unknown SkipReason = iota
	NoTargetAssets
	ConditionsUnsatisfied
)

func (r SkipReason) String() string {
	switch r {
	case NoTargetAssets:
		return "no target assets"
	case ConditionsUnsatisfied:
		return "when conditions were unsatisfied"
	default:
		return "unknown"
	}
}

// Result is the outcome of one rule. Reason only means something when
// Skipped is set.
type Result struct {
	Actions []Action
	Skipped bool
	Reason  SkipReason
}

func skipped(reason SkipReason) Result {
	return Result{Skipped: true, Reason: reason}
}

// Evaluate runs For, When and Do in turn, stopping early when a stage
// leaves nothing to act on.
func Evaluate(rule config.RuleConfig, universe []asset.Symbol, state State, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	targets := SelectTargets(rule.For, universe, state)
	if len(targets) == 0 {
		return skipped(NoTargetAssets)
	}

	when := FilterTargets(rule.When, targets, state, logger)
	if !when.Satisfied {
		return skipped(ConditionsUnsatisfied)
	}

	actions := BuildActions(rule.Do, when.Targets, state)
	if len(actions) == 0 {
		return skipped(NoTargetAssets)
	}
	return Result{Actions: actions}
}
