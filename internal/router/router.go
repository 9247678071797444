// Package router dispatches post-retrieval analysis routines per intent
// class. The routing table is static and built at construction time, so the
// research-only network gate can be checked without running anything: no
// network-bound routine is ever planned, or executed, for an intent other
// than research.
package router

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub010/internal/routines"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// defaultPlan is the built-in intent to routine mapping. Config may override
// individual intents; the network gate applies to overrides too.
var defaultPlan = map[types.IntentClass][]types.RoutineID{
	types.IntentDocLookup: {
		types.RoutineDocCompliance,
		types.RoutineCoaching,
	},
	types.IntentCodeLocation: {
		types.RoutineStructure,
		types.RoutineReinvention,
		types.RoutineCoaching,
	},
	types.IntentModuleHealth: {
		types.RoutineHealth,
		types.RoutineOversized,
		types.RoutineOrphans,
		types.RoutineStructure,
		types.RoutineCoaching,
	},
	types.IntentResearch: {
		types.RoutineResearch,
		types.RoutineCoaching,
	},
	types.IntentGeneral: {
		types.RoutineHealth,
		types.RoutineCoaching,
	},
}

var errNotRegistered = errors.New("routine not registered")

// Router executes the planned routines for a query. Routine failures and
// panics become degraded results; they never abort the batch.
type Router struct {
	registry routines.Registry
	plan     map[types.IntentClass][]types.RoutineID
	logger   *zap.Logger
}

// New builds a router from the routine registry and an optional per-intent
// override table (intent class name to routine ID list). Overrides replace
// the default list for that intent. Unknown routine names and network-bound
// routines under non-research intents are refused at construction with a
// warning, so a bad config cannot widen the network surface.
func New(registry routines.Registry, overrides map[string][]string, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	plan := make(map[types.IntentClass][]types.RoutineID, len(defaultPlan))
	for intent, ids := range defaultPlan {
		plan[intent] = ids
	}

	for name, routineNames := range overrides {
		intent := types.IntentClass(name)
		if !intent.Valid() {
			logger.Warn("Ignoring routing override for unknown intent",
				zap.String("intent", name))
			continue
		}
		var ids []types.RoutineID
		for _, rn := range routineNames {
			id := types.RoutineID(rn)
			if _, ok := registry[id]; !ok {
				logger.Warn("Ignoring unknown routine in routing override",
					zap.String("intent", name),
					zap.String("routine", rn))
				continue
			}
			if id.RequiresNetwork() && intent != types.IntentResearch {
				logger.Warn("Refusing network-bound routine for non-research intent",
					zap.String("intent", name),
					zap.String("routine", rn))
				continue
			}
			ids = append(ids, id)
		}
		plan[intent] = ids
	}

	return &Router{registry: registry, plan: plan, logger: logger}
}

// Plan returns the routine IDs that would run for an intent, in execution
// order. Exposed so the gate is testable without executing routines.
func (rt *Router) Plan(intent types.IntentClass) []types.RoutineID {
	ids := rt.plan[intent]
	out := make([]types.RoutineID, len(ids))
	copy(out, ids)
	return out
}

// Route runs the planned routines for the input's intent in order and
// returns one result per routine.
func (rt *Router) Route(ctx context.Context, in routines.Input) []types.RoutineResult {
	ids := rt.plan[in.Intent.Intent]
	results := make([]types.RoutineResult, 0, len(ids))

	for _, id := range ids {
		if id.RequiresNetwork() && in.Intent.Intent != types.IntentResearch {
			// New already refuses these; the gate holds at dispatch as well.
			rt.logger.Warn("Skipping network-bound routine for non-research intent",
				zap.String("intent", string(in.Intent.Intent)),
				zap.String("routine", string(id)))
			continue
		}

		r, ok := rt.registry[id]
		if !ok {
			results = append(results, types.DegradedResult(id, errNotRegistered))
			continue
		}

		res, err := rt.runOne(ctx, r, in)
		if err != nil {
			rt.logger.Warn("Routine failed, recording degraded result",
				zap.String("routine", string(id)),
				zap.Error(err))
			res = types.DegradedResult(id, err)
		}
		results = append(results, res)
	}
	return results
}

// runOne executes a single routine, converting panics into errors.
func (rt *Router) runOne(ctx context.Context, r routines.Routine, in routines.Input) (res types.RoutineResult, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("routine panicked: %v", v)
		}
	}()
	return r.Run(ctx, in)
}
