package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/avencia/tenantcore/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// buildEvents converts a type's transition table into looplab/fsm EventDesc
// format. The target status doubles as the event name, so "move to X" is the
// only event vocabulary. Transitions sharing a destination collapse into a
// single EventDesc with multiple source states.
func buildEvents(def domain.TypeDef) []loopfsm.EventDesc {
	grouped := make(map[domain.Status][]string)
	order := make([]domain.Status, 0)

	for _, t := range def.Transitions {
		if _, exists := grouped[t.Dst]; !exists {
			order = append(order, t.Dst)
		}
		grouped[t.Dst] = append(grouped[t.Dst], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, dst := range order {
		out = append(out, loopfsm.EventDesc{
			Name: string(dst),
			Src:  grouped[dst],
			Dst:  string(dst),
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Check call, initialized with the
// resource's current status. This is necessary because looplab/fsm is
// stateful (it tracks the current state internally).
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Check verifies that target is reachable from current in the type's
// transition table. A declared self-edge (e.g., preparing -> preparing)
// surfaces from looplab as NoTransitionError, which counts as a legal
// re-entry here; anything else maps to a domain.InvalidTransitionError.
func (v *Validator) Check(ctx context.Context, def domain.TypeDef, current, target domain.Status) error {
	machine := loopfsm.NewFSM(string(current), buildEvents(def), nil)

	if err := machine.Event(ctx, string(target)); err != nil {
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &noTransition) {
			if current == target && def.Allows(current, target) {
				return nil
			}
			return &domain.InvalidTransitionError{Type: def.Name, From: current, To: target}
		}

		var invalidEvent loopfsm.InvalidEventError
		if errors.As(err, &invalidEvent) {
			return &domain.InvalidTransitionError{Type: def.Name, From: current, To: target}
		}
		return err
	}

	return nil
}
