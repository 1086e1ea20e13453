package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrNoOp    = errors.New("engine: rule returned an identical state")
	ErrNoRule  = errors.New("engine: no rule matches node")
	ErrNoFrame = errors.New("engine: up without a matching down")
)

// Phase tells whether a rule is used for parsing or printing
type Phase uint8

const (
	PhaseDeserialize Phase = iota
	PhaseSerialize
)

func (p Phase) String() string {
	if p == PhaseSerialize {
		return "serialize"
	}
	return "deserialize"
}

// InvariantError reports a defect of a grammar: a rule returning its input
// unchanged, or a node no rule can print.
type InvariantError struct {
	Phase Phase
	Mode  string
	Rule  string // name of the offending rule, if known
	Node  string // description of the node being printed, if any
	Err   error
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("%s in %s mode", e.Phase, e.Mode)
	if e.Rule != "" {
		msg += fmt.Sprintf(", rule %q", e.Rule)
	}
	if e.Node != "" {
		msg += fmt.Sprintf(", node %s", e.Node)
	}
	return fmt.Sprintf("%v (%s)", e.Err, msg)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// bailout carries a fatal error up through the recursive drivers.
type bailout struct {
	err error
}

// Raise aborts the running conversion with err. It must only be called from
// within rules or drivers; the error surfaces from the nearest
// error-returning entry point.
func Raise(err error) {
	panic(bailout{err: err})
}

// Recover turns a conversion aborted with Raise into an error. It must be
// deferred directly:
//
//	defer engine.Recover(&err)
//
// Panics not raised through Raise are propagated.
func Recover(errp *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*errp = b.err
	}
}
