// Package harness runs a compiled script against internal/simulator through
// a real internal/engine.Controller and collects the resulting event trace
// for assertions. Unlike a harness that pre-computes expected completions,
// this one only ever observes what the actual engine produced.
package harness

import (
	"sync"
	"time"

	"github.com/hearthbox/rulehub/internal/ast"
	"github.com/hearthbox/rulehub/internal/deviceapi"
	"github.com/hearthbox/rulehub/internal/engine"
	"github.com/hearthbox/rulehub/internal/simulator"
)

// Scenario bundles a script with the event stream to play against it.
type Scenario struct {
	Script       ast.Script
	Instructions []simulator.Instruction
}

// TraceEvent is a serialization-friendly projection of engine.Event,
// stripped of the fields that don't apply to its Kind.
type TraceEvent struct {
	Kind           string
	RuleIndex      int
	ConditionIndex int
	StatementIndex int
	SensorID       string
	Channel        string
	HadError       bool
}

// Run starts script against a fresh Simulator, plays instructions through
// it with no artificial delay, stops the controller, and returns every
// event the run produced in order.
func Run(script ast.Script, instructions []simulator.Instruction) ([]TraceEvent, error) {
	sim := simulator.New()

	var mu sync.Mutex
	var trace []TraceEvent
	sink := func(e engine.Event) {
		mu.Lock()
		defer mu.Unlock()
		trace = append(trace, toTraceEvent(e))
	}

	ctrl := engine.New()
	if err := ctrl.Start(sim, script, sink); err != nil {
		return nil, err
	}

	if err := simulator.Play(sim, instructions, 0); err != nil {
		_ = ctrl.Stop(func(error) {})
		return nil, err
	}

	if err := ctrl.Stop(func(error) {}); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return trace, nil
}

func toTraceEvent(e engine.Event) TraceEvent {
	te := TraceEvent{Kind: kindName(e.Kind)}
	switch e.Kind {
	case engine.Starting, engine.Stopped:
		te.HadError = e.Result != nil
	case engine.Updated:
		te.RuleIndex = e.RuleIndex
		te.ConditionIndex = e.ConditionIndex
		te.SensorID = e.WatchEvent.SensorID
	case engine.Sent:
		te.RuleIndex = e.RuleIndex
		te.StatementIndex = e.StatementIndex
		for _, r := range e.SentResults {
			if r.Err != nil {
				te.HadError = true
			}
		}
	case engine.ChannelError:
		te.Channel = e.Channel
		te.HadError = true
	}
	return te
}

func kindName(k engine.EventKind) string {
	switch k {
	case engine.Starting:
		return "starting"
	case engine.Updated:
		return "updated"
	case engine.Sent:
		return "sent"
	case engine.ChannelError:
		return "channel_error"
	case engine.Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CountKind returns how many events in trace have the given kind name.
func CountKind(trace []TraceEvent, kind string) int {
	n := 0
	for _, e := range trace {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// RunSlow is Run with real delays, for tests that care about ordering
// across wall-clock time rather than pure message order.
func RunSlow(script ast.Script, instructions []simulator.Instruction, slowdown time.Duration) ([]TraceEvent, error) {
	sim := simulator.New()

	var mu sync.Mutex
	var trace []TraceEvent
	sink := func(e engine.Event) {
		mu.Lock()
		defer mu.Unlock()
		trace = append(trace, toTraceEvent(e))
	}

	ctrl := engine.New()
	if err := ctrl.Start(sim, script, sink); err != nil {
		return nil, err
	}
	if err := simulator.Play(sim, instructions, slowdown); err != nil {
		_ = ctrl.Stop(func(error) {})
		return nil, err
	}
	if err := ctrl.Stop(func(error) {}); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return trace, nil
}

var _ deviceapi.API = (*simulator.Simulator)(nil)
