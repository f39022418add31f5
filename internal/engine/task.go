package engine

import (
	"github.com/hearthbox/rulehub/internal/compiled"
	"github.com/hearthbox/rulehub/internal/deviceapi"
)

type msgKind int

const (
	msgWatch msgKind = iota
	msgStop
)

// taskMessage is the single tagged-message type carried on the task's
// inbox: either a Device-API watch notification tagged with the
// (ruleIndex, conditionIndex) pair that registered it, or an out-of-band
// stop request. Both kinds travel the same channel, matching the "single
// multi-producer single-consumer channel" the task is specified to use.
type taskMessage struct {
	kind           msgKind
	ruleIndex      int
	conditionIndex int
	event          deviceapi.WatchEvent

	onStop func(error)
}

// conditionState is the per-condition truth bookkeeping of §4.3's RuleState.
type conditionState struct {
	matchIsMet bool
	perSensor  map[string]bool
}

// ruleState is the per-rule truth bookkeeping of §4.3's RuleState.
type ruleState struct {
	ruleIsMet  bool
	conditions []conditionState
}

type executionTask struct {
	script *compiled.Script
	api    deviceapi.API
	sink   func(Event)
	clock  *Clock

	inbox  chan taskMessage
	guards []deviceapi.WatchGuard
	states []ruleState
}

func newExecutionTask(script *compiled.Script, api deviceapi.API, sink func(Event), clock *Clock) *executionTask {
	t := &executionTask{
		script: script,
		api:    api,
		sink:   sink,
		clock:  clock,
		inbox:  make(chan taskMessage, 64),
		states: make([]ruleState, len(script.Rules)),
	}
	for ri, rule := range script.Rules {
		t.states[ri] = ruleState{conditions: make([]conditionState, len(rule.Conditions))}
		for ci := range rule.Conditions {
			t.states[ri].conditions[ci] = conditionState{perSensor: make(map[string]bool)}
		}
	}
	return t
}

// run enters the single-threaded inbox loop; the subscriptions have already
// been registered by subscribeAll. It returns once a Stop message has been
// processed, and closes every watch guard on any exit path.
func (t *executionTask) run() {
	defer t.teardown()

	for msg := range t.inbox {
		if msg.kind == msgStop {
			t.teardown()
			t.sink(Event{Kind: Stopped, Result: nil, Seq: t.clock.Next()})
			if msg.onStop != nil {
				msg.onStop(nil)
			}
			return
		}
		t.handleWatchEvent(msg.ruleIndex, msg.conditionIndex, msg.event)
	}
}

func (t *executionTask) subscribeAll() {
	for ri, rule := range t.script.Rules {
		for ci, cond := range rule.Conditions {
			ruleIndex, conditionIndex := ri, ci
			// One watch per selector, so a selector that fails to initialize
			// does not take the other selectors of the condition with it.
			for _, selector := range selectorStrings(cond.Source) {
				sub := deviceapi.Subscription{
					Selectors: []string{selector},
					Kind:      cond.Kind,
					Range:     cond.Range,
				}
				guard, err := t.api.WatchValues([]deviceapi.Subscription{sub}, func(_ deviceapi.Subscription, ev deviceapi.WatchEvent) {
					t.inbox <- taskMessage{kind: msgWatch, ruleIndex: ruleIndex, conditionIndex: conditionIndex, event: ev}
				})
				if err != nil {
					t.sink(Event{
						Kind:       ChannelError,
						Channel:    selector,
						ChannelErr: &APIError{Channel: selector, Err: err},
						Seq:        t.clock.Next(),
					})
					continue
				}
				t.guards = append(t.guards, guard)
			}
		}
	}
}

func (t *executionTask) teardown() {
	for _, g := range t.guards {
		_ = g.Close()
	}
	t.guards = nil
}

// handleWatchEvent is the central algorithm of §4.3: mutate truth state,
// detect rising edges, and fire statements — all before the next inbox
// message is read.
func (t *executionTask) handleWatchEvent(ruleIndex, conditionIndex int, ev deviceapi.WatchEvent) {
	switch ev.Kind {
	case deviceapi.InitializationError:
		t.sink(Event{Kind: ChannelError, Channel: ev.Channel, ChannelErr: &APIError{Channel: ev.Channel, Err: ev.Err}, Seq: t.clock.Next()})
		return
	}

	cond := &t.states[ruleIndex].conditions[conditionIndex]
	rng := t.script.Rules[ruleIndex].Conditions[conditionIndex].Range

	switch ev.Kind {
	case deviceapi.GetterAdded:
		cond.perSensor[ev.SensorID] = false
	case deviceapi.GetterRemoved:
		delete(cond.perSensor, ev.SensorID)
	case deviceapi.EnterRange, deviceapi.ExitRange:
		// The stored range is authoritative; the Enter/Exit tag itself is
		// not trusted.
		cond.perSensor[ev.SensorID] = rng.Contains(ev.Value)
	}

	matchIsMet := false
	for _, met := range cond.perSensor {
		if met {
			matchIsMet = true
			break
		}
	}
	cond.matchIsMet = matchIsMet

	ruleIsMet := true
	for _, c := range t.states[ruleIndex].conditions {
		if !c.matchIsMet {
			ruleIsMet = false
			break
		}
	}
	wasMet := t.states[ruleIndex].ruleIsMet
	t.states[ruleIndex].ruleIsMet = ruleIsMet

	t.sink(Event{
		Kind:           Updated,
		RuleIndex:      ruleIndex,
		ConditionIndex: conditionIndex,
		WatchEvent:     ev,
		Seq:            t.clock.Next(),
	})

	if !wasMet && ruleIsMet {
		t.fireRule(ruleIndex)
	}
}

// fireRule dispatches every statement of a rule in document order.
func (t *executionTask) fireRule(ruleIndex int) {
	rule := t.script.Rules[ruleIndex]
	for si, stmt := range rule.Execute {
		pairs := []deviceapi.SendPair{{Selectors: selectorStrings(stmt.Destination), Value: stmt.Value}}
		results := t.api.SendValues(pairs)
		t.sink(Event{
			Kind:           Sent,
			RuleIndex:      ruleIndex,
			StatementIndex: si,
			SentResults:    results,
			Seq:            t.clock.Next(),
		})
	}
}

func selectorStrings(selectors []compiled.Selector) []string {
	out := make([]string, len(selectors))
	for i, s := range selectors {
		out[i] = s.Raw
	}
	return out
}
