// Package simulator is an in-memory implementation of internal/deviceapi.API,
// used by the CLI harness (cmd/rulehub) and by scenario tests in place of a
// real device mesh. Selectors are treated as exact sensor/actuator
// identifiers: the selector "s1" resolves to exactly the sensor "s1".
package simulator

import (
	"fmt"
	"sync"

	"github.com/hearthbox/rulehub/internal/deviceapi"
)

type registeredSub struct {
	sub  deviceapi.Subscription
	sink func(deviceapi.Subscription, deviceapi.WatchEvent)
}

// Simulator is a fake Device API backed by an in-process registry.
type Simulator struct {
	mu            sync.Mutex
	registered    []registeredSub
	failActuators map[string]error
	sentHistory   []deviceapi.SendPair
}

// New returns an empty Simulator.
func New() *Simulator {
	return &Simulator{failActuators: map[string]error{}}
}

// WatchValues registers sink for every subscription passed and returns a
// guard that, on Close, unregisters them.
func (s *Simulator) WatchValues(subs []deviceapi.Subscription, sink func(deviceapi.Subscription, deviceapi.WatchEvent)) (deviceapi.WatchGuard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.registered)
	for _, sub := range subs {
		s.registered = append(s.registered, registeredSub{sub: sub, sink: sink})
	}
	return &guard{sim: s, start: start, count: len(subs)}, nil
}

// SendValues resolves each pair's selectors to actuator identifiers
// (identity resolution: selector == actuator id) and records the write.
// FailActuator configures a selector to fail instead.
func (s *Simulator) SendValues(pairs []deviceapi.SendPair) []deviceapi.ActuatorResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []deviceapi.ActuatorResult
	for _, p := range pairs {
		s.sentHistory = append(s.sentHistory, p)
		for _, sel := range p.Selectors {
			results = append(results, deviceapi.ActuatorResult{ActuatorID: sel, Err: s.failActuators[sel]})
		}
	}
	return results
}

// FailActuator makes every future SendValues targeting selector return err
// for that actuator, instead of succeeding.
func (s *Simulator) FailActuator(selector string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failActuators[selector] = err
}

// SentHistory returns every SendPair recorded so far, in dispatch order.
func (s *Simulator) SentHistory() []deviceapi.SendPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]deviceapi.SendPair(nil), s.sentHistory...)
}

// Emit delivers ev to every registered subscription whose selector set
// contains sensorID.
func (s *Simulator) Emit(sensorID string, ev deviceapi.WatchEvent) {
	s.mu.Lock()
	regs := append([]registeredSub(nil), s.registered...)
	s.mu.Unlock()

	for _, r := range regs {
		if r.sink == nil {
			continue
		}
		for _, sel := range r.sub.Selectors {
			if sel == sensorID {
				r.sink(r.sub, ev)
				break
			}
		}
	}
}

// guard unregisters a contiguous run of subscriptions on Close. Tolerates
// being closed more than once.
type guard struct {
	mu     sync.Mutex
	sim    *Simulator
	start  int
	count  int
	closed bool
}

func (g *guard) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true

	g.sim.mu.Lock()
	defer g.sim.mu.Unlock()
	if g.start < 0 || g.start+g.count > len(g.sim.registered) {
		return fmt.Errorf("simulator: guard range out of bounds")
	}
	for i := g.start; i < g.start+g.count; i++ {
		g.sim.registered[i].sink = nil
	}
	return nil
}
