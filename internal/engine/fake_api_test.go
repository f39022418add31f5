package engine_test

import (
	"sync"

	"github.com/hearthbox/rulehub/internal/deviceapi"
)

// fakeAPI is a minimal in-memory Device API double for engine tests.
// Selectors are treated as exact sensor/actuator identifiers: "sensor s1"
// is the selector string "s1".
type fakeAPI struct {
	mu            sync.Mutex
	registered    []registeredSub
	sentHistory   []deviceapi.SendPair
	failActuators map[string]error
	watchErr      map[string]error // selector -> synchronous WatchValues error
}

type registeredSub struct {
	sub  deviceapi.Subscription
	sink func(deviceapi.Subscription, deviceapi.WatchEvent)
}

type fakeGuard struct {
	mu     sync.Mutex
	closed bool
}

func (g *fakeGuard) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *fakeGuard) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{failActuators: map[string]error{}, watchErr: map[string]error{}}
}

func (f *fakeAPI) WatchValues(subs []deviceapi.Subscription, sink func(deviceapi.Subscription, deviceapi.WatchEvent)) (deviceapi.WatchGuard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range subs {
		for _, sel := range s.Selectors {
			if err, ok := f.watchErr[sel]; ok {
				return nil, err
			}
		}
	}
	for _, s := range subs {
		f.registered = append(f.registered, registeredSub{sub: s, sink: sink})
	}
	return &fakeGuard{}, nil
}

func (f *fakeAPI) SendValues(pairs []deviceapi.SendPair) []deviceapi.ActuatorResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	var results []deviceapi.ActuatorResult
	for _, p := range pairs {
		f.sentHistory = append(f.sentHistory, p)
		for _, sel := range p.Selectors {
			results = append(results, deviceapi.ActuatorResult{ActuatorID: sel, Err: f.failActuators[sel]})
		}
	}
	return results
}

// Emit delivers a WatchEvent to every subscription whose selector set
// contains sensorID, synchronously from the caller's goroutine (it only
// enqueues onto the task's inbox channel, matching the real contract).
func (f *fakeAPI) Emit(sensorID string, ev deviceapi.WatchEvent) {
	f.mu.Lock()
	regs := append([]registeredSub(nil), f.registered...)
	f.mu.Unlock()

	for _, r := range regs {
		for _, sel := range r.sub.Selectors {
			if sel == sensorID {
				r.sink(r.sub, ev)
				break
			}
		}
	}
}
