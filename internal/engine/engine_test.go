package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hearthbox/rulehub/internal/ast"
	"github.com/hearthbox/rulehub/internal/deviceapi"
	"github.com/hearthbox/rulehub/internal/engine"
	"github.com/hearthbox/rulehub/internal/ranges"
	"github.com/hearthbox/rulehub/internal/values"
	"github.com/stretchr/testify/require"
)

var errNoSuchSelector = errors.New("no such selector")

func singleConditionScript(selectors ...string) ast.Script {
	sels := make([]ast.Selector, len(selectors))
	for i, s := range selectors {
		sels[i] = ast.Selector{Raw: s}
	}
	return ast.Script{Rules: []ast.Rule{{
		Conditions: []ast.Match{{
			Source: sels,
			Kind:   values.KindNumber,
			Range:  ranges.Geq{V: values.Number(3)},
		}},
		Execute: []ast.Statement{{
			Destination: []ast.Selector{{Raw: "a1"}},
			Kind:        values.KindNumber,
			Value:       values.Number(1),
		}},
	}}}
}

func collect(t *testing.T) (func(engine.Event), func() []engine.Event) {
	t.Helper()
	ch := make(chan engine.Event, 4096)
	return func(e engine.Event) { ch <- e },
		func() []engine.Event {
			var out []engine.Event
			for {
				select {
				case e := <-ch:
					out = append(out, e)
				case <-time.After(10 * time.Millisecond):
					return out
				}
			}
		}
}

func countKind(events []engine.Event, kind engine.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// S3: single rising edge.
func TestSingleRisingEdgeFiresOnce(t *testing.T) {
	api := newFakeAPI()
	sink, drain := collect(t)
	c := engine.New()

	require.NoError(t, c.Start(api, singleConditionScript("s1"), sink))

	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.GetterAdded, SensorID: "s1"})
	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(2)})
	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(4)})
	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(5)})

	var stopErr error
	require.NoError(t, c.Stop(func(err error) { stopErr = err }))
	require.NoError(t, stopErr)

	events := drain()
	require.Equal(t, 1, countKind(events, engine.Sent))
	require.Equal(t, engine.Starting, events[0].Kind)
	require.Equal(t, engine.Stopped, events[len(events)-1].Kind)
}

// S4: OR across sensors.
func TestORAcrossSensorsFiresOnceThenNotAgain(t *testing.T) {
	api := newFakeAPI()
	sink, drain := collect(t)
	c := engine.New()

	require.NoError(t, c.Start(api, singleConditionScript("s1", "s2"), sink))

	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.GetterAdded, SensorID: "s1"})
	api.Emit("s2", deviceapi.WatchEvent{Kind: deviceapi.GetterAdded, SensorID: "s2"})
	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(2)})
	api.Emit("s2", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s2", Value: values.Number(10)})
	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(10)})

	var stopErr error
	require.NoError(t, c.Stop(func(err error) { stopErr = err }))
	require.NoError(t, stopErr)

	events := drain()
	require.Equal(t, 1, countKind(events, engine.Sent))
}

// S5: AND across conditions.
func TestANDAcrossConditions(t *testing.T) {
	api := newFakeAPI()
	sink, drain := collect(t)
	c := engine.New()

	script := ast.Script{Rules: []ast.Rule{{
		Conditions: []ast.Match{
			{Source: []ast.Selector{{Raw: "a"}}, Kind: values.KindNumber, Range: ranges.Geq{V: values.Number(3)}},
			{Source: []ast.Selector{{Raw: "b"}}, Kind: values.KindNumber, Range: ranges.Geq{V: values.Number(3)}},
		},
		Execute: []ast.Statement{{
			Destination: []ast.Selector{{Raw: "a1"}},
			Kind:        values.KindNumber,
			Value:       values.Number(1),
		}},
	}}}

	require.NoError(t, c.Start(api, script, sink))

	api.Emit("a", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "a", Value: values.Number(5)})
	api.Emit("b", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "b", Value: values.Number(1)})
	api.Emit("b", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "b", Value: values.Number(5)})

	var stopErr error
	require.NoError(t, c.Stop(func(err error) { stopErr = err }))
	require.NoError(t, stopErr)

	events := drain()
	require.Equal(t, 1, countKind(events, engine.Sent))
}

// S6: stop is prompt.
func TestStopIsPromptAndFinal(t *testing.T) {
	api := newFakeAPI()
	sink, drain := collect(t)
	c := engine.New()

	require.NoError(t, c.Start(api, singleConditionScript("s1"), sink))

	for i := 0; i < 100; i++ {
		api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(1)})
	}

	var stopErr error
	require.NoError(t, c.Stop(func(err error) { stopErr = err }))
	require.NoError(t, stopErr)

	events := drain()
	require.Equal(t, engine.Stopped, events[len(events)-1].Kind)
	// No Sent, since every value stays at 1 (never >= 3).
	require.Equal(t, 0, countKind(events, engine.Sent))
}

// Invariant 3: per-sensor idempotence.
func TestRepeatedEnterRangeFiresAtMostOnce(t *testing.T) {
	api := newFakeAPI()
	sink, drain := collect(t)
	c := engine.New()

	require.NoError(t, c.Start(api, singleConditionScript("s1"), sink))

	for i := 0; i < 5; i++ {
		api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(5)})
	}

	var stopErr error
	require.NoError(t, c.Stop(func(err error) { stopErr = err }))
	require.NoError(t, stopErr)

	events := drain()
	require.Equal(t, 1, countKind(events, engine.Sent))
}

// Invariant 4: removal shrinks truth, never raises it.
func TestGetterRemovedNeverRaisesTruth(t *testing.T) {
	api := newFakeAPI()
	sink, drain := collect(t)
	c := engine.New()

	require.NoError(t, c.Start(api, singleConditionScript("s1", "s2"), sink))

	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(5)})
	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.GetterRemoved, SensorID: "s1"})

	var stopErr error
	require.NoError(t, c.Stop(func(err error) { stopErr = err }))
	require.NoError(t, stopErr)

	events := drain()
	// Removing the only met sensor must not itself trigger another firing.
	require.Equal(t, 1, countKind(events, engine.Sent))
}

func TestStartTwiceIsAlreadyRunning(t *testing.T) {
	api := newFakeAPI()
	sink, _ := collect(t)
	c := engine.New()

	require.NoError(t, c.Start(api, singleConditionScript("s1"), sink))
	err := c.Start(api, singleConditionScript("s1"), sink)
	require.Error(t, err)
	require.True(t, engine.IsAlreadyRunning(err))

	require.NoError(t, c.Stop(func(error) {}))
}

func TestStopWithoutStartIsNotRunning(t *testing.T) {
	c := engine.New()
	err := c.Stop(func(error) {})
	require.Error(t, err)
	require.True(t, engine.IsNotRunning(err))
}

func TestCompileErrorSurfacedSynchronouslyAndAsStartingEvent(t *testing.T) {
	api := newFakeAPI()
	sink, drain := collect(t)
	c := engine.New()

	err := c.Start(api, ast.Script{}, sink)
	require.Error(t, err)

	events := drain()
	require.Len(t, events, 1)
	require.Equal(t, engine.Starting, events[0].Kind)
	require.Error(t, events[0].Result)
}

func TestSubscriptionInitFailureSurfacesChannelErrorAndContinues(t *testing.T) {
	api := newFakeAPI()
	api.watchErr["s2"] = errNoSuchSelector

	sink, drain := collect(t)
	c := engine.New()

	require.NoError(t, c.Start(api, singleConditionScript("s1", "s2"), sink))

	api.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(5)})

	var stopErr error
	require.NoError(t, c.Stop(func(err error) { stopErr = err }))
	require.NoError(t, stopErr)

	events := drain()
	require.GreaterOrEqual(t, countKind(events, engine.ChannelError), 1)
	require.Equal(t, 1, countKind(events, engine.Sent))
}
