package simulator_test

import (
	"testing"
	"time"

	"github.com/hearthbox/rulehub/internal/deviceapi"
	"github.com/hearthbox/rulehub/internal/simulator"
	"github.com/hearthbox/rulehub/internal/values"
	"github.com/stretchr/testify/require"
)

func TestWatchValuesDeliversEmittedEvents(t *testing.T) {
	sim := simulator.New()
	var got []deviceapi.WatchEvent

	guard, err := sim.WatchValues(
		[]deviceapi.Subscription{{Selectors: []string{"s1"}, Kind: values.KindNumber}},
		func(_ deviceapi.Subscription, ev deviceapi.WatchEvent) { got = append(got, ev) },
	)
	require.NoError(t, err)

	sim.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(5)})
	require.Len(t, got, 1)

	require.NoError(t, guard.Close())
	sim.Emit("s1", deviceapi.WatchEvent{Kind: deviceapi.EnterRange, SensorID: "s1", Value: values.Number(6)})
	require.Len(t, got, 1, "no events should arrive after the guard is closed")
}

func TestSendValuesRecordsHistoryAndHonorsFailures(t *testing.T) {
	sim := simulator.New()
	sim.FailActuator("a2", errBoom)

	results := sim.SendValues([]deviceapi.SendPair{
		{Selectors: []string{"a1", "a2"}, Value: values.Number(1)},
	})
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, errBoom)
	require.Len(t, sim.SentHistory(), 1)
}

func TestPlayReplaysInstructionsInOrder(t *testing.T) {
	sim := simulator.New()
	var got []deviceapi.WatchEvent
	_, err := sim.WatchValues(
		[]deviceapi.Subscription{{Selectors: []string{"s1"}, Kind: values.KindNumber}},
		func(_ deviceapi.Subscription, ev deviceapi.WatchEvent) { got = append(got, ev) },
	)
	require.NoError(t, err)

	data := []byte(`[
		{"after_ms": 0, "sensor": "s1", "op": "added"},
		{"after_ms": 0, "sensor": "s1", "op": "enter", "value": 4}
	]`)
	instructions, err := simulator.LoadInstructions(data)
	require.NoError(t, err)
	require.NoError(t, simulator.Play(sim, instructions, 0*time.Millisecond))

	require.Len(t, got, 2)
	require.Equal(t, deviceapi.GetterAdded, got[0].Kind)
	require.Equal(t, deviceapi.EnterRange, got[1].Kind)
	require.Equal(t, values.Number(4), got[1].Value)
}

var errBoom = &simulatedError{"boom"}

type simulatedError struct{ msg string }

func (e *simulatedError) Error() string { return e.msg }
