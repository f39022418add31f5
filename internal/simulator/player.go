package simulator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearthbox/rulehub/internal/deviceapi"
	"github.com/hearthbox/rulehub/internal/values"
)

// Op names an instruction's watch-event kind in the events fixture file.
type Op string

const (
	OpAdded   Op = "added"
	OpRemoved Op = "removed"
	OpEnter   Op = "enter"
	OpExit    Op = "exit"
	OpError   Op = "error"
)

// Instruction is one entry of an events fixture file: after waiting
// AfterMS (scaled by the player's slowdown factor), deliver the described
// WatchEvent for Sensor.
type Instruction struct {
	AfterMS int             `json:"after_ms"`
	Sensor  string          `json:"sensor"`
	Op      Op              `json:"op"`
	Value   json.RawMessage `json:"value,omitempty"`
	Channel string          `json:"channel,omitempty"`
	Message string          `json:"message,omitempty"`
}

// LoadInstructions decodes an events fixture file: a JSON array of
// Instruction objects.
func LoadInstructions(data []byte) ([]Instruction, error) {
	var out []Instruction
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("simulator: decode instructions: %w", err)
	}
	return out, nil
}

// Play replays instructions against sim in order, sleeping AfterMS*slowdown
// between each (slowdown of 0 disables the delay entirely, for fast
// tests). Play returns once every instruction has been emitted.
func Play(sim *Simulator, instructions []Instruction, slowdown time.Duration) error {
	for i, ins := range instructions {
		if slowdown > 0 && ins.AfterMS > 0 {
			time.Sleep(time.Duration(ins.AfterMS) * slowdown)
		}

		ev, err := toWatchEvent(ins)
		if err != nil {
			return fmt.Errorf("simulator: instruction %d: %w", i, err)
		}
		sim.Emit(ins.Sensor, ev)
	}
	return nil
}

func toWatchEvent(ins Instruction) (deviceapi.WatchEvent, error) {
	switch ins.Op {
	case OpAdded:
		return deviceapi.WatchEvent{Kind: deviceapi.GetterAdded, SensorID: ins.Sensor}, nil
	case OpRemoved:
		return deviceapi.WatchEvent{Kind: deviceapi.GetterRemoved, SensorID: ins.Sensor}, nil
	case OpEnter, OpExit:
		var raw any
		if err := json.Unmarshal(ins.Value, &raw); err != nil {
			return deviceapi.WatchEvent{}, fmt.Errorf("decode value: %w", err)
		}
		v, err := values.FromAny(raw)
		if err != nil {
			return deviceapi.WatchEvent{}, err
		}
		kind := deviceapi.EnterRange
		if ins.Op == OpExit {
			kind = deviceapi.ExitRange
		}
		return deviceapi.WatchEvent{Kind: kind, SensorID: ins.Sensor, Value: v}, nil
	case OpError:
		return deviceapi.WatchEvent{
			Kind:    deviceapi.InitializationError,
			Channel: ins.Channel,
			Err:     fmt.Errorf("%s", ins.Message),
		}, nil
	default:
		return deviceapi.WatchEvent{}, fmt.Errorf("unknown op %q", ins.Op)
	}
}
