package pipeline

import (
	"encoding/json"
	"fmt"
)

// EventKind distinguishes the events of a run.
type EventKind string

const (
	EventLifecycle EventKind = "lifecycle"
	EventSnapshot  EventKind = "snapshot"
	EventFinal     EventKind = "final"
	EventError     EventKind = "error"
)

// Wire names used for event framing.
const (
	NameCustom = "custom"
	NameFinal  = "final"
	NameError  = "error"
)

// ChunkType tags the payload of a custom event.
type ChunkType string

const (
	ChunkNodeUpdate ChunkType = "node_update"
	ChunkStructured ChunkType = "structured"
)

// LifecycleStatus is the status carried by a lifecycle event.
type LifecycleStatus string

const (
	StatusStarted   LifecycleStatus = "started"
	StatusCompleted LifecycleStatus = "completed"
)

// Chunk is the payload of lifecycle and snapshot events.
type Chunk struct {
	ChunkType ChunkType `json:"chunk_type"`
	Stage     Stage     `json:"stage"`
	Data      any       `json:"data"`
}

// StatusData is the data of a lifecycle chunk.
type StatusData struct {
	Status LifecycleStatus `json:"status"`
}

// ErrorPayload is the payload of an error event.
type ErrorPayload struct {
	Stage Stage  `json:"stage"`
	Error string `json:"error"`
}

// Event is one entry of a run's event stream. Payload is one of Chunk,
// Projection or ErrorPayload depending on Kind.
type Event struct {
	Kind    EventKind
	Stage   Stage
	Payload any
}

// EmitFunc receives events in order. Returning an error aborts the run.
type EmitFunc func(Event) error

func lifecycleEvent(stage Stage, status LifecycleStatus) Event {
	return Event{
		Kind:  EventLifecycle,
		Stage: stage,
		Payload: Chunk{
			ChunkType: ChunkNodeUpdate,
			Stage:     stage,
			Data:      StatusData{Status: status},
		},
	}
}

func snapshotEvent(stage Stage, data json.RawMessage) Event {
	return Event{
		Kind:  EventSnapshot,
		Stage: stage,
		Payload: Chunk{
			ChunkType: ChunkStructured,
			Stage:     stage,
			Data:      data,
		},
	}
}

func finalEvent(state *RunState) Event {
	return Event{Kind: EventFinal, Payload: state.Projection()}
}

func errorEvent(stage Stage, err error) Event {
	return Event{
		Kind:    EventError,
		Stage:   stage,
		Payload: ErrorPayload{Stage: stage, Error: err.Error()},
	}
}

// Name returns the wire event name: custom, final or error.
func (e Event) Name() string {
	switch e.Kind {
	case EventFinal:
		return NameFinal
	case EventError:
		return NameError
	default:
		return NameCustom
	}
}

// MarshalJSON encodes the event as {"event": name, "data": payload}.
func (e Event) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Kind, err)
	}
	return json.Marshal(struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}{Event: e.Name(), Data: data})
}
