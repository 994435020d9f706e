package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepsParsed EventType = "steps_parsed"
	EventFileWritten EventType = "file_written"
	EventStepSkipped EventType = "step_skipped"
	EventMounted     EventType = "mounted"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ProjectID string    `json:"project_id,omitempty"`
}

// ParseEvent reports the outcome of one parse call.
type ParseEvent struct {
	EventBase
	Steps    int  `json:"steps"`
	Fallback bool `json:"fallback"`
}

// FileEvent reports a file node written by the materializer.
type FileEvent struct {
	EventBase
	Path      string `json:"path"`
	Overwrite bool   `json:"overwrite"`
	Bytes     int    `json:"bytes"`
}

// SkipEvent reports a CreateFile step that could not be applied.
type SkipEvent struct {
	EventBase
	StepIndex int    `json:"step_index"`
	Path      string `json:"path"`
	Reason    string `json:"reason"`
}

// MountEvent reports a descriptor handed to the sandbox.
type MountEvent struct {
	EventBase
	Entries int   `json:"entries"`
	Err     error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepsParsed func(context.Context, *ParseEvent)
	OnFileWritten func(context.Context, *FileEvent)
	OnStepSkipped func(context.Context, *SkipEvent)
	OnMounted     func(context.Context, *MountEvent)
}
