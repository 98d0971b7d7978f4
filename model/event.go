package model

type EventType string

const (
	NoteOn  EventType = "noteOn"
	NoteOff EventType = "noteOff"
)

// NoteEvent is a performance event as delivered by an input device.
// Timestamp is in milliseconds unless a caller says otherwise.
type NoteEvent struct {
	Type      EventType `json:"type"`
	Pitch     int       `json:"pitch"`
	Timestamp float64   `json:"timestamp"`
}

type LatencyConfig struct {
	Enabled     bool    `json:"enabled"`
	OffsetMs    float64 `json:"offsetMs"`
	MinOffsetMs float64 `json:"minOffsetMs"`
	MaxOffsetMs float64 `json:"maxOffsetMs"`
}
