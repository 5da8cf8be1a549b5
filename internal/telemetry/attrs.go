package telemetry

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// SequenceSpan covers one sequence from Start to Cancel.
const SequenceSpan = "tribute.sequence"

// Events on the sequence span.
const (
	EventAudioBlocked = "audio_blocked"
	EventFinale       = "finale"
	EventCompleted    = "completed"
)

const (
	HostKey   = attribute.Key("tribute.host")
	ScriptKey = attribute.Key("tribute.script")
	SeedKey   = attribute.Key("tribute.seed")

	SequenceIDKey       = attribute.Key("tribute.sequence.id")
	TracksKey           = attribute.Key("tribute.tracks")
	StepsKey            = attribute.Key("tribute.steps")
	TotalDurationKey    = attribute.Key("tribute.total_duration_ms")
	CancelOffsetKey     = attribute.Key("tribute.cancel_offset_ms")
	CancelledHandlesKey = attribute.Key("tribute.cancelled_handles")
	ErrorKey            = attribute.Key("error")
)

// Millis records d in whole milliseconds under k.
func Millis(k attribute.Key, d time.Duration) attribute.KeyValue {
	return k.Int64(d.Milliseconds())
}
