// Package events models progress signalling for long-running
// ingestion and retrieval operations. Observers receive a stream of
// phase-tagged events; they are purely informational and must never
// influence chunking or indexing results.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grounded-labs/grounder/internal/logger"
)

// Phase marks which stage of the pipeline an event belongs to.
type Phase string

// Pipeline phases.
const (
	PhaseSession    Phase = "session"
	PhaseIngestion  Phase = "ingestion"
	PhaseExtraction Phase = "extraction"
	PhaseChunking   Phase = "chunking"
	PhaseEmbedding  Phase = "embedding"
	PhaseStorage    Phase = "storage"
	PhaseRetrieval  Phase = "retrieval"
	PhaseGeneration Phase = "generation"
	PhaseComplete   Phase = "complete"
	PhaseSystem     Phase = "system"
)

// Type classifies the severity of an event.
type Type string

// Event types.
const (
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeSuccess Type = "success"
)

// Event is one progress notification.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Phase is the pipeline stage the event belongs to.
	Phase Phase `json:"phase"`

	// Type is the severity.
	Type Type `json:"type"`

	// Timestamp is the emission time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Progress is an optional completion fraction in [0,1].
	// Negative when not applicable.
	Progress float64 `json:"progress,omitempty"`
}

// Observer receives progress events. Implementations must be fast and
// must not block; slow consumers should buffer internally.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnEvent calls f(e).
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Broadcaster fans events out to registered observers.
// The zero value is usable and drops all events.
type Broadcaster struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers an observer for all subsequent events.
func (b *Broadcaster) Subscribe(o Observer) {
	if o == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Emit builds an event and delivers it to every observer.
// A panicking observer is isolated so it cannot abort the operation
// that emitted the event.
func (b *Broadcaster) Emit(phase Phase, typ Type, message string) {
	b.emit(Event{
		ID:        uuid.New().String(),
		Message:   message,
		Phase:     phase,
		Type:      typ,
		Timestamp: time.Now().UnixMilli(),
		Progress:  -1,
	})
}

// EmitProgress is Emit with a completion fraction attached.
func (b *Broadcaster) EmitProgress(phase Phase, message string, progress float64) {
	b.emit(Event{
		ID:        uuid.New().String(),
		Message:   message,
		Phase:     phase,
		Type:      TypeInfo,
		Timestamp: time.Now().UnixMilli(),
		Progress:  progress,
	})
}

func (b *Broadcaster) emit(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.RUnlock()

	for _, o := range observers {
		deliver(o, e)
	}
}

func deliver(o Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("event observer panicked: %v", r)
		}
	}()
	o.OnEvent(e)
}

// LogObserver returns an observer that forwards events to the verbose
// logger, matching each event type to a log level.
func LogObserver() Observer {
	return ObserverFunc(func(e Event) {
		switch e.Type {
		case TypeWarning:
			logger.Warn("[%s] %s", e.Phase, e.Message)
		case TypeError:
			logger.Warn("[%s] %s", e.Phase, e.Message)
		default:
			logger.Info("[%s] %s", e.Phase, e.Message)
		}
	})
}
