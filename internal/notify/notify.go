// Package notify reports user-facing outcomes such as warnings and authoring
// errors back to the participant who started an operation.
package notify

//go:generate mockgen -destination=mock/mock.go -package=mocknotify -source=notify.go

import (
	"context"
	"log/slog"
	"sync"
)

// Level is the severity shown to the user
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notifier delivers a message to a participant
type Notifier interface {
	Notify(ctx context.Context, participantID string, level Level, message string)
}

// SlogNotifier writes notifications to a structured logger
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier returns a notifier that logs; a nil logger uses slog.Default
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Notify(ctx context.Context, participantID string, level Level, message string) {
	lvl := slog.LevelInfo
	switch level {
	case LevelWarn:
		lvl = slog.LevelWarn
	case LevelError:
		lvl = slog.LevelError
	}
	n.logger.Log(ctx, lvl, message, "participant", participantID, "notification", true)
}

// Notification is a recorded message
type Notification struct {
	ParticipantID string
	Level         Level
	Message       string
}

// Recorder keeps notifications in memory, used by the formula CLI and tests
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(ctx context.Context, participantID string, level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{
		ParticipantID: participantID,
		Level:         level,
		Message:       message,
	})
}

// All returns a copy of the recorded notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// Count returns how many notifications at level were recorded
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, note := range r.notifications {
		if note.Level == level {
			n++
		}
	}
	return n
}
