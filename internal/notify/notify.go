// Package notify carries user-facing notifications out of the client
// operations. Implementations must not call back into the caller.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

type Notifier interface {
	Success(msg string)
	Error(msg string)
	Loading(msg string)
	// Dismiss clears any pending loading notification.
	Dismiss()
}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Success(msg string) { n.log.Info().Str("kind", string(KindSuccess)).Msg(msg) }
func (n *LogNotifier) Error(msg string)   { n.log.Error().Str("kind", string(KindError)).Msg(msg) }
func (n *LogNotifier) Loading(msg string) { n.log.Info().Str("kind", string(KindLoading)).Msg(msg) }
func (n *LogNotifier) Dismiss()           {}

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindLoading Kind = "loading"
	KindDismiss Kind = "dismiss"
)

type Entry struct {
	Kind    Kind
	Message string
}

// Recorder captures notifications in order.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Success(msg string) { r.add(KindSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(KindError, msg) }
func (r *Recorder) Loading(msg string) { r.add(KindLoading, msg) }
func (r *Recorder) Dismiss()           { r.add(KindDismiss, "") }

func (r *Recorder) add(kind Kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Kind: kind, Message: msg})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Messages returns the messages recorded with the given kind.
func (r *Recorder) Messages(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e.Message)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
