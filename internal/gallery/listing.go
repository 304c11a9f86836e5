// Package gallery keeps a local copy of a project listing in step with the
// publish and delete actions applied to it.
package gallery

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"ugc-studio/internal/models"
	"ugc-studio/internal/notify"
)

// ErrNotConfirmed is returned by Delete when the user declines.
var ErrNotConfirmed = errors.New("delete not confirmed")

const deletePrompt = "Are you sure you want to delete this project?"

// ProjectsAPI is the backend surface a Listing uses.
type ProjectsAPI interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListPublished(ctx context.Context) ([]models.Project, error)
	TogglePublish(ctx context.Context, projectID string) (bool, error)
	DeleteProject(ctx context.Context, projectID string) (string, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// PollCanceler is told when a project is deleted so it can stop following it.
type PollCanceler interface {
	CancelPolling(projectID string)
}

// Option configures a Listing.
type Option func(*Listing)

// WithPollCanceler registers c to be told about deleted projects.
func WithPollCanceler(c PollCanceler) Option {
	return func(l *Listing) { l.cancelers = append(l.cancelers, c) }
}

// WithLogger sets the logger. The default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Listing) { l.log = log }
}

// Listing holds a user's or the public gallery's projects and applies
// publish and delete actions to it.
type Listing struct {
	api       ProjectsAPI
	notifier  notify.Notifier
	confirm   Confirmer
	cancelers []PollCanceler
	log       zerolog.Logger

	mu       sync.Mutex
	projects []models.Project
}

// NewListing returns an empty Listing.
func NewListing(api ProjectsAPI, notifier notify.Notifier, confirm Confirmer, opts ...Option) *Listing {
	l := &Listing{
		api:      api,
		notifier: notifier,
		confirm:  confirm,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the listing with the caller's own projects.
func (l *Listing) Load(ctx context.Context) error {
	return l.load(ctx, l.api.ListProjects)
}

// LoadCommunity replaces the listing with every published project.
func (l *Listing) LoadCommunity(ctx context.Context) error {
	return l.load(ctx, l.api.ListPublished)
}

func (l *Listing) load(ctx context.Context, list func(context.Context) ([]models.Project, error)) error {
	projects, err := list(ctx)
	if err != nil {
		l.notifier.Error(err.Error())
		return err
	}
	l.Set(projects)
	return nil
}

// Set replaces the held projects.
func (l *Listing) Set(projects []models.Project) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.projects = append([]models.Project(nil), projects...)
}

// Projects returns a copy of the held projects.
func (l *Listing) Projects() []models.Project {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Project(nil), l.projects...)
}

// TogglePublish flips publication on the server and copies the new value
// into the matching entry only.
func (l *Listing) TogglePublish(ctx context.Context, projectID string) error {
	published, err := l.api.TogglePublish(ctx, projectID)
	if err != nil {
		l.log.Error().Err(err).Str("project_id", projectID).Msg("toggle publish failed")
		l.notifier.Error(err.Error())
		return err
	}

	l.mu.Lock()
	for i := range l.projects {
		if l.projects[i].ID == projectID {
			l.projects[i].IsPublished = published
		}
	}
	l.mu.Unlock()

	if published {
		l.notifier.Success("Project published")
	} else {
		l.notifier.Success("Project unpublished")
	}
	return nil
}

// Delete asks for confirmation, deletes on the server, then drops the
// entry locally and stops any poll following it.
func (l *Listing) Delete(ctx context.Context, projectID string) error {
	if !l.confirm.Confirm(deletePrompt) {
		return ErrNotConfirmed
	}

	msg, err := l.api.DeleteProject(ctx, projectID)
	if err != nil {
		l.log.Error().Err(err).Str("project_id", projectID).Msg("delete project failed")
		l.notifier.Error(err.Error())
		return err
	}

	l.mu.Lock()
	kept := l.projects[:0]
	for _, p := range l.projects {
		if p.ID != projectID {
			kept = append(kept, p)
		}
	}
	l.projects = kept
	l.mu.Unlock()

	for _, c := range l.cancelers {
		c.CancelPolling(projectID)
	}
	l.notifier.Success(msg)
	return nil
}
