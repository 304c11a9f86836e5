// Package result follows a single generation project until its artifacts
// settle: a not-found tolerant fetch, a cancelable poller armed while the
// project is generating, and the synchronous video trigger.
package result

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"ugc-studio/internal/apiclient"
	"ugc-studio/internal/models"
	"ugc-studio/internal/notify"
)

var (
	// ErrNoImage is returned by GenerateVideo before an image exists.
	ErrNoImage     = errors.New("please wait for image to generate first")
	ErrNotSignedIn = errors.New("not signed in")
	ErrClosed      = errors.New("view closed")
)

const (
	msgImageReady   = "Image generated successfully!"
	msgVideoStart   = "Starting video generation..."
	msgVideoReady   = "Video generated successfully!"
	msgWaitForImage = "Please wait for image to generate first"
	msgTooLong      = "Generation is taking longer than expected"
)

// ProjectAPI is the backend surface a View reads and triggers.
type ProjectAPI interface {
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	GenerateVideo(ctx context.Context, projectID string) (string, error)
}

// State is a snapshot of a View.
type State struct {
	Project    models.Project
	Loading    bool
	Generating bool
	Polling    bool
}

// Option configures a View.
type Option func(*View)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(v *View) { v.clock = c }
}

// WithSchedule overrides DefaultSchedule.
func WithSchedule(s Schedule) Option {
	return func(v *View) { v.schedule = s }
}

// WithLogger sets the logger. The default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(v *View) { v.log = log }
}

// WithSignedIn sets the initial session state. Views start signed in.
func WithSignedIn(ok bool) Option {
	return func(v *View) { v.signedIn = ok }
}

// View holds the state of one project as last reported by the API.
// Notifications are emitted while the view's lock is held.
type View struct {
	api      ProjectAPI
	notifier notify.Notifier
	clock    Clock
	schedule Schedule
	log      zerolog.Logger

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	signedIn   bool
	id         string
	project    models.Project
	loading    bool
	generating bool
	videoBusy  bool
	cancelled  bool
	closed     bool
	load       *timerGroup
	poll       *poller
	shownImage string
	shownError string
	idle       chan struct{}
}

type poller struct {
	id      string
	timers  *timerGroup
	expired bool
}

// NewView returns an empty View. Call Open to show a project.
func NewView(api ProjectAPI, notifier notify.Notifier, opts ...Option) *View {
	v := &View{
		api:      api,
		notifier: notifier,
		clock:    realClock{},
		schedule: DefaultSchedule(),
		log:      zerolog.Nop(),
		signedIn: true,
		load:     newTimerGroup(),
		idle:     make(chan struct{}),
	}
	close(v.idle)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Open starts following projectID. ctx bounds every request the view makes.
// Opening another id discards the previous project's state and timers.
func (v *View) Open(ctx context.Context, projectID string) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if !v.signedIn {
		v.mu.Unlock()
		return ErrNotSignedIn
	}

	v.load.stop()
	v.load = newTimerGroup()
	v.stopPollLocked()
	if v.cancel != nil {
		v.cancel()
	}
	v.ctx, v.cancel = context.WithCancel(ctx)

	v.id = projectID
	v.project = models.Project{}
	v.loading = true
	v.generating = false
	v.cancelled = false
	v.shownImage = ""
	v.shownError = ""
	v.updateIdleLocked()
	g := v.load
	v.mu.Unlock()

	v.fetch(g, 0)
	return nil
}

// Fetch re-reads the project outside the poll schedule, with the given
// attempt counter.
func (v *View) Fetch(attempt int) {
	v.mu.Lock()
	g := v.load
	v.mu.Unlock()
	v.fetch(g, attempt)
}

func (v *View) fetch(g *timerGroup, attempt int) {
	v.mu.Lock()
	if v.closed || g.stopped || v.id == "" {
		v.mu.Unlock()
		return
	}
	ctx, id := v.ctx, v.id
	v.mu.Unlock()

	v.log.Debug().Str("project_id", id).Int("attempt", attempt).Msg("fetching project")
	project, err := v.api.GetProject(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || ctx.Err() != nil || id != v.id {
		return
	}

	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) && attempt < v.schedule.MaxRetries {
			v.log.Debug().Str("project_id", id).Int("attempt", attempt+1).Msg("project not visible yet, retrying")
			v.afterLocked(g, v.schedule.RetryDelay, func() { v.fetch(g, attempt+1) })
			return
		}
		v.notifier.Error(err.Error())
		v.loading = false
		v.reconcileLocked()
		return
	}

	v.applyLocked(*project, attempt)
}

func (v *View) applyLocked(p models.Project, attempt int) {
	v.project = p
	v.generating = p.IsGenerating
	v.loading = false

	if !p.IsGenerating && p.HasImage() && attempt == 0 && p.GeneratedImage != v.shownImage {
		v.shownImage = p.GeneratedImage
		v.notifier.Success(msgImageReady)
	}

	if p.Failed() {
		v.generating = false
		if p.Error != v.shownError {
			v.shownError = p.Error
			v.notifier.Error("Generation failed: " + p.Error)
		}
	} else {
		// A cleared error ends the occurrence; the same text may fail again.
		v.shownError = ""
	}

	v.reconcileLocked()
}

// reconcileLocked arms the poller when it should run and is not running for
// the current project, and disarms it when it should not run.
func (v *View) reconcileLocked() {
	active := !v.closed && !v.cancelled && v.signedIn && !v.loading && v.generating && v.project.ID != ""
	switch {
	case !active:
		v.stopPollLocked()
	case v.poll == nil || v.poll.id != v.project.ID:
		v.stopPollLocked()
		v.armLocked()
	}
	v.updateIdleLocked()
}

func (v *View) armLocked() {
	p := &poller{id: v.project.ID, timers: newTimerGroup()}
	v.poll = p
	v.log.Debug().Str("project_id", p.id).Msg("poller armed")

	for _, d := range v.schedule.InitialChecks {
		v.afterLocked(p.timers, d, func() { v.fetch(p.timers, 0) })
	}
	if v.schedule.MaxDuration > 0 {
		v.afterLocked(p.timers, v.schedule.MaxDuration, func() { v.expire(p) })
	}
	if v.schedule.Interval > 0 {
		v.tickLocked(p)
	}
}

func (v *View) tickLocked(p *poller) {
	v.afterLocked(p.timers, v.schedule.Interval, func() {
		v.mu.Lock()
		v.tickLocked(p)
		v.mu.Unlock()
		v.fetch(p.timers, 0)
	})
}

func (v *View) expire(p *poller) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.poll != p || p.expired {
		return
	}
	p.expired = true
	p.timers.stop()
	v.log.Warn().Str("project_id", p.id).Dur("max_duration", v.schedule.MaxDuration).Msg("poller expired")
	v.notifier.Error(msgTooLong)
	v.updateIdleLocked()
}

func (v *View) stopPollLocked() {
	if v.poll == nil {
		return
	}
	v.poll.timers.stop()
	v.log.Debug().Str("project_id", v.poll.id).Msg("poller disarmed")
	v.poll = nil
}

// afterLocked schedules f on the clock as a member of g. Stopped groups
// never fire.
func (v *View) afterLocked(g *timerGroup, d time.Duration, f func()) {
	if g.stopped {
		return
	}
	id := g.next
	g.next++
	g.timers[id] = v.clock.AfterFunc(d, func() {
		v.mu.Lock()
		if g.stopped {
			v.mu.Unlock()
			return
		}
		delete(g.timers, id)
		v.mu.Unlock()
		f()
	})
}

func (v *View) updateIdleLocked() {
	busy := !v.closed && (v.loading || v.videoBusy || (v.poll != nil && !v.poll.expired))
	select {
	case <-v.idle:
		if busy {
			v.idle = make(chan struct{})
		}
	default:
		if !busy {
			close(v.idle)
		}
	}
}

// GenerateVideo animates the current project's image. The request is
// rejected without a network call when no image exists yet.
func (v *View) GenerateVideo(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if !v.signedIn {
		v.mu.Unlock()
		return ErrNotSignedIn
	}
	if !v.project.HasImage() {
		v.notifier.Error(msgWaitForImage)
		v.mu.Unlock()
		return ErrNoImage
	}
	id := v.project.ID
	v.generating = true
	v.videoBusy = true
	v.notifier.Loading(msgVideoStart)
	v.reconcileLocked()
	v.mu.Unlock()

	videoURL, err := v.api.GenerateVideo(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.videoBusy = false
	v.generating = false
	if v.closed {
		return err
	}

	v.notifier.Dismiss()
	if err != nil {
		v.notifier.Error(err.Error())
		v.reconcileLocked()
		return err
	}

	if v.project.ID == id {
		v.project.GeneratedVideo = videoURL
		v.project.IsGenerating = false
	}
	v.notifier.Success(msgVideoReady)
	v.reconcileLocked()
	return nil
}

// SignIn resumes fetching and polling for the open project.
func (v *View) SignIn() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.signedIn = true
	v.reconcileLocked()
}

// SignOut stops fetching and polling until SignIn.
func (v *View) SignOut() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.signedIn = false
	v.reconcileLocked()
}

// CancelPolling stops all pending checks for projectID, typically because
// the project was deleted.
func (v *View) CancelPolling(projectID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.id != projectID {
		return
	}
	v.cancelled = true
	v.load.stop()
	v.reconcileLocked()
}

// Close cancels in-flight requests and stops every timer. It is idempotent.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.load.stop()
	v.stopPollLocked()
	if v.cancel != nil {
		v.cancel()
	}
	v.updateIdleLocked()
}

// State returns a copy of the current view state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.project
	p.UploadedImages = append([]string(nil), v.project.UploadedImages...)
	return State{
		Project:    p,
		Loading:    v.loading,
		Generating: v.generating,
		Polling:    v.poll != nil && !v.poll.expired,
	}
}

// WaitIdle blocks until nothing is loading, polling or generating a video.
func (v *View) WaitIdle(ctx context.Context) error {
	v.mu.Lock()
	ch := v.idle
	v.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
