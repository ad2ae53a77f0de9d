// Package lifecycle runs one upload attempt at a time: a scripted
// minimum-duration status animation next to the real submission, where the
// first failure wins and a success lets the animation play out.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dunamismax/memoryflow/internal/caption"
	"github.com/dunamismax/memoryflow/internal/domain"
	"github.com/dunamismax/memoryflow/internal/remote"
	"github.com/dunamismax/memoryflow/internal/ui"
	"github.com/google/uuid"
)

var ErrBusy = errors.New("an upload is already in progress")

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateAnimatingAndWaiting
	StateAnimatingOnly
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAnimatingAndWaiting:
		return "animating_and_waiting"
	case StateAnimatingOnly:
		return "animating_only"
	default:
		return "unknown"
	}
}

const dotVariants = 4

type Timings struct {
	DotsInterval time.Duration
	MinDuration  time.Duration
	SwapDelay    time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		DotsInterval: 500 * time.Millisecond,
		MinDuration:  5000 * time.Millisecond,
		SwapDelay:    700 * time.Millisecond,
	}
}

type Normalizer interface {
	Compress(ctx context.Context, source []byte, maxLongSide int) (domain.CompressedImage, error)
}

type Submitter interface {
	Submit(ctx context.Context, payload remote.Payload) (remote.Ack, error)
}

type Config struct {
	Timings     Timings
	MaxLongSide int
	Messages    ui.Messages
	Scheduler   Scheduler
}

// Request is what the user had on screen when they pressed upload.
type Request struct {
	Image   domain.ImageAsset
	Caption string
}

type Controller struct {
	logger     *log.Logger
	normalizer Normalizer
	submitter  Submitter
	presenter  ui.Presenter
	scheduler  Scheduler
	timings    Timings
	maxSide    int
	messages   ui.Messages
	now        func() time.Time

	mu       sync.Mutex
	busy     bool
	state    State
	attempt  *domain.UploadAttempt
	dotIndex int
	dots     *timer
	gate     *timer
	swap     *timer
	idle     chan struct{}
}

// timer identifies one scheduled callback. A callback only acts while its
// timer is still the one the controller holds.
type timer struct {
	stop func() bool
}

func NewController(logger *log.Logger, normalizer Normalizer, submitter Submitter, presenter ui.Presenter, cfg Config) *Controller {
	timings := cfg.Timings
	defaults := DefaultTimings()
	if timings.DotsInterval <= 0 {
		timings.DotsInterval = defaults.DotsInterval
	}
	if timings.MinDuration <= 0 {
		timings.MinDuration = defaults.MinDuration
	}
	if timings.SwapDelay <= 0 {
		timings.SwapDelay = defaults.SwapDelay
	}

	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = SystemScheduler()
	}

	maxSide := cfg.MaxLongSide
	if maxSide <= 0 {
		maxSide = domain.DefaultMaxLongSide
	}

	idle := make(chan struct{})
	close(idle)

	return &Controller{
		logger:     logger,
		normalizer: normalizer,
		submitter:  submitter,
		presenter:  presenter,
		scheduler:  scheduler,
		timings:    timings,
		maxSide:    maxSide,
		messages:   cfg.Messages.WithDefaults(),
		now:        time.Now,
		idle:       idle,
	}
}

// Run starts an attempt and blocks until the submission settles. The status
// animation keeps running after a successful return; WaitIdle observes its
// end. A nil error means the remote acknowledged the upload.
func (c *Controller) Run(ctx context.Context, req Request) error {
	if req.Image.Empty() {
		c.presenter.Prompt(c.messages.ChoosePhoto)
		return domain.ErrNoImageSelected
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	attempt := &domain.UploadAttempt{
		ID:        uuid.NewString(),
		Caption:   caption.Trim(req.Caption),
		Filename:  domain.OutputFilename(req.Image.Filename),
		StartedAt: c.now().UTC(),
	}
	c.busy = true
	c.attempt = attempt
	c.setStateLocked(StateSubmitting)
	c.cancelAllLocked()
	c.presenter.SetFade(ui.FadeNone)
	c.presenter.ShowStep(ui.StepUploading)
	c.startAnimationLocked()
	c.setStateLocked(StateAnimatingAndWaiting)
	c.mu.Unlock()

	c.logger.Printf("upload started attempt_id=%s filename=%s source_bytes=%d", attempt.ID, attempt.Filename, len(req.Image.Data))

	ack, err := c.submit(ctx, attempt, req.Image.Data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.attempt == attempt {
		c.attempt = nil
	}
	if err != nil {
		c.failLocked(err)
		c.logger.Printf("upload failed attempt_id=%s elapsed=%s err=%v", attempt.ID, c.now().Sub(attempt.StartedAt).Round(time.Millisecond), err)
		return err
	}

	c.logger.Printf("upload acknowledged attempt_id=%s remote_id=%s elapsed=%s", attempt.ID, ack.ID, c.now().Sub(attempt.StartedAt).Round(time.Millisecond))
	if c.animatingLocked() {
		c.setStateLocked(StateAnimatingOnly)
	} else {
		c.setStateLocked(StateIdle)
	}
	return nil
}

func (c *Controller) submit(ctx context.Context, attempt *domain.UploadAttempt, source []byte) (remote.Ack, error) {
	compressed, err := c.normalizer.Compress(ctx, source, c.maxSide)
	if err != nil {
		return remote.Ack{}, fmt.Errorf("normalize image: %w", err)
	}
	attempt.Image = compressed

	ack, err := c.submitter.Submit(ctx, remote.Payload{
		Filename:    attempt.Filename,
		ContentType: compressed.ContentType,
		Data:        compressed.Data,
		Caption:     attempt.Caption,
	})
	attempt.Image = domain.CompressedImage{}
	if err != nil {
		return ack, fmt.Errorf("submit upload: %w", err)
	}
	return ack, nil
}

func (c *Controller) startAnimationLocked() {
	c.dotIndex = 0
	c.presenter.SetStatus(c.messages.Pending)

	dots := &timer{}
	dots.stop = c.scheduler.Every(c.timings.DotsInterval, func() { c.tickDots(dots) })
	c.dots = dots

	gate := &timer{}
	gate.stop = c.scheduler.AfterFunc(c.timings.MinDuration, func() { c.openGate(gate) })
	c.gate = gate
}

func (c *Controller) tickDots(t *timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dots != t {
		return
	}
	c.dotIndex = (c.dotIndex + 1) % dotVariants
	c.presenter.SetStatus(c.messages.Pending + "..."[:c.dotIndex])
}

func (c *Controller) openGate(t *timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gate != t {
		return
	}
	c.gate = nil
	cancel(&c.dots)
	c.presenter.SetFade(ui.FadeOut)

	swap := &timer{}
	swap.stop = c.scheduler.AfterFunc(c.timings.SwapDelay, func() { c.swapText(swap) })
	c.swap = swap
}

func (c *Controller) swapText(t *timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.swap != t {
		return
	}
	c.swap = nil
	c.presenter.SetStatus(c.messages.Received)
	c.presenter.SetFade(ui.FadeIn)
	if !c.busy {
		c.setStateLocked(StateIdle)
	}
}

// failLocked preempts the animation wherever it is.
func (c *Controller) failLocked(err error) {
	c.cancelAllLocked()
	c.presenter.SetFade(ui.FadeNone)
	c.presenter.SetStatus(c.messages.Failed + "\n" + errorDetail(err))
	c.setStateLocked(StateIdle)
}

func (c *Controller) cancelAllLocked() {
	cancel(&c.dots)
	cancel(&c.gate)
	cancel(&c.swap)
}

func cancel(t **timer) {
	if *t == nil {
		return
	}
	(*t).stop()
	*t = nil
}

func (c *Controller) animatingLocked() bool {
	return c.dots != nil || c.gate != nil || c.swap != nil
}

func (c *Controller) setStateLocked(s State) {
	if s == c.state {
		return
	}
	if c.state == StateIdle {
		c.idle = make(chan struct{})
	}
	c.state = s
	if s == StateIdle {
		close(c.idle)
	}
}

// Stop cancels the status animation. An in-flight submission still settles
// through Run; Stop only keeps timers from touching a presenter that is gone.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelAllLocked()
	if !c.busy {
		c.setStateLocked(StateIdle)
	}
}

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingTimers reports how many of the three lifecycle timers are armed.
func (c *Controller) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range []*timer{c.dots, c.gate, c.swap} {
		if t != nil {
			n++
		}
	}
	return n
}

// WaitIdle blocks until neither a submission nor the status animation is
// running.
func (c *Controller) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// errorDetail drops the wrapping context added inside the controller so the
// user sees the cause, e.g. the server's own message.
func errorDetail(err error) string {
	var rejected *remote.RemoteRejectedError
	if errors.As(err, &rejected) {
		return rejected.Error()
	}
	var decodeErr *domain.DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Error()
	}
	var encodeErr *domain.EncodeError
	if errors.As(err, &encodeErr) {
		return encodeErr.Error()
	}
	var netErr *remote.NetworkError
	if errors.As(err, &netErr) {
		return netErr.Error()
	}
	return err.Error()
}
