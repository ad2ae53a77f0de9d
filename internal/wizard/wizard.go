// Package wizard walks a user through pick, caption, preview and upload.
package wizard

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/dunamismax/memoryflow/internal/caption"
	"github.com/dunamismax/memoryflow/internal/domain"
	"github.com/dunamismax/memoryflow/internal/lifecycle"
	"github.com/dunamismax/memoryflow/internal/ui"
)

type File struct {
	Name string
	Data []byte
}

type Uploader interface {
	Run(ctx context.Context, req lifecycle.Request) error
}

type Wizard struct {
	logger    *log.Logger
	presenter ui.Presenter
	uploader  Uploader
	messages  ui.Messages

	mu      sync.Mutex
	photo   domain.ImageAsset
	caption string
	step    ui.Step
}

func New(logger *log.Logger, presenter ui.Presenter, uploader Uploader, messages ui.Messages) *Wizard {
	return &Wizard{
		logger:    logger,
		presenter: presenter,
		uploader:  uploader,
		messages:  messages.WithDefaults(),
		step:      ui.StepPick,
	}
}

// Start shows the first step.
func (w *Wizard) Start() {
	w.showStep(ui.StepPick)
}

// SelectPhoto records the picked file and moves on to the caption step.
// An empty selection (the picker was dismissed) changes nothing.
func (w *Wizard) SelectPhoto(f File) {
	if len(f.Data) == 0 {
		return
	}

	w.mu.Lock()
	w.photo = domain.ImageAsset{Filename: f.Name, Data: f.Data}
	w.mu.Unlock()

	w.logger.Printf("photo selected filename=%s bytes=%d", f.Name, len(f.Data))
	w.presenter.SetPreviewImage(f.Name, f.Data)
	w.showStep(ui.StepCaption)
}

// EditCaption applies the caption limit to the full current text and
// returns what was kept.
func (w *Wizard) EditCaption(text string) string {
	accepted, over := caption.Limit(text)

	w.mu.Lock()
	w.caption = accepted
	w.mu.Unlock()

	w.presenter.SetCaption(accepted)
	w.presenter.SetLimitTip(over)
	return accepted
}

// Preview shows the preview step. The fallback caption is only displayed;
// the submitted caption stays empty.
func (w *Wizard) Preview() error {
	w.mu.Lock()
	hasPhoto := !w.photo.Empty()
	text := caption.Trim(w.caption)
	w.mu.Unlock()

	if !hasPhoto {
		w.presenter.Prompt(w.messages.ChoosePhoto)
		return domain.ErrNoImageSelected
	}

	if text == "" {
		text = w.messages.FallbackCaption
	}
	w.presenter.SetPreviewCaption(text)
	w.showStep(ui.StepPreview)
	return nil
}

// Upload hands the current photo and caption to the upload lifecycle and
// blocks until the submission settles.
func (w *Wizard) Upload(ctx context.Context) error {
	w.mu.Lock()
	req := lifecycle.Request{Image: w.photo, Caption: w.caption}
	w.mu.Unlock()

	err := w.uploader.Run(ctx, req)
	if errors.Is(err, domain.ErrNoImageSelected) || errors.Is(err, lifecycle.ErrBusy) {
		return err
	}

	w.mu.Lock()
	w.step = ui.StepUploading
	w.mu.Unlock()
	return err
}

func (w *Wizard) Step() ui.Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) showStep(step ui.Step) {
	w.mu.Lock()
	w.step = step
	w.mu.Unlock()
	w.presenter.ShowStep(step)
}
