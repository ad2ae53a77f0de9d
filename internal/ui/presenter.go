// Package ui holds the contract between the wizard and whatever renders it.
// The core never renders; it only tells a Presenter which step is active and
// what the status line should read.
package ui

type Step int

const (
	StepPick Step = iota + 1
	StepCaption
	StepPreview
	StepUploading
)

func (s Step) String() string {
	switch s {
	case StepPick:
		return "pick"
	case StepCaption:
		return "caption"
	case StepPreview:
		return "preview"
	case StepUploading:
		return "uploading"
	default:
		return "unknown"
	}
}

// ActiveCards lists the step cards that are visible while s is current.
// The uploading step keeps the preview card on screen underneath it.
func ActiveCards(s Step) []Step {
	if s == StepUploading {
		return []Step{StepPreview, StepUploading}
	}
	return []Step{s}
}

type Fade int

const (
	FadeNone Fade = iota
	FadeOut
	FadeIn
)

func (f Fade) String() string {
	switch f {
	case FadeOut:
		return "fade-out"
	case FadeIn:
		return "fade-in"
	default:
		return "none"
	}
}

type Presenter interface {
	ShowStep(step Step)
	SetStatus(text string)
	SetFade(fade Fade)
	Prompt(message string)
	SetPreviewImage(filename string, data []byte)
	SetPreviewCaption(text string)
	SetCaption(text string)
	SetLimitTip(visible bool)
}

type Messages struct {
	Pending         string
	Received        string
	Failed          string
	ChoosePhoto     string
	FallbackCaption string
}

func DefaultMessages() Messages {
	return Messages{
		Pending:         "Uploading",
		Received:        "We received your memory, it is appearing now.",
		Failed:          "Upload failed, please try again later.",
		ChoosePhoto:     "Please choose a photo first.",
		FallbackCaption: "Hope this memory brings back a smile.",
	}
}

// WithDefaults fills every empty message from DefaultMessages.
func (m Messages) WithDefaults() Messages {
	d := DefaultMessages()
	if m.Pending == "" {
		m.Pending = d.Pending
	}
	if m.Received == "" {
		m.Received = d.Received
	}
	if m.Failed == "" {
		m.Failed = d.Failed
	}
	if m.ChoosePhoto == "" {
		m.ChoosePhoto = d.ChoosePhoto
	}
	if m.FallbackCaption == "" {
		m.FallbackCaption = d.FallbackCaption
	}
	return m
}
