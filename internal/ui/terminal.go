package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal renders the wizard as plain lines. Repeated status updates with
// the same text are collapsed.
type Terminal struct {
	mu         sync.Mutex
	out        io.Writer
	lastStatus string
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) ShowStep(step Step) {
	cards := ActiveCards(step)
	names := make([]string, 0, len(cards))
	for _, c := range cards {
		names = append(names, fmt.Sprintf("%d:%s", int(c), c))
	}
	t.printf("step %d [%s]", int(step), strings.Join(names, " "))
}

func (t *Terminal) SetStatus(text string) {
	t.mu.Lock()
	if text == t.lastStatus {
		t.mu.Unlock()
		return
	}
	t.lastStatus = text
	t.mu.Unlock()
	t.printf("status: %s", text)
}

func (t *Terminal) SetFade(fade Fade) {
	if fade == FadeNone {
		return
	}
	t.printf("(%s)", fade)
}

func (t *Terminal) Prompt(message string) {
	t.printf("! %s", message)
}

func (t *Terminal) SetPreviewImage(filename string, data []byte) {
	t.printf("preview image: %s (%d bytes)", filename, len(data))
}

func (t *Terminal) SetPreviewCaption(text string) {
	t.printf("preview caption: %s", text)
}

func (t *Terminal) SetCaption(text string) {
	t.printf("caption: %s", text)
}

func (t *Terminal) SetLimitTip(visible bool) {
	if visible {
		t.printf("caption trimmed to the length limit")
	}
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format+"\n", args...)
}
