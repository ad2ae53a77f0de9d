// Package uitest provides a Presenter that records every call for tests.
package uitest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dunamismax/memoryflow/internal/ui"
)

var _ ui.Presenter = (*Recorder)(nil)

// Recorder stores presenter calls as "kind:value" strings.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func (p *Recorder) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fmt.Sprintf(format, args...))
}

func (p *Recorder) ShowStep(step ui.Step) {
	p.record("step:%s", step)
}

func (p *Recorder) SetStatus(text string) {
	p.record("status:%s", text)
}

func (p *Recorder) SetFade(fade ui.Fade) {
	p.record("fade:%s", fade)
}

func (p *Recorder) Prompt(message string) {
	p.record("prompt:%s", message)
}

func (p *Recorder) SetPreviewImage(name string, _ []byte) {
	p.record("preview_image:%s", name)
}

func (p *Recorder) SetPreviewCaption(text string) {
	p.record("preview_caption:%s", text)
}

func (p *Recorder) SetCaption(text string) {
	p.record("caption:%s", text)
}

func (p *Recorder) SetLimitTip(visible bool) {
	p.record("limit_tip:%t", visible)
}

func (p *Recorder) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *Recorder) Last() string {
	events := p.Events()
	if len(events) == 0 {
		return ""
	}
	return events[len(events)-1]
}

func (p *Recorder) Filter(prefix string) []string {
	var out []string
	for _, e := range p.Events() {
		if strings.HasPrefix(e, prefix) {
			out = append(out, strings.TrimPrefix(e, prefix))
		}
	}
	return out
}

func (p *Recorder) Statuses() []string {
	return p.Filter("status:")
}

func (p *Recorder) Steps() []string {
	var out []string
	for _, s := range p.Filter("step:") {
		out = append(out, "step:"+s)
	}
	return out
}

func (p *Recorder) LastStatus() string {
	statuses := p.Statuses()
	if len(statuses) == 0 {
		return ""
	}
	return statuses[len(statuses)-1]
}
