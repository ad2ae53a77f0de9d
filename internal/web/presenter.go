package web

import (
	"log"

	"github.com/dunamismax/memoryflow/internal/ui"
)

// socketPresenter turns presenter calls into events on one connection's
// outbound queue. Events raised after either side of the connection has
// shut down are dropped.
type socketPresenter struct {
	logger *log.Logger
	send   chan<- []byte
	done   <-chan struct{}
	gone   <-chan struct{}
}

var _ ui.Presenter = (*socketPresenter)(nil)

func (p *socketPresenter) emit(e Event) {
	msg, err := e.encode()
	if err != nil {
		p.logger.Printf("encode event failed type=%s err=%v", e.Type, err)
		return
	}
	select {
	case p.send <- msg:
	case <-p.done:
	case <-p.gone:
	}
}

func (p *socketPresenter) ShowStep(step ui.Step) {
	cards := ui.ActiveCards(step)
	names := make([]string, 0, len(cards))
	for _, c := range cards {
		names = append(names, c.String())
	}
	p.emit(Event{Type: EventStep, Step: step.String(), Cards: names})
}

func (p *socketPresenter) SetStatus(text string) {
	p.emit(Event{Type: EventStatus, Text: text})
}

func (p *socketPresenter) SetFade(fade ui.Fade) {
	p.emit(Event{Type: EventFade, Fade: fade.String()})
}

func (p *socketPresenter) Prompt(message string) {
	p.emit(Event{Type: EventPrompt, Text: message})
}

func (p *socketPresenter) SetPreviewImage(filename string, data []byte) {
	p.emit(Event{Type: EventPreviewImage, Filename: filename, Data: data})
}

func (p *socketPresenter) SetPreviewCaption(text string) {
	p.emit(Event{Type: EventPreviewCaption, Text: text})
}

func (p *socketPresenter) SetCaption(text string) {
	p.emit(Event{Type: EventCaption, Text: text})
}

func (p *socketPresenter) SetLimitTip(visible bool) {
	p.emit(Event{Type: EventLimitTip, Visible: &visible})
}
