package web

import "encoding/json"

// Commands sent by the browser.
const (
	CommandSelect  = "select"
	CommandCaption = "caption"
	CommandPreview = "preview"
	CommandUpload  = "upload"
)

// Events pushed to the browser.
const (
	EventStep           = "step"
	EventStatus         = "status"
	EventFade           = "fade"
	EventPreviewImage   = "preview_image"
	EventPreviewCaption = "preview_caption"
	EventCaption        = "caption"
	EventLimitTip       = "limit_tip"
	EventPrompt         = "prompt"
	EventError          = "error"
)

type Command struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	// Data is the picked file; encoding/json carries it as base64.
	Data []byte `json:"data,omitempty"`
	Text string `json:"text,omitempty"`
}

type Event struct {
	Type     string   `json:"type"`
	Step     string   `json:"step,omitempty"`
	Cards    []string `json:"cards,omitempty"`
	Text     string   `json:"text,omitempty"`
	Fade     string   `json:"fade,omitempty"`
	Filename string   `json:"filename,omitempty"`
	Data     []byte   `json:"data,omitempty"`
	Visible  *bool    `json:"visible,omitempty"`
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}
