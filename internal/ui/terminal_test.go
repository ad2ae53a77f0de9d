package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestActiveCardsKeepsPreviewUnderUpload(t *testing.T) {
	cards := ActiveCards(StepUploading)
	if len(cards) != 2 || cards[0] != StepPreview || cards[1] != StepUploading {
		t.Fatalf("expected preview and uploading cards, got %v", cards)
	}
	if cards := ActiveCards(StepCaption); len(cards) != 1 || cards[0] != StepCaption {
		t.Fatalf("expected single caption card, got %v", cards)
	}
}

func TestTerminalCollapsesRepeatedStatus(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.ShowStep(StepUploading)
	term.SetStatus("Uploading")
	term.SetStatus("Uploading")
	term.SetFade(FadeNone)
	term.SetFade(FadeOut)

	out := buf.String()
	if !strings.Contains(out, "step 4 [3:preview 4:uploading]") {
		t.Fatalf("expected dual-card step line, got %q", out)
	}
	if strings.Count(out, "status: Uploading") != 1 {
		t.Fatalf("expected one status line, got %q", out)
	}
	if !strings.Contains(out, "(fade-out)") || strings.Contains(out, "(none)") {
		t.Fatalf("unexpected fade output %q", out)
	}
}

func TestMessagesWithDefaults(t *testing.T) {
	m := Messages{Pending: "上傳中"}.WithDefaults()
	if m.Pending != "上傳中" {
		t.Fatalf("expected custom pending label kept, got %q", m.Pending)
	}
	if m.Failed != DefaultMessages().Failed {
		t.Fatalf("expected default failure text, got %q", m.Failed)
	}
}
