package domain

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryValidate(t *testing.T) {
	valid := Memory{
		ID:        "m-1",
		Status:    MemoryStatusReceived,
		ObjectKey: "memories/m-1/original.jpg",
		Width:     1800,
		Height:    900,
		CreatedAt: time.Now().UTC(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid memory, got error: %v", err)
	}

	if err := (Memory{}).Validate(); err == nil {
		t.Fatal("expected validation error for empty memory")
	}

	badStatus := valid
	badStatus.Status = "archived"
	if err := badStatus.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported status")
	}

	noSize := valid
	noSize.Width = 0
	if err := noSize.Validate(); err == nil {
		t.Fatal("expected validation error for missing dimensions")
	}
}

func TestOutputFilename(t *testing.T) {
	cases := map[string]string{
		"IMG_0042.HEIC":      "IMG_0042.jpg",
		"beach.trip.png":     "beach.trip.jpg",
		"photo":              "photo.jpg",
		"photo.":             "photo.jpg",
		"/tmp/album/cat.gif": "cat.jpg",
		"":                   "photo.jpg",
	}
	for in, want := range cases {
		if got := OutputFilename(in); got != want {
			t.Fatalf("OutputFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImageErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("unexpected EOF")

	var err error = &DecodeError{Err: cause}
	if !errors.Is(err, ErrDecode) || !errors.Is(err, cause) {
		t.Fatalf("decode error should match ErrDecode and its cause: %v", err)
	}
	if errors.Is(err, ErrEncode) {
		t.Fatal("decode error must not match ErrEncode")
	}

	err = &EncodeError{}
	if !errors.Is(err, ErrEncode) {
		t.Fatal("encode error should match ErrEncode")
	}
	if err.Error() != "compression failed" {
		t.Fatalf("expected bare encode message, got %q", err.Error())
	}
}
