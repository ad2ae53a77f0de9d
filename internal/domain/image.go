package domain

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	OutputContentType = "image/jpeg"
	OutputExtension   = ".jpg"

	DefaultMaxLongSide = 1800
	DefaultQuality     = 0.85
)

// ImageAsset is a caller-owned source photo together with the dimensions the
// normalizer derived for it.
type ImageAsset struct {
	Filename     string
	Data         []byte
	Width        int
	Height       int
	TargetWidth  int
	TargetHeight int
}

func (a ImageAsset) Empty() bool {
	return len(a.Data) == 0
}

type CompressedImage struct {
	Data        []byte
	ContentType string
	Quality     float64
	Width       int
	Height      int
}

// UploadAttempt lives for exactly one lifecycle run.
type UploadAttempt struct {
	ID        string
	Caption   string
	Filename  string
	Image     CompressedImage
	StartedAt time.Time
}

// OutputFilename swaps the extension of name for the fixed output extension.
func OutputFilename(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "photo"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + OutputExtension
}
