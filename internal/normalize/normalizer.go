// Package normalize bounds photos to a maximum longer side and re-encodes
// them as JPEG at a fixed quality before they leave the device.
package normalize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/dunamismax/memoryflow/internal/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Config struct {
	MaxLongSide int
	Quality     float64
}

type Normalizer struct {
	maxLongSide int
	quality     float64
	renderer    renderer
}

// renderer decodes source, draws it onto a width x height surface and
// returns the JPEG encoding of that surface.
type renderer interface {
	Render(ctx context.Context, source []byte, width, height, quality int) ([]byte, error)
}

func New(cfg Config) (*Normalizer, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("build renderer: %w", err)
	}
	return newWithRenderer(cfg, r), nil
}

func newWithRenderer(cfg Config, r renderer) *Normalizer {
	maxLongSide := cfg.MaxLongSide
	if maxLongSide <= 0 {
		maxLongSide = domain.DefaultMaxLongSide
	}
	quality := cfg.Quality
	if quality <= 0 || quality > 1 {
		quality = domain.DefaultQuality
	}
	return &Normalizer{
		maxLongSide: maxLongSide,
		quality:     quality,
		renderer:    r,
	}
}

func (n *Normalizer) MaxLongSide() int {
	return n.maxLongSide
}

// Compress bounds source to maxLongSide (the configured default when <= 0)
// and encodes it as JPEG. Decode failures match domain.ErrDecode and empty
// encoder output matches domain.ErrEncode.
func (n *Normalizer) Compress(ctx context.Context, source []byte, maxLongSide int) (domain.CompressedImage, error) {
	if maxLongSide <= 0 {
		maxLongSide = n.maxLongSide
	}

	select {
	case <-ctx.Done():
		return domain.CompressedImage{}, ctx.Err()
	default:
	}

	asset, err := n.Inspect(source, maxLongSide)
	if err != nil {
		return domain.CompressedImage{}, err
	}

	data, err := n.renderer.Render(ctx, source, asset.TargetWidth, asset.TargetHeight, jpegQuality(n.quality))
	if err != nil {
		return domain.CompressedImage{}, err
	}
	if len(data) == 0 {
		return domain.CompressedImage{}, &domain.EncodeError{}
	}

	return domain.CompressedImage{
		Data:        data,
		ContentType: domain.OutputContentType,
		Quality:     n.quality,
		Width:       asset.TargetWidth,
		Height:      asset.TargetHeight,
	}, nil
}

// Inspect reads the intrinsic dimensions of source and derives the target
// dimensions without decoding pixel data.
func (n *Normalizer) Inspect(source []byte, maxLongSide int) (domain.ImageAsset, error) {
	if maxLongSide <= 0 {
		maxLongSide = n.maxLongSide
	}
	_, width, height, err := Probe(source)
	if err != nil {
		return domain.ImageAsset{}, err
	}
	targetW, targetH := TargetSize(width, height, maxLongSide)
	return domain.ImageAsset{
		Data:         source,
		Width:        width,
		Height:       height,
		TargetWidth:  targetW,
		TargetHeight: targetH,
	}, nil
}

// Probe returns the registered format name and the upright dimensions of
// source, after any EXIF orientation is applied.
func Probe(source []byte) (string, int, int, error) {
	if len(source) == 0 {
		return "", 0, 0, &domain.DecodeError{Err: fmt.Errorf("empty source")}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(source))
	if err != nil {
		return "", 0, 0, &domain.DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", 0, 0, &domain.DecodeError{Err: fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)}
	}
	if swapsAxes(orientation(source)) {
		return format, cfg.Height, cfg.Width, nil
	}
	return format, cfg.Width, cfg.Height, nil
}

// TargetSize scales width and height so the longer side is at most
// maxLongSide, preserving aspect ratio. Images already within bounds are
// returned unchanged.
func TargetSize(width, height, maxLongSide int) (int, int) {
	if maxLongSide <= 0 {
		return width, height
	}
	switch {
	case width > height && width > maxLongSide:
		scale := float64(maxLongSide) / float64(width)
		return maxLongSide, atLeastOne(math.Round(float64(height) * scale))
	case height >= width && height > maxLongSide:
		scale := float64(maxLongSide) / float64(height)
		return atLeastOne(math.Round(float64(width) * scale)), maxLongSide
	default:
		return width, height
	}
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}

func jpegQuality(q float64) int {
	return int(math.Round(q * 100))
}
