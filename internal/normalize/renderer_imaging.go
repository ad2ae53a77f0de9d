//go:build !govips || !cgo

package normalize

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/memoryflow/internal/domain"
)

type imagingRenderer struct{}

func (imagingRenderer) Render(ctx context.Context, source []byte, width, height, quality int) ([]byte, error) {
	src, err := decode(source)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var surface *image.NRGBA
	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		surface = imaging.Clone(src)
	} else {
		surface = imaging.Resize(src, width, height, imaging.Lanczos)
	}

	// JPEG carries no alpha channel.
	flat := imaging.New(width, height, image.Black)
	flat = imaging.Overlay(flat, surface, image.Point{}, 1)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, &domain.EncodeError{Err: err}
	}
	return buf.Bytes(), nil
}

// decode keeps the reader over source scoped to this call so nothing holds
// on to it after the pixels are materialised. EXIF orientation is applied so
// the bounds match what Probe reports.
func decode(source []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(source), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &domain.DecodeError{Err: err}
	}
	return img, nil
}
