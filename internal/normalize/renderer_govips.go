//go:build govips && cgo

package normalize

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/memoryflow/internal/domain"
)

type govipsRenderer struct{}

func (govipsRenderer) Render(ctx context.Context, source []byte, width, height, quality int) ([]byte, error) {
	img, err := vips.NewImageFromBuffer(source)
	if err != nil {
		return nil, &domain.DecodeError{Err: err}
	}
	defer img.Close()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := img.AutoRotate(); err != nil {
		return nil, fmt.Errorf("auto-rotate image: %w", err)
	}

	if img.Width() != width || img.Height() != height {
		hScale := float64(width) / float64(img.Width())
		vScale := float64(height) / float64(img.Height())
		if err := img.ResizeWithVScale(hScale, vScale, vips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("resize image: %w", err)
		}
	}
	if err := exactSize(img, width, height); err != nil {
		return nil, err
	}

	if img.HasAlpha() {
		if err := img.Flatten(&vips.Color{}); err != nil {
			return nil, fmt.Errorf("flatten alpha: %w", err)
		}
	}

	params := vips.NewJpegExportParams()
	params.Quality = quality
	data, _, err := img.ExportJpeg(params)
	if err != nil {
		return nil, &domain.EncodeError{Err: err}
	}
	return data, nil
}

// exactSize pads or crops img to width x height. Scaling rounds each axis on
// its own and can land a pixel off the requested size.
func exactSize(img *vips.ImageRef, width, height int) error {
	if img.Width() == width && img.Height() == height {
		return nil
	}
	if img.Width() < width || img.Height() < height {
		if err := img.Embed(0, 0, max(img.Width(), width), max(img.Height(), height), vips.ExtendCopy); err != nil {
			return fmt.Errorf("pad image: %w", err)
		}
	}
	if err := img.ExtractArea(0, 0, width, height); err != nil {
		return fmt.Errorf("crop image: %w", err)
	}
	return nil
}
