//go:build govips && cgo

package normalize

import (
	"bytes"
	"context"
	"image"
	"testing"
)

func TestGovipsRendersExactTargetSize(t *testing.T) {
	if err := Startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}

	sizes := []struct{ srcW, srcH, dstW, dstH int }{
		{srcW: 1001, srcH: 667, dstW: 333, dstH: 222},
		{srcW: 997, srcH: 331, dstW: 101, dstH: 34},
		{srcW: 17, srcH: 1999, dstW: 3, dstH: 347},
	}
	for _, size := range sizes {
		data, err := govipsRenderer{}.Render(context.Background(), buildTestPNG(t, size.srcW, size.srcH), size.dstW, size.dstH, 85)
		if err != nil {
			t.Fatalf("render %dx%d: %v", size.srcW, size.srcH, err)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if cfg.Width != size.dstW || cfg.Height != size.dstH {
			t.Fatalf("expected %dx%d, got %dx%d", size.dstW, size.dstH, cfg.Width, cfg.Height)
		}
	}
}
