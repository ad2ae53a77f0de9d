package normalize

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/dunamismax/memoryflow/internal/domain"
)

func TestTargetSizeScenarios(t *testing.T) {
	cases := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{4000, 2000, 1800, 1800, 900},
		{1200, 800, 1800, 1200, 800},
		{2000, 4000, 1800, 900, 1800},
		{3000, 3000, 1800, 1800, 1800},
		{1800, 1200, 1800, 1800, 1200},
		{4032, 3024, 1800, 1800, 1350},
		{5000, 1, 1800, 1800, 1},
	}
	for _, tc := range cases {
		gotW, gotH := TargetSize(tc.w, tc.h, tc.max)
		if gotW != tc.wantW || gotH != tc.wantH {
			t.Fatalf("TargetSize(%d, %d, %d) = %dx%d, want %dx%d", tc.w, tc.h, tc.max, gotW, gotH, tc.wantW, tc.wantH)
		}
	}
}

func TestTargetSizeNeverUpscales(t *testing.T) {
	for w := 1; w <= 1800; w += 97 {
		for h := 1; h <= 1800; h += 89 {
			gotW, gotH := TargetSize(w, h, 1800)
			if gotW != w || gotH != h {
				t.Fatalf("expected %dx%d unchanged, got %dx%d", w, h, gotW, gotH)
			}
		}
	}
}

func TestTargetSizeBoundsLongerSidePreservingAspect(t *testing.T) {
	for w := 1801; w <= 9000; w += 733 {
		for h := 100; h <= 9000; h += 611 {
			gotW, gotH := TargetSize(w, h, 1800)
			if max(gotW, gotH) != 1800 {
				t.Fatalf("%dx%d: expected longer side 1800, got %dx%d", w, h, gotW, gotH)
			}
			// Aspect ratio may drift by at most one rounded pixel on the short side.
			if w > h {
				exact := float64(h) * 1800 / float64(w)
				if diff := float64(gotH) - exact; diff > 1 || diff < -1 {
					t.Fatalf("%dx%d: height %d too far from %.2f", w, h, gotH, exact)
				}
			} else {
				exact := float64(w) * 1800 / float64(h)
				if diff := float64(gotW) - exact; diff > 1 || diff < -1 {
					t.Fatalf("%dx%d: width %d too far from %.2f", w, h, gotW, exact)
				}
			}
		}
	}
}

func TestCompressDownscalesPNGToJPEG(t *testing.T) {
	n, err := New(Config{MaxLongSide: 100, Quality: 0.85})
	if err != nil {
		t.Fatalf("new normalizer: %v", err)
	}

	out, err := n.Compress(context.Background(), buildTestPNG(t, 400, 200), 0)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if out.ContentType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %s", out.ContentType)
	}
	if out.Width != 100 || out.Height != 50 {
		t.Fatalf("expected 100x50, got %dx%d", out.Width, out.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("expected encoded 100x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCompressKeepsSmallImageDimensions(t *testing.T) {
	n, err := New(Config{})
	if err != nil {
		t.Fatalf("new normalizer: %v", err)
	}

	out, err := n.Compress(context.Background(), buildTestJPEG(t, 120, 80), 1800)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if out.Width != 120 || out.Height != 80 {
		t.Fatalf("expected 120x80, got %dx%d", out.Width, out.Height)
	}
	if out.Quality != domain.DefaultQuality {
		t.Fatalf("expected default quality, got %v", out.Quality)
	}
}

func TestCompressRejectsUndecodableInput(t *testing.T) {
	n, err := New(Config{})
	if err != nil {
		t.Fatalf("new normalizer: %v", err)
	}

	_, err = n.Compress(context.Background(), []byte("definitely not an image"), 0)
	if !errors.Is(err, domain.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if errors.Is(err, domain.ErrEncode) {
		t.Fatal("decode failure must not be reported as encode failure")
	}
}

func TestCompressReportsEmptyEncoderOutput(t *testing.T) {
	n := newWithRenderer(Config{}, emptyRenderer{})

	_, err := n.Compress(context.Background(), buildTestPNG(t, 10, 10), 0)
	if !errors.Is(err, domain.ErrEncode) {
		t.Fatalf("expected encode error, got %v", err)
	}
	if err.Error() != "compression failed" {
		t.Fatalf("expected compression failed message, got %q", err.Error())
	}
}

func TestCompressHonoursCancelledContext(t *testing.T) {
	n, err := New(Config{})
	if err != nil {
		t.Fatalf("new normalizer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := n.Compress(ctx, buildTestPNG(t, 10, 10), 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	format, w, h, err := Probe(buildTestPNG(t, 33, 21))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if format != "png" || w != 33 || h != 21 {
		t.Fatalf("expected png 33x21, got %s %dx%d", format, w, h)
	}

	if _, _, _, err := Probe(nil); !errors.Is(err, domain.ErrDecode) {
		t.Fatalf("expected decode error for empty source, got %v", err)
	}
}

type emptyRenderer struct{}

func (emptyRenderer) Render(_ context.Context, _ []byte, _, _, _ int) ([]byte, error) {
	return nil, nil
}

func buildTestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}
	return img
}

func buildTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, buildTestImage(w, h)); err != nil {
		t.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}

func buildTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, buildTestImage(w, h), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode source jpeg: %v", err)
	}
	return buf.Bytes()
}
