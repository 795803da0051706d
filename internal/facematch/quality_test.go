package facematch

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"runtime"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/apperr"
)

func encodePNG(t *testing.T, w, h int, gray uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: gray, G: gray, B: gray, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCheckQuality(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		kind    apperr.Kind
		message string
	}{
		{"good", encodePNG(t, 200, 200, 128), "", ""},
		{"too small", encodePNG(t, 149, 300, 128), apperr.KindBiometric, "poor image quality: image too small"},
		{"too dark", encodePNG(t, 160, 160, 30), apperr.KindBiometric, "poor image quality: image too dark"},
		{"too bright", encodePNG(t, 160, 160, 240), apperr.KindBiometric, "poor image quality: image too bright"},
		{"boundary dark", encodePNG(t, 150, 150, 50), "", ""},
		{"boundary bright", encodePNG(t, 150, 150, 220), "", ""},
		{"garbage", []byte("not an image"), apperr.KindValidation, "invalid image file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckQuality(tt.data)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, apperr.KindOf(err))
			}
			if apperr.MessageOf(err) != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, apperr.MessageOf(err))
			}
		})
	}
}

// withPNGSize rewrites the IHDR dimensions of an encoded PNG, leaving the pixel data short.
func withPNGSize(data []byte, w, h uint32) []byte {
	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestCheckQuality_RejectsOversizedHeader(t *testing.T) {
	data := withPNGSize(encodePNG(t, 4, 4, 128), 40000, 40000)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err := CheckQuality(data)
	runtime.ReadMemStats(&after)

	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if msg := apperr.MessageOf(err); msg != "image too large" {
		t.Errorf("expected message %q, got %q", "image too large", msg)
	}
	if grew := after.TotalAlloc - before.TotalAlloc; grew > 64<<20 {
		t.Errorf("expected rejection before decoding, allocated %d MB", grew>>20)
	}
}

func TestCheckQuality_ReportsDimensions(t *testing.T) {
	q, err := CheckQuality(encodePNG(t, 320, 240, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Width != 320 || q.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", q.Width, q.Height)
	}
	if q.Brightness < 99 || q.Brightness > 101 {
		t.Errorf("expected brightness ~100, got %v", q.Brightness)
	}
}

func TestCheckQuality_JPEG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = 120
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}

	q, err := CheckQuality(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Brightness < 115 || q.Brightness > 125 {
		t.Errorf("expected brightness ~120, got %v", q.Brightness)
	}
}
