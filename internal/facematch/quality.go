package facematch

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/constants"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Quality describes a decoded probe image
type Quality struct {
	Width      int
	Height     int
	Brightness float64 // mean luminance, 0-255
}

// CheckQuality decodes an image and rejects it when it is too small, too dark or
// too bright for reliable face detection. Undecodable input is a validation error;
// a decodable image of poor quality is a biometric error.
func CheckQuality(data []byte) (*Quality, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid image file", err)
	}
	if exceedsPixelBudget(cfg.Width, cfg.Height) {
		return nil, apperr.Validation("image too large").
			WithDetail("width", cfg.Width).WithDetail("height", cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid image file", err)
	}

	bounds := img.Bounds()
	q := &Quality{Width: bounds.Dx(), Height: bounds.Dy()}

	if q.Width < constants.MinImageDimension || q.Height < constants.MinImageDimension {
		return q, apperr.Biometric("poor image quality: image too small")
	}

	q.Brightness = meanLuminance(img)
	if q.Brightness < constants.MinBrightness {
		return q, apperr.Biometric("poor image quality: image too dark")
	}
	if q.Brightness > constants.MaxBrightness {
		return q, apperr.Biometric("poor image quality: image too bright")
	}

	return q, nil
}

// exceedsPixelBudget reports whether a header-declared size is too large to decode.
func exceedsPixelBudget(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	return int64(width)*int64(height) > constants.MaxImagePixels
}

// meanLuminance averages the BT.601 luma of every pixel.
func meanLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	switch m := img.(type) {
	case *image.YCbCr:
		// JPEG decodes to YCbCr whose Y plane is already the luma.
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				sum += uint64(m.Y[m.YOffset(x, y)])
			}
		}
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				sum += uint64(m.GrayAt(x, y).Y)
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				sum += uint64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			}
		}
	}

	return float64(sum) / float64(n)
}
