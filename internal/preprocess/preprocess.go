// Package preprocess turns raw upload bytes into the normalized tensor the
// classifier expects. Validation happens in two phases: a cheap header-only
// pass that rejects decompression bombs before any pixel buffer is
// allocated, then the full decode.
package preprocess

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"github.com/ecosort/waste-api/internal/apperr"
	"github.com/ecosort/waste-api/internal/config"
)

// Validate decodes data into an RGB image resized to the fixed model input
// dimensions. The declared width/height from the image header is checked
// against maxPixels before the pixel grid is expanded, so a few-KiB file
// claiming an enormous canvas is rejected without allocating it.
//
// The Lanczos3 resampling here must match the policy used when the model
// was trained; changing it silently skews every prediction.
func Validate(data []byte, maxPixels int64) (*image.NRGBA, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.E(apperr.InvalidImage, errors.Wrap(err, "decode header"))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, apperr.E(apperr.InvalidImage,
			errors.Errorf("non-positive dimensions %dx%d", cfg.Width, cfg.Height))
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, apperr.E(apperr.ImageTooLarge,
			errors.Errorf("%dx%d exceeds %d pixel ceiling", cfg.Width, cfg.Height, maxPixels))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.E(apperr.InvalidImage, errors.Wrap(err, "decode image"))
	}

	resized := resize.Resize(config.InputSize, config.InputSize, img, resize.Lanczos3)
	return imaging.Clone(resized), nil
}

// ToTensor converts a validated image into a 1xHxWx3 float32 tensor with
// values in [0,1]. Channel order is R,G,B, matching training-time
// preprocessing; swapping channels does not crash, it just makes every
// prediction quietly wrong.
func ToTensor(img *image.NRGBA) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	data := make([]float32, h*w*3)
	i := 0
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			data[i] = float32(row[x*4]) / 255.0
			data[i+1] = float32(row[x*4+1]) / 255.0
			data[i+2] = float32(row[x*4+2]) / 255.0
			i += 3
		}
	}
	return data
}
