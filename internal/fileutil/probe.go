package fileutil

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrProbeUnsupported is returned for image types no registered decoder can read
// (tga, hdr, exr, ppm, pfm). texconv still converts them.
var ErrProbeUnsupported = errors.New("image header not decodable")

// ImageHeader describes a source image without decoding its pixels
type ImageHeader struct {
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Codec  string `json:"codec" yaml:"codec"`
}

// BlockAligned reports whether both dimensions are multiples of 4,
// the block size of every BC format
func (h ImageHeader) BlockAligned() bool {
	return h.Width%4 == 0 && h.Height%4 == 0
}

// ProbeImage reads only the image header of path
func ProbeImage(path string) (ImageHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageHeader{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, codec, err := image.DecodeConfig(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return ImageHeader{}, fmt.Errorf("%w: %s", ErrProbeUnsupported, path)
		}
		return ImageHeader{}, fmt.Errorf("failed to read image header %s: %w", path, err)
	}

	return ImageHeader{Width: cfg.Width, Height: cfg.Height, Codec: codec}, nil
}
