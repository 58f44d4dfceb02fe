// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package giraffe

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register bmp format
	_ "golang.org/x/image/tiff" // register tiff format
	_ "golang.org/x/image/webp" // register webp format
)

// OutputContentType is the content type of every image served.
const OutputContentType = "image/jpeg"

// compression quality of derived jpegs
const jpegQuality = 75

// maximum image size in pixels that will be decoded.
const maxPixels = 100_000_000

var errTooLarge = errors.New("image too large")

// Codec decodes, resizes, and encodes images.
type Codec interface {
	// Decode decodes an image in any supported format.
	Decode(b []byte) (image.Image, error)

	// Resize scales m to exactly w by h pixels.
	Resize(m image.Image, w, h int) image.Image

	// Encode encodes m in the output format.
	Encode(m image.Image) ([]byte, error)
}

// DefaultCodec decodes gif, jpeg, png, bmp, tiff and webp images, resizes
// with nearest-neighbor sampling, and encodes as JPEG.
var DefaultCodec Codec = imagingCodec{}

type imagingCodec struct{}

func (imagingCodec) Decode(b []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", errTooLarge, cfg.Width, cfg.Height)
	}
	return imaging.Decode(bytes.NewReader(b))
}

func (imagingCodec) Resize(m image.Image, w, h int) image.Image {
	return imaging.Resize(m, w, h, imaging.NearestNeighbor)
}

func (imagingCodec) Encode(m image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, m, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
