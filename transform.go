// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package giraffe

import (
	"fmt"
	"image"
	"time"
)

// DecodeError reports an original image that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("error decoding image: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a derived image that could not be encoded.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("error encoding image: %v", e.Err) }

func (e *EncodeError) Unwrap() error { return e.Err }

// Transform derives the variant of img described by opt.  img should contain
// the raw bytes of an encoded image in a format c can decode.
//
// If opt does not shrink the image on either axis, img is returned unchanged
// and identity is true.  Otherwise the image is resized and re-encoded by c.
func Transform(c Codec, img []byte, opt Options) (out []byte, identity bool, err error) {
	if opt.Empty() {
		// bail if no transformation was requested
		return img, true, nil
	}

	m, err := c.Decode(img)
	if err != nil {
		return nil, false, &DecodeError{err}
	}

	w, h, resize := resizeParams(m, opt)
	if !resize {
		return img, true, nil
	}

	start := time.Now()
	m = c.Resize(m, w, h)
	out, err = c.Encode(m)
	if err != nil {
		return nil, false, &EncodeError{err}
	}
	imageTransformationSummary.Observe(time.Since(start).Seconds())

	return out, false, nil
}

// resizeParams determines the target size of m for opt.  Each requested
// dimension is clamped to the original, so images are never scaled up, and
// an absent dimension keeps its original size.  resize is false if the
// target equals the original size.
func resizeParams(m image.Image, opt Options) (w, h int, resize bool) {
	imgW := m.Bounds().Dx()
	imgH := m.Bounds().Dy()

	w, h = imgW, imgH
	if opt.Width > 0 && opt.Width < imgW {
		w = opt.Width
	}
	if opt.Height > 0 && opt.Height < imgH {
		h = opt.Height
	}

	return w, h, w != imgW || h != imgH
}
