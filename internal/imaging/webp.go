// Package imaging normaliza as fotos enviadas: redimensiona e converte para WebP.
package imaging

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
)

const (
	MaxDimension  = 1600
	MaxUploadSize = 8 << 20
	quality       = 80
)

type Result struct {
	Data   []byte
	Width  int
	Height int
}

// ToWebP aceita JPEG, PNG ou WebP; o lado maior fica com no máximo MaxDimension.
func ToWebP(raw []byte) (*Result, error) {
	if len(raw) == 0 || len(raw) > MaxUploadSize {
		return nil, httperr.ErrBusiness("invalid_image")
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_image")
	}

	img := fit(src, MaxDimension)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &Result{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func fit(src image.Image, max int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return src
	}

	if w >= h {
		h = h * max / w
		w = max
	} else {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
