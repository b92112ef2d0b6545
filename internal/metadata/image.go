package metadata

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"fileorg/internal/media/probe"
	"fileorg/internal/signature"
)

func (r *Registry) extractImage(ctx context.Context, path string, kind signature.FileKind) (Record, error) {
	file, size, err := openForExtraction(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if kind == signature.HEIC || kind == signature.AVIF {
		img, err := probe.HEIC(file, size)
		if err != nil {
			return r.absent(ctx, kind, err)
		}
		return Image{Width: img.Width, Height: img.Height, Format: kind.String()}, nil
	}

	cfg, format, decodeErr := image.DecodeConfig(bufio.NewReader(file))
	if decodeErr == nil {
		return Image{Width: uint32(cfg.Width), Height: uint32(cfg.Height), Format: strings.ToUpper(format)}, nil
	}

	if kind == signature.JPEG || kind == signature.TIFF {
		if _, err := file.Seek(0, io.SeekStart); err == nil {
			if w, h, err := exifDimensions(file); err == nil {
				return Image{Width: w, Height: h, Format: kind.String()}, nil
			}
		}
	}
	return r.absent(ctx, kind, decodeErr)
}

// exifDimensions reads PixelXDimension and PixelYDimension from EXIF.
func exifDimensions(rd io.Reader) (uint32, uint32, error) {
	x, err := exif.Decode(rd)
	if err != nil {
		return 0, 0, err
	}
	dim := func(name exif.FieldName) (uint32, error) {
		tag, err := x.Get(name)
		if err != nil {
			return 0, err
		}
		v, err := tag.Int(0)
		if err != nil {
			return 0, err
		}
		if v <= 0 {
			return 0, fmt.Errorf("exif %s: non-positive value %d", name, v)
		}
		return uint32(v), nil
	}
	w, werr := dim(exif.PixelXDimension)
	h, herr := dim(exif.PixelYDimension)
	if err := errors.Join(werr, herr); err != nil {
		return 0, 0, err
	}
	return w, h, nil
}
