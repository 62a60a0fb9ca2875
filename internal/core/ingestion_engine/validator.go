package ingestion_engine

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Limits bound what a single upload batch may contain.
type Limits struct {
	MaxFiles    int
	MinFileSize int64
	MaxFileSize int64
	MinPixels   int
	MaxPixels   int
}

func DefaultLimits() Limits {
	return Limits{
		MaxFiles:    10,
		MinFileSize: 100,
		MaxFileSize: 30 << 20,
		MinPixels:   10,
		MaxPixels:   10000,
	}
}

// ValidateBatch applies the batch rules in order and fails fast on the first
// violation. Unlike processing, validation is all-or-nothing: one bad file
// rejects the whole batch.
func ValidateBatch(batch []FileSubmission, lim Limits) error {
	if len(batch) == 0 {
		return &BatchError{Message: "no valid files in the request"}
	}
	if len(batch) > lim.MaxFiles {
		return batchErrorf("at most %d files per request, got %d", lim.MaxFiles, len(batch))
	}

	for _, sub := range batch {
		if sub.Filename == "" {
			return &BatchError{Message: "filename must not be empty"}
		}
		_, class := Classify(sub.Filename)
		if class == ClassUnknown {
			return batchErrorf("file %q has an unsupported type; supported: %s",
				sub.Filename, strings.Join(AllowedExtensions(), ", "))
		}

		size := int64(len(sub.Data))
		if size < lim.MinFileSize {
			return batchErrorf("file %q is too small; minimum is %d bytes", sub.Filename, lim.MinFileSize)
		}
		if size > lim.MaxFileSize {
			return batchErrorf("file %q is too large; maximum is %.1fMB", sub.Filename, float64(lim.MaxFileSize)/(1<<20))
		}

		if class == ClassImage {
			w, h, err := decodeImageDims(sub.Data)
			if err != nil {
				return batchErrorf("file %q is not a valid image: %v", sub.Filename, err)
			}
			if w < lim.MinPixels || h < lim.MinPixels {
				return batchErrorf("image %q is too small; minimum is %dx%d pixels", sub.Filename, lim.MinPixels, lim.MinPixels)
			}
			if w > lim.MaxPixels || h > lim.MaxPixels {
				return batchErrorf("image %q is too large; maximum is %dx%d pixels", sub.Filename, lim.MaxPixels, lim.MaxPixels)
			}
		}
	}
	return nil
}

// decodeImageDims reads just the image header. The registered codecs cover
// the whole image allow-list.
func decodeImageDims(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
