package ingestion_engine

import (
	"path/filepath"
	"sort"
	"strings"
)

// FileClass is the coarse routing decision for one file.
type FileClass int

const (
	ClassUnknown FileClass = iota
	ClassDocument
	ClassImage
)

var documentExts = map[string]bool{
	"pdf": true, "doc": true, "docx": true, "pptx": true,
	"xls": true, "xlsx": true, "md": true, "txt": true,
	"html": true, "csv": true, "json": true,
}

var imageExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "tiff": true,
	"tif": true, "bmp": true, "gif": true, "webp": true,
}

// Classify maps a filename to its lower-cased extension and file class.
// Unrecognized or missing extensions classify as ClassUnknown.
func Classify(filename string) (string, FileClass) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch {
	case documentExts[ext]:
		return ext, ClassDocument
	case imageExts[ext]:
		return ext, ClassImage
	default:
		return ext, ClassUnknown
	}
}

// AllowedExtensions returns the sorted allow-list, for error messages.
func AllowedExtensions() []string {
	out := make([]string, 0, len(documentExts)+len(imageExts))
	for ext := range documentExts {
		out = append(out, ext)
	}
	for ext := range imageExts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
