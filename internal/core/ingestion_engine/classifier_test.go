package ingestion_engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename  string
		wantExt   string
		wantClass FileClass
	}{
		{"report.pdf", "pdf", ClassDocument},
		{"notes.TXT", "txt", ClassDocument},
		{"deck.pptx", "pptx", ClassDocument},
		{"data.xlsx", "xlsx", ClassDocument},
		{"legacy.xls", "xls", ClassDocument},
		{"page.html", "html", ClassDocument},
		{"photo.JPG", "jpg", ClassImage},
		{"scan.tiff", "tiff", ClassImage},
		{"anim.gif", "gif", ClassImage},
		{"pic.webp", "webp", ClassImage},
		{"archive.zip", "zip", ClassUnknown},
		{"noextension", "", ClassUnknown},
		{"weird.", "", ClassUnknown},
		{"dir/nested/file.md", "md", ClassDocument},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			ext, class := Classify(tt.filename)
			assert.Equal(t, tt.wantExt, ext)
			assert.Equal(t, tt.wantClass, class)
		})
	}
}

func TestAllowedExtensions(t *testing.T) {
	exts := AllowedExtensions()

	assert.Len(t, exts, len(documentExts)+len(imageExts))
	assert.Contains(t, exts, "pdf")
	assert.Contains(t, exts, "webp")
	assert.IsIncreasing(t, exts)
}
