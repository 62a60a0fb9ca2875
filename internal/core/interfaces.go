package core

import (
	"context"
	"image"

	"github.com/autoprovider/fileparse/internal/models"
)

// SourceStore defines all persistence operations the pipeline and handlers
// need. It abstracts Postgres so higher layers never depend on a specific DB.
type SourceStore interface {
	InsertSource(ctx context.Context, src *models.Source) error
	ListUnboundSources(ctx context.Context, userID string, f models.UnboundFilter) ([]models.Source, error)
	BindSources(ctx context.Context, userID string, sourceIDs []string, b models.Binding) (int64, error)
	CancelSource(ctx context.Context, userID, sourceID string) (int64, error)

	// ProjectAuthor returns the author of an active project, or "" when the
	// project does not exist or has been deleted.
	ProjectAuthor(ctx context.Context, projectID string) (string, error)

	Ping(ctx context.Context) error
	Close() error
}

// Uploader puts raw image bytes into object storage and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (url string, err error)
	Ping(ctx context.Context) error
}

// Describer produces a natural-language description of the image behind a
// public URL. Callers treat failures and empty descriptions as non-fatal.
type Describer interface {
	Describe(ctx context.Context, imageURL string) (string, error)
}

// Converter turns one document into text plus any embedded artifacts.
type Converter interface {
	Convert(ctx context.Context, data []byte, ext string) (*ConversionResult, error)
}

// ArtifactKind tags an embedded artifact as a picture or a table.
type ArtifactKind string

const (
	ArtifactPicture ArtifactKind = "picture"
	ArtifactTable   ArtifactKind = "table"
)

// EmbeddedArtifact is one picture or table found inside a converted document,
// in document order. Pictures carry a decoded image; tables carry a cell grid
// that still needs rasterizing.
type EmbeddedArtifact struct {
	Kind  ArtifactKind
	Image image.Image
	Cells [][]string
}

// ConversionResult is the outcome of converting one document. Consumed once
// by the artifact extractor and discarded.
type ConversionResult struct {
	Markdown  string
	Artifacts []EmbeddedArtifact
	Fallback  bool // text came from best-effort decoding, not the engine
}
