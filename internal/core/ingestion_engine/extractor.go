package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/autoprovider/fileparse/internal/core"
	"github.com/autoprovider/fileparse/internal/models"
)

// ArtifactExtractor walks a conversion result's embedded artifacts in
// document order, uploading each as a PNG, asking the vision model for a
// description and persisting a child source row. One artifact's failure is
// logged and skipped; it never aborts the remaining artifacts or the parent
// document.
type ArtifactExtractor struct {
	store     core.SourceStore
	uploader  core.Uploader
	describer core.Describer
	log       *zap.Logger
}

func NewArtifactExtractor(store core.SourceStore, uploader core.Uploader, describer core.Describer, log *zap.Logger) *ArtifactExtractor {
	return &ArtifactExtractor{store: store, uploader: uploader, describer: describer, log: log}
}

// Extract processes every artifact and returns the outcomes of the ones that
// made it all the way to the database.
func (e *ArtifactExtractor) Extract(ctx context.Context, res *core.ConversionResult, filename, userID string, projectID *string) []ArtifactOutcome {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	outcomes := make([]ArtifactOutcome, 0, len(res.Artifacts))

	for i, art := range res.Artifacts {
		// the ordinal counts every artifact, whatever its kind
		name := fmt.Sprintf("%s-%s%d.png", base, art.Kind, i+1)
		out, err := e.extractOne(ctx, art, name, userID, projectID)
		if err != nil {
			e.log.Warn("embedded artifact skipped",
				zap.String("artifact", name), zap.String("file", filename), zap.Error(err))
			continue
		}
		outcomes = append(outcomes, *out)
	}

	e.log.Info("artifact extraction finished",
		zap.String("file", filename),
		zap.Int("found", len(res.Artifacts)),
		zap.Int("stored", len(outcomes)))
	return outcomes
}

func (e *ArtifactExtractor) extractOne(ctx context.Context, art core.EmbeddedArtifact, name, userID string, projectID *string) (*ArtifactOutcome, error) {
	img := art.Image
	if art.Kind == core.ArtifactTable {
		img = RenderTable(art.Cells)
	}
	if img == nil {
		return nil, errors.New("artifact carries no image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	bounds := img.Bounds()

	url, err := e.uploader.Upload(ctx, buf.Bytes(), name)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	description := describeImage(ctx, e.describer, e.log, url)

	src := &models.Source{
		SourceID:    uuid.NewString(),
		SourceURL:   url,
		SourceType:  "png",
		ProjectID:   projectID,
		Status:      models.SourceStatusActive,
		CreatedAt:   time.Now(),
		Content:     description,
		OwnerUserID: userID,
		FileSize:    int64(buf.Len()),
		SourceName:  name,
	}
	if err := e.store.InsertSource(ctx, src); err != nil {
		return nil, fmt.Errorf("insert source: %w", err)
	}

	return &ArtifactOutcome{
		SourceID:      src.SourceID,
		SourceURL:     url,
		SourceType:    "png",
		SourceName:    name,
		AIDescription: truncateRunes(description, descriptionPreviewLen),
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
	}, nil
}

// descriptionPreviewLen caps the description prefix surfaced in responses;
// the full text is persisted.
const descriptionPreviewLen = 200

// describeImage asks the vision model for a description. Failures are
// non-fatal: the source is stored with an empty description.
func describeImage(ctx context.Context, d core.Describer, log *zap.Logger, url string) string {
	description, err := d.Describe(ctx, url)
	if err != nil {
		log.Warn("image description failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return description
}
