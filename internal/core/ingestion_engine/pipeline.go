package ingestion_engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/autoprovider/fileparse/internal/core"
	"github.com/autoprovider/fileparse/internal/models"
)

// Pipeline orchestrates one upload batch: validation, project authorization,
// then strictly sequential per-file dispatch. Validation and authorization
// reject the whole batch; after that, each file fails or succeeds on its own
// and the batch always runs to completion.
type Pipeline struct {
	store     core.SourceStore
	uploader  core.Uploader
	describer core.Describer
	converter core.Converter
	extractor *ArtifactExtractor
	limits    Limits
	log       *zap.Logger
}

func NewPipeline(store core.SourceStore, uploader core.Uploader, describer core.Describer, converter core.Converter, limits Limits, log *zap.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		uploader:  uploader,
		describer: describer,
		converter: converter,
		extractor: NewArtifactExtractor(store, uploader, describer, log),
		limits:    limits,
		log:       log,
	}
}

// Run processes a batch for one user and returns one outcome per file, in
// submission order. A returned error is always batch-level (*BatchError for
// validation/authorization) and means no file was processed.
func (p *Pipeline) Run(ctx context.Context, userID string, batch []FileSubmission, projectID, sessionID *string) ([]FileOutcome, error) {
	if err := ValidateBatch(batch, p.limits); err != nil {
		return nil, err
	}

	if projectID != nil {
		author, err := p.store.ProjectAuthor(ctx, *projectID)
		if err != nil {
			return nil, fmt.Errorf("project lookup: %w", err)
		}
		if author == "" {
			return nil, &BatchError{Message: "project does not exist or was deleted"}
		}
		if author != userID {
			return nil, &BatchError{Message: "only the project author may attach sources to it"}
		}
	}

	outcomes := make([]FileOutcome, 0, len(batch))
	for _, sub := range batch {
		outcomes = append(outcomes, p.processFile(ctx, userID, sub, projectID, sessionID))
	}
	return outcomes, nil
}

func (p *Pipeline) processFile(ctx context.Context, userID string, sub FileSubmission, projectID, sessionID *string) FileOutcome {
	ext, class := Classify(sub.Filename)
	switch class {
	case ClassDocument:
		return p.processDocument(ctx, userID, sub, ext, projectID, sessionID)
	case ClassImage:
		return p.processImage(ctx, userID, sub, ext, projectID, sessionID)
	default:
		// the validator already rejected unknown kinds; guard anyway
		return ErrorOutcome{Error: "unsupported file type: " + ext, Filename: sub.Filename}
	}
}

func (p *Pipeline) processDocument(ctx context.Context, userID string, sub FileSubmission, ext string, projectID, sessionID *string) FileOutcome {
	res, err := p.converter.Convert(ctx, sub.Data, ext)
	if err != nil {
		p.log.Error("document conversion failed", zap.String("file", sub.Filename), zap.Error(err))
		return ErrorOutcome{Error: "conversion failed: " + err.Error(), Filename: sub.Filename}
	}

	images := []ArtifactOutcome{}
	if len(res.Artifacts) > 0 {
		images = p.extractor.Extract(ctx, res, sub.Filename, userID, projectID)
	}

	src := &models.Source{
		SourceID:    uuid.NewString(),
		SourceURL:   "",
		SourceType:  ext,
		ProjectID:   projectID,
		Status:      models.SourceStatusActive,
		CreatedAt:   time.Now(),
		Content:     res.Markdown,
		OwnerUserID: userID,
		FileSize:    int64(len(sub.Data)),
		SessionID:   sessionID,
		SourceName:  sub.Filename,
	}
	if err := p.store.InsertSource(ctx, src); err != nil {
		p.log.Error("storing document failed", zap.String("file", sub.Filename), zap.Error(err))
		return ErrorOutcome{Error: "failed to store document", Filename: sub.Filename}
	}

	p.log.Info("document ingested",
		zap.String("file", sub.Filename),
		zap.String("source_id", src.SourceID),
		zap.Int("content_length", len(res.Markdown)),
		zap.Int("extracted_images", len(images)),
		zap.Bool("fallback", res.Fallback))

	return DocumentOutcome{
		SourceID:        src.SourceID,
		SourceURL:       "",
		SourceType:      ext,
		Filename:        sub.Filename,
		SourceName:      sub.Filename,
		ContentLength:   len(res.Markdown),
		ExtractedImages: len(images),
		Images:          images,
	}
}

func (p *Pipeline) processImage(ctx context.Context, userID string, sub FileSubmission, ext string, projectID, sessionID *string) FileOutcome {
	w, h, err := decodeImageDims(sub.Data)
	if err != nil {
		return ErrorOutcome{Error: "invalid image: " + err.Error(), Filename: sub.Filename}
	}

	url, err := p.uploader.Upload(ctx, sub.Data, sub.Filename)
	if err != nil {
		p.log.Error("image upload failed", zap.String("file", sub.Filename), zap.Error(err))
		return ErrorOutcome{Error: "image upload failed: " + err.Error(), Filename: sub.Filename}
	}

	description := describeImage(ctx, p.describer, p.log, url)

	src := &models.Source{
		SourceID:    uuid.NewString(),
		SourceURL:   url,
		SourceType:  ext,
		ProjectID:   projectID,
		Status:      models.SourceStatusActive,
		CreatedAt:   time.Now(),
		Content:     description,
		OwnerUserID: userID,
		FileSize:    int64(len(sub.Data)),
		SessionID:   sessionID,
		SourceName:  sub.Filename,
	}
	if err := p.store.InsertSource(ctx, src); err != nil {
		p.log.Error("storing image failed", zap.String("file", sub.Filename), zap.Error(err))
		return ErrorOutcome{Error: "failed to store image", Filename: sub.Filename}
	}

	p.log.Info("image ingested",
		zap.String("file", sub.Filename),
		zap.String("source_id", src.SourceID),
		zap.Int("width", w), zap.Int("height", h))

	return ImageOutcome{
		SourceID:      src.SourceID,
		SourceURL:     url,
		SourceType:    ext,
		Filename:      sub.Filename,
		SourceName:    sub.Filename,
		AIDescription: truncateRunes(description, descriptionPreviewLen),
		Width:         w,
		Height:        h,
	}
}
