package ingestion_engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoprovider/fileparse/internal/core"
)

func newTestPipeline(store *fakeStore, uploader *fakeUploader, describer core.Describer, converter core.Converter) *Pipeline {
	return NewPipeline(store, uploader, describer, converter, testLimits(), zap.NewNop())
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("text document round trip", func(t *testing.T) {
		store := newFakeStore()
		p := newTestPipeline(store, newFakeUploader(), &fakeDescriber{}, NewEngineConverter(zap.NewNop()))

		payload := bytes.Repeat([]byte("x"), 500)
		outcomes, err := p.Run(ctx, "user-1", []FileSubmission{{Filename: "notes.txt", Data: payload}}, nil, nil)
		require.NoError(t, err)
		require.Len(t, outcomes, 1)

		doc, ok := outcomes[0].(DocumentOutcome)
		require.True(t, ok)
		assert.Equal(t, 500, doc.ContentLength)
		assert.Equal(t, "", doc.SourceURL)
		assert.Equal(t, "txt", doc.SourceType)
		assert.Equal(t, "notes.txt", doc.SourceName)
		assert.Zero(t, doc.ExtractedImages)

		row := store.bySourceName("notes.txt")
		require.NotNil(t, row)
		assert.Equal(t, string(payload), row.Content)
		assert.Equal(t, int64(500), row.FileSize)
		assert.Equal(t, "user-1", row.OwnerUserID)
	})

	t.Run("image goes to object storage with a description", func(t *testing.T) {
		store := newFakeStore()
		uploader := newFakeUploader()
		p := newTestPipeline(store, uploader, &fakeDescriber{description: "a gradient"}, NewEngineConverter(zap.NewNop()))

		outcomes, err := p.Run(ctx, "user-1", []FileSubmission{{Filename: "pic.png", Data: pngBytes(t, 48, 32)}}, nil, nil)
		require.NoError(t, err)
		require.Len(t, outcomes, 1)

		img, ok := outcomes[0].(ImageOutcome)
		require.True(t, ok)
		assert.Equal(t, 48, img.Width)
		assert.Equal(t, 32, img.Height)
		assert.Equal(t, "a gradient", img.AIDescription)
		assert.NotEmpty(t, img.SourceURL)

		row := store.bySourceName("pic.png")
		require.NotNil(t, row)
		assert.Equal(t, img.SourceURL, row.SourceURL)
		assert.Equal(t, "a gradient", row.Content)
	})

	t.Run("invalid batch returns a batch error and touches nothing", func(t *testing.T) {
		store := newFakeStore()
		p := newTestPipeline(store, newFakeUploader(), &fakeDescriber{}, NewEngineConverter(zap.NewNop()))

		_, err := p.Run(ctx, "user-1", []FileSubmission{{Filename: "a.exe", Data: []byte("xx")}}, nil, nil)
		var be *BatchError
		require.ErrorAs(t, err, &be)
		assert.Empty(t, store.inserted)
	})

	t.Run("unknown project rejects the batch", func(t *testing.T) {
		store := newFakeStore()
		p := newTestPipeline(store, newFakeUploader(), &fakeDescriber{}, NewEngineConverter(zap.NewNop()))

		project := "ghost"
		_, err := p.Run(ctx, "user-1", []FileSubmission{textFile("a.txt", 200)}, &project, nil)
		var be *BatchError
		require.ErrorAs(t, err, &be)
		assert.Contains(t, be.Message, "does not exist")
	})

	t.Run("foreign project rejects the batch", func(t *testing.T) {
		store := newFakeStore()
		store.projectAuthors["p1"] = "someone-else"
		p := newTestPipeline(store, newFakeUploader(), &fakeDescriber{}, NewEngineConverter(zap.NewNop()))

		project := "p1"
		_, err := p.Run(ctx, "user-1", []FileSubmission{textFile("a.txt", 200)}, &project, nil)
		var be *BatchError
		require.ErrorAs(t, err, &be)
		assert.Contains(t, be.Message, "project author")
	})

	t.Run("own project is accepted and recorded on the row", func(t *testing.T) {
		store := newFakeStore()
		store.projectAuthors["p1"] = "user-1"
		p := newTestPipeline(store, newFakeUploader(), &fakeDescriber{}, NewEngineConverter(zap.NewNop()))

		project, session := "p1", "s1"
		outcomes, err := p.Run(ctx, "user-1", []FileSubmission{textFile("a.txt", 200)}, &project, &session)
		require.NoError(t, err)
		require.Len(t, outcomes, 1)

		row := store.bySourceName("a.txt")
		require.NotNil(t, row)
		require.NotNil(t, row.ProjectID)
		assert.Equal(t, "p1", *row.ProjectID)
		require.NotNil(t, row.SessionID)
		assert.Equal(t, "s1", *row.SessionID)
	})

	t.Run("one failing file leaves the rest of the batch intact", func(t *testing.T) {
		store := newFakeStore()
		store.failOn["bad.txt"] = true
		p := newTestPipeline(store, newFakeUploader(), &fakeDescriber{}, NewEngineConverter(zap.NewNop()))

		batch := []FileSubmission{
			textFile("ok1.txt", 200),
			textFile("bad.txt", 200),
			textFile("ok2.txt", 200),
		}
		outcomes, err := p.Run(ctx, "user-1", batch, nil, nil)
		require.NoError(t, err)
		require.Len(t, outcomes, 3)

		_, ok := outcomes[0].(DocumentOutcome)
		assert.True(t, ok)
		fail, ok := outcomes[1].(ErrorOutcome)
		require.True(t, ok)
		assert.Equal(t, "bad.txt", fail.Filename)
		_, ok = outcomes[2].(DocumentOutcome)
		assert.True(t, ok)
	})

	t.Run("document with artifacts nests its images", func(t *testing.T) {
		store := newFakeStore()
		converter := &fakeConverter{result: &core.ConversionResult{
			Markdown: "parsed body",
			Artifacts: []core.EmbeddedArtifact{
				{Kind: core.ArtifactPicture, Image: testImage(20, 20)},
				{Kind: core.ArtifactTable, Cells: [][]string{{"a"}}},
			},
		}}
		p := newTestPipeline(store, newFakeUploader(), &fakeDescriber{description: "desc"}, converter)

		outcomes, err := p.Run(ctx, "user-1", []FileSubmission{textFile("rich.pdf", 200)}, nil, nil)
		require.NoError(t, err)
		require.Len(t, outcomes, 1)

		doc, ok := outcomes[0].(DocumentOutcome)
		require.True(t, ok)
		assert.Equal(t, 2, doc.ExtractedImages)
		require.Len(t, doc.Images, 2)
		assert.Equal(t, "rich-picture1.png", doc.Images[0].SourceName)
		assert.Equal(t, "rich-table2.png", doc.Images[1].SourceName)

		// two child rows plus the parent document
		assert.Len(t, store.inserted, 3)
	})

	t.Run("failed uploads of artifacts do not block the parent document", func(t *testing.T) {
		store := newFakeStore()
		uploader := newFakeUploader()
		uploader.failOn["rich-picture1.png"] = true
		converter := &fakeConverter{result: &core.ConversionResult{
			Markdown: "parsed body",
			Artifacts: []core.EmbeddedArtifact{
				{Kind: core.ArtifactPicture, Image: testImage(20, 20)},
			},
		}}
		p := newTestPipeline(store, uploader, &fakeDescriber{}, converter)

		outcomes, err := p.Run(ctx, "user-1", []FileSubmission{textFile("rich.pdf", 200)}, nil, nil)
		require.NoError(t, err)

		doc, ok := outcomes[0].(DocumentOutcome)
		require.True(t, ok)
		assert.Zero(t, doc.ExtractedImages)
		require.NotNil(t, store.bySourceName("rich.pdf"))
	})
}
