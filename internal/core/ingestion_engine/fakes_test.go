package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/autoprovider/fileparse/internal/core"
	"github.com/autoprovider/fileparse/internal/models"
)

// fakeStore records inserted sources in memory. failOn matches on SourceName
// to let tests fail a single file inside a batch.
type fakeStore struct {
	mu       sync.Mutex
	inserted []*models.Source
	failOn   map[string]bool

	projectAuthors map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{failOn: map[string]bool{}, projectAuthors: map[string]string{}}
}

func (s *fakeStore) InsertSource(_ context.Context, src *models.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[src.SourceName] {
		return errors.New("insert refused")
	}
	s.inserted = append(s.inserted, src)
	return nil
}

func (s *fakeStore) ListUnboundSources(context.Context, string, models.UnboundFilter) ([]models.Source, error) {
	return nil, nil
}

func (s *fakeStore) BindSources(context.Context, string, []string, models.Binding) (int64, error) {
	return 0, nil
}

func (s *fakeStore) CancelSource(context.Context, string, string) (int64, error) {
	return 0, nil
}

func (s *fakeStore) ProjectAuthor(_ context.Context, projectID string) (string, error) {
	return s.projectAuthors[projectID], nil
}

func (s *fakeStore) Ping(context.Context) error { return nil }
func (s *fakeStore) Close() error               { return nil }

func (s *fakeStore) bySourceName(name string) *models.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.inserted {
		if src.SourceName == name {
			return src
		}
	}
	return nil
}

// fakeUploader hands out deterministic URLs and can fail specific filenames.
type fakeUploader struct {
	mu       sync.Mutex
	uploads  []string
	failOn   map[string]bool
	failPing bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{failOn: map[string]bool{}}
}

func (u *fakeUploader) Upload(_ context.Context, _ []byte, filename string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failOn[filename] {
		return "", errors.New("upload refused")
	}
	u.uploads = append(u.uploads, filename)
	return fmt.Sprintf("https://cdn.example.com/%s", filename), nil
}

func (u *fakeUploader) Ping(context.Context) error {
	if u.failPing {
		return errors.New("ping failed")
	}
	return nil
}

// fakeDescriber returns a canned description, or an error when told to fail.
type fakeDescriber struct {
	description string
	err         error
	calls       int
}

func (d *fakeDescriber) Describe(context.Context, string) (string, error) {
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	return d.description, nil
}

// fakeConverter returns a fixed result without touching any real engine.
type fakeConverter struct {
	result *core.ConversionResult
	err    error
}

func (c *fakeConverter) Convert(context.Context, []byte, string) (*core.ConversionResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}
