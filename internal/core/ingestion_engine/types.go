package ingestion_engine

import "fmt"

// FileSubmission is one item of an upload batch. It only lives for the
// duration of the request.
type FileSubmission struct {
	Filename string
	Data     []byte
}

// FileOutcome is the per-file result of a batch run: one of DocumentOutcome,
// ImageOutcome or ErrorOutcome.
type FileOutcome interface {
	fileOutcome()
}

// ArtifactOutcome describes one image extracted out of a document, for the
// caller's UI. The full AI description is persisted; only a prefix travels in
// the response.
type ArtifactOutcome struct {
	SourceID      string `json:"source_id"`
	SourceURL     string `json:"source_url"`
	SourceType    string `json:"source_type"`
	SourceName    string `json:"source_name"`
	AIDescription string `json:"ai_description"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
}

// DocumentOutcome reports a successfully parsed document. SourceURL is always
// empty; the text lives in the database, not in object storage.
type DocumentOutcome struct {
	SourceID        string            `json:"source_id"`
	SourceURL       string            `json:"source_url"`
	SourceType      string            `json:"source_type"`
	Filename        string            `json:"filename"`
	SourceName      string            `json:"source_name"`
	ContentLength   int               `json:"content_length"`
	ExtractedImages int               `json:"extracted_images"`
	Images          []ArtifactOutcome `json:"images"`
}

// ImageOutcome reports a successfully ingested image upload.
type ImageOutcome struct {
	SourceID      string `json:"source_id"`
	SourceURL     string `json:"source_url"`
	SourceType    string `json:"source_type"`
	Filename      string `json:"filename"`
	SourceName    string `json:"source_name"`
	AIDescription string `json:"ai_description"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
}

// ErrorOutcome reports a file whose processing failed. The rest of the batch
// is unaffected.
type ErrorOutcome struct {
	Error    string `json:"error"`
	Filename string `json:"filename"`
}

func (DocumentOutcome) fileOutcome() {}
func (ImageOutcome) fileOutcome()    {}
func (ErrorOutcome) fileOutcome()    {}

// BatchError rejects an entire upload batch before any file is processed.
// Handlers map it to a 400 response.
type BatchError struct {
	Message string
}

func (e *BatchError) Error() string { return e.Message }

func batchErrorf(format string, args ...any) *BatchError {
	return &BatchError{Message: fmt.Sprintf(format, args...)}
}
