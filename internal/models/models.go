package models

import (
	"time"
)

// Source status values stored in source_list.source_status.
const (
	SourceStatusActive    = 0
	SourceStatusCancelled = 1
)

// Source is one row of the source_list table: a parsed document, a directly
// uploaded image, or an image extracted out of a document. Rows are never
// deleted; cancelling flips source_status to 1.
type Source struct {
	SourceID    string    `db:"source_id" json:"source_id"`
	SourceURL   string    `db:"source_url" json:"source_url"` // empty unless the source is an image
	SourceType  string    `db:"source_type" json:"source_type"`
	ProjectID   *string   `db:"project_id" json:"project_id"`
	Status      int       `db:"source_status" json:"source_status"`
	CreatedAt   time.Time `db:"create_time" json:"-"`
	Content     string    `db:"source_content" json:"-"` // parsed text or AI description, never returned by list APIs
	OwnerUserID string    `db:"own_user_id" json:"-"`
	FileSize    int64     `db:"file_size" json:"file_size"`
	DialogueID  *string   `db:"dialogue_id" json:"dialogue_id"`
	SessionID   *string   `db:"session_id" json:"session_id"`
	SourceName  string    `db:"source_name" json:"source_name"`
}

// UnboundFilter narrows the unbound-sources listing. Session takes precedence
// over project; with neither set, only sources bound to no project are listed.
type UnboundFilter struct {
	SessionID *string
	ProjectID *string
	Limit     int
}

// Binding carries the associations applied by a bind_sources call.
type Binding struct {
	ProjectID  *string
	SessionID  *string
	DialogueID *string
}

// Empty reports whether the binding sets no field at all.
func (b Binding) Empty() bool {
	return b.ProjectID == nil && b.SessionID == nil && b.DialogueID == nil
}
