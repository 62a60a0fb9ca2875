package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/autoprovider/fileparse/internal/config"
	"github.com/autoprovider/fileparse/internal/core"
	"github.com/autoprovider/fileparse/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.SourceStore = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *DatabaseClient) InsertSource(ctx context.Context, src *models.Source) error {
	if src == nil {
		return errors.New("nil source")
	}
	const q = `
		INSERT INTO source_list
			(source_id, source_url, source_type, project_id, source_status, create_time,
			 source_content, own_user_id, file_size, dialogue_id, session_id, source_name)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()), $7, $8, $9, $10, $11, $12)
	`
	_, err := c.db.ExecContext(ctx, q,
		src.SourceID, src.SourceURL, src.SourceType, src.ProjectID, src.Status, src.CreatedAt,
		src.Content, src.OwnerUserID, src.FileSize, src.DialogueID, src.SessionID, src.SourceName)
	return err
}

// ListUnboundSources returns the caller's active sources that have no
// dialogue yet. Session filter wins over project filter; with neither, only
// sources with no project are returned.
func (c *DatabaseClient) ListUnboundSources(ctx context.Context, userID string, f models.UnboundFilter) ([]models.Source, error) {
	where := []string{"source_status = 0", "own_user_id = $1", "dialogue_id IS NULL"}
	args := []any{userID}

	switch {
	case f.SessionID != nil:
		args = append(args, *f.SessionID)
		where = append(where, fmt.Sprintf("session_id = $%d", len(args)))
	case f.ProjectID != nil:
		args = append(args, *f.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	default:
		where = append(where, "project_id IS NULL")
	}

	args = append(args, f.Limit)
	q := fmt.Sprintf(`
		SELECT source_id, source_url, source_type, project_id, source_status, create_time,
		       file_size, dialogue_id, session_id, source_name
		FROM source_list
		WHERE %s
		ORDER BY create_time DESC
		LIMIT $%d
	`, strings.Join(where, " AND "), len(args))

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Source
	for rows.Next() {
		var s models.Source
		if err := rows.Scan(
			&s.SourceID, &s.SourceURL, &s.SourceType, &s.ProjectID, &s.Status, &s.CreatedAt,
			&s.FileSize, &s.DialogueID, &s.SessionID, &s.SourceName,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// BindSources applies the binding to every listed source the caller owns that
// is still active, and reports how many rows changed.
func (c *DatabaseClient) BindSources(ctx context.Context, userID string, sourceIDs []string, b models.Binding) (int64, error) {
	if len(sourceIDs) == 0 || b.Empty() {
		return 0, nil
	}

	var sets []string
	var args []any
	if b.ProjectID != nil {
		args = append(args, *b.ProjectID)
		sets = append(sets, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if b.SessionID != nil {
		args = append(args, *b.SessionID)
		sets = append(sets, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if b.DialogueID != nil {
		args = append(args, *b.DialogueID)
		sets = append(sets, fmt.Sprintf("dialogue_id = $%d", len(args)))
	}

	placeholders := make([]string, len(sourceIDs))
	for i, id := range sourceIDs {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	args = append(args, userID)

	q := fmt.Sprintf(`
		UPDATE source_list
		SET %s
		WHERE source_id IN (%s)
		  AND own_user_id = $%d
		  AND source_status = 0
	`, strings.Join(sets, ", "), strings.Join(placeholders, ", "), len(args))

	res, err := c.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CancelSource flips an active source the caller owns to cancelled. Rows are
// never deleted.
func (c *DatabaseClient) CancelSource(ctx context.Context, userID, sourceID string) (int64, error) {
	const q = `
		UPDATE source_list
		SET source_status = 1
		WHERE source_id = $1 AND own_user_id = $2 AND source_status = 0
	`
	res, err := c.db.ExecContext(ctx, q, sourceID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *DatabaseClient) ProjectAuthor(ctx context.Context, projectID string) (string, error) {
	const q = `
		SELECT author_id FROM project_info
		WHERE project_id = $1 AND project_status = 0
	`
	var author string
	err := c.db.QueryRowContext(ctx, q, projectID).Scan(&author)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return author, nil
}
