package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NewStoryParams captures the raw submission for a story. The raw inputs are
// persisted verbatim so retries can rerun the whole pipeline.
type NewStoryParams struct {
	SourceID        string
	Subject         string
	FromAddr        string
	URL             string
	URLPassword     string
	RawText         string
	RawHTML         string
	SendImmediately bool
}

// NewStory inserts a pending story. If a story with the same source ID is
// already queued, the existing story is returned along with ErrDuplicateStory.
func (s *Store) NewStory(ctx context.Context, params NewStoryParams) (*Story, error) {
	sourceID := strings.TrimSpace(params.SourceID)
	if sourceID == "" {
		return nil, errors.New("source id is required")
	}

	if existing, err := s.FindBySourceID(ctx, sourceID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, ErrDuplicateStory
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stories (
            source_id, subject, from_addr, url, url_password, raw_text, raw_html,
            status, retry_count, send_immediately, received_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		sourceID,
		nullableString(params.Subject),
		nullableString(params.FromAddr),
		nullableString(params.URL),
		nullableString(params.URLPassword),
		nullableString(params.RawText),
		nullableString(params.RawHTML),
		StatusPending,
		boolToInt(params.SendImmediately),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert story: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a story by identifier. Returns nil when the story does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Story, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = ?`, id)
	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	return story, nil
}

// FindBySourceID returns the story matching a source identifier, or nil.
func (s *Store) FindBySourceID(ctx context.Context, sourceID string) (*Story, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+storyColumns+` FROM stories WHERE source_id = ? LIMIT 1`,
		sourceID,
	)
	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by source id: %w", err)
	}
	return story, nil
}

// Update persists changes to an existing story. Status changes should go
// through Transition so the lifecycle table is enforced.
func (s *Store) Update(ctx context.Context, story *Story) error {
	if story == nil {
		return errors.New("story is nil")
	}
	story.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE stories
         SET subject = ?, from_addr = ?, url = ?, url_password = ?, raw_text = ?,
             raw_html = ?, title = ?, author = ?, content_text = ?,
             extraction_strategy = ?, chunking_strategy = ?, status = ?,
             error_message = ?, retry_count = ?, send_immediately = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(story.Subject),
		nullableString(story.FromAddr),
		nullableString(story.URL),
		nullableString(story.URLPassword),
		nullableString(story.RawText),
		nullableString(story.RawHTML),
		nullableString(story.Title),
		nullableString(story.Author),
		nullableString(story.ContentText),
		nullableString(story.ExtractionStrategy),
		nullableString(story.ChunkingStrategy),
		story.Status,
		nullableString(story.ErrorMessage),
		story.RetryCount,
		boolToInt(story.SendImmediately),
		story.UpdatedAt.Format(time.RFC3339Nano),
		story.ID,
	)
	if err != nil {
		return fmt.Errorf("update story: %w", err)
	}
	return nil
}

// Transition moves a story to a new status, enforcing the lifecycle table.
// Moving into failed records the error message and increments the retry
// counter. A manual return from failed to pending clears both.
func (s *Store) Transition(ctx context.Context, id int64, to Status, errorMessage string) (*Story, error) {
	story, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, fmt.Errorf("story %d: %w", id, ErrNotFound)
	}
	if !CanTransition(story.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, story.Status, to)
	}

	switch {
	case to == StatusFailed:
		story.RetryCount++
		story.ErrorMessage = errorMessage
	case story.Status == StatusFailed && to == StatusPending:
		story.RetryCount = 0
		story.ErrorMessage = ""
	case story.Status == StatusFailed && to == StatusProcessing:
		story.ErrorMessage = ""
	}
	story.Status = to

	if err := s.Update(ctx, story); err != nil {
		return nil, err
	}
	return story, nil
}

// List returns stories filtered by status set (or all stories when no status
// is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Story, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + storyColumns + ` FROM stories`
	orderClause := ` ORDER BY received_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []*Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

// NextForStatuses returns the oldest story matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Story, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + storyColumns + ` FROM stories WHERE status IN (` + placeholders + `) ORDER BY received_at, id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return story, nil
}

// RetryEligible returns failed stories whose retry count is below the limit,
// oldest first.
func (s *Store) RetryEligible(ctx context.Context, maxRetries int) ([]*Story, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+storyColumns+` FROM stories WHERE status = ? AND retry_count < ? ORDER BY received_at, id`,
		StatusFailed,
		maxRetries,
	)
	if err != nil {
		return nil, fmt.Errorf("query retry eligible: %w", err)
	}
	defer rows.Close()

	var stories []*Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

// RetryFailed moves failed stories back to pending for reprocessing, clearing
// the error message and retry counter. With no IDs, all failed stories are reset.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE stories
            SET status = ?, error_message = NULL, retry_count = 0, updated_at = ?
            WHERE status = ?`,
			StatusPending,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed stories: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, timestamp)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE stories
        SET status = ?, error_message = NULL, retry_count = 0, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected stories: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckProcessing resets stories left in processing back to pending.
// Called at daemon startup to recover from crashes mid-pipeline.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE stories SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck stories: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a story and its chunks.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	return nil
}

// Clear removes stories matching the provided statuses (or everything when
// none are given) and returns the number of stories removed.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		res, err := s.db.ExecContext(ctx, `DELETE FROM stories`)
		if err != nil {
			return 0, fmt.Errorf("clear queue: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM stories WHERE status IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
