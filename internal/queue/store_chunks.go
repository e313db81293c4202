package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReplaceChunks atomically swaps a story's chunks for a fresh set. Existing
// chunks are removed first so a retried story never mixes old and new
// installments. Chunk numbers must be contiguous starting at 1.
func (s *Store) ReplaceChunks(ctx context.Context, storyID int64, chunks []Chunk) error {
	if len(chunks) == 0 {
		return errors.New("no chunks to store")
	}
	for i, chunk := range chunks {
		if chunk.ChunkNumber != i+1 {
			return fmt.Errorf("chunk numbers must be contiguous from 1, got %d at position %d", chunk.ChunkNumber, i)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE story_id = ?`, storyID); err != nil {
		return fmt.Errorf("clear existing chunks: %w", err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	total := len(chunks)
	for _, chunk := range chunks {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO chunks (
                story_id, chunk_number, total_chunks, content, word_count,
                artifact_path, created_at, sent_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
			storyID,
			chunk.ChunkNumber,
			total,
			chunk.Content,
			chunk.WordCount,
			nullableString(chunk.ArtifactPath),
			timestamp,
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.ChunkNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks: %w", err)
	}
	return nil
}

// ChunksByStory returns a story's chunks ordered by chunk number.
func (s *Store) ChunksByStory(ctx context.Context, storyID int64) ([]*Chunk, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE story_id = ? ORDER BY chunk_number`,
		storyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// GetChunk fetches a chunk by identifier. Returns nil when it does not exist.
func (s *Store) GetChunk(ctx context.Context, id int64) (*Chunk, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chunk: %w", err)
	}
	return chunk, nil
}

// NextUnsentChunk returns the next chunk due for delivery: the lowest-numbered
// unsent chunk of the oldest chunked story. Returns nil when nothing is due.
func (s *Store) NextUnsentChunk(ctx context.Context) (*DeliverableChunk, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT c.id, c.story_id, c.chunk_number, c.total_chunks, c.content,
                c.word_count, c.artifact_path, c.created_at, c.sent_at,
                s.title, s.author
         FROM chunks c
         JOIN stories s ON s.id = c.story_id
         WHERE c.sent_at IS NULL AND s.status = ?
         ORDER BY s.received_at, s.id, c.chunk_number
         LIMIT 1`,
		StatusChunked,
	)

	var (
		chunk  Chunk
		title  sql.NullString
		author sql.NullString

		artifactPath sql.NullString
		createdRaw   sql.NullString
		sentRaw      sql.NullString
	)
	err := row.Scan(
		&chunk.ID,
		&chunk.StoryID,
		&chunk.ChunkNumber,
		&chunk.TotalChunks,
		&chunk.Content,
		&chunk.WordCount,
		&artifactPath,
		&createdRaw,
		&sentRaw,
		&title,
		&author,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next unsent chunk: %w", err)
	}

	chunk.ArtifactPath = artifactPath.String
	if created, parseErr := parseTimeString(createdRaw.String); parseErr == nil {
		chunk.CreatedAt = created
	}
	if sentRaw.Valid {
		if sent, parseErr := parseTimeString(sentRaw.String); parseErr == nil {
			chunk.SentAt = &sent
		}
	}

	return &DeliverableChunk{
		Chunk:       chunk,
		StoryTitle:  title.String,
		StoryAuthor: author.String,
	}, nil
}

// MarkChunkSent stamps a chunk's sent time only if it has not been sent yet.
// Returns false when the chunk was already sent, so concurrent delivery
// attempts cannot double-send.
func (s *Store) MarkChunkSent(ctx context.Context, chunkID int64, sentAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE chunks SET sent_at = ? WHERE id = ? AND sent_at IS NULL`,
		sentAt.UTC().Format(time.RFC3339Nano),
		chunkID,
	)
	if err != nil {
		return false, fmt.Errorf("mark chunk sent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetChunkArtifact records the filesystem path of a chunk's generated artifact.
func (s *Store) SetChunkArtifact(ctx context.Context, chunkID int64, path string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE chunks SET artifact_path = ? WHERE id = ?`,
		nullableString(path),
		chunkID,
	)
	if err != nil {
		return fmt.Errorf("set chunk artifact: %w", err)
	}
	return nil
}

// UnsentChunkCount returns how many of a story's chunks are still undelivered.
func (s *Store) UnsentChunkCount(ctx context.Context, storyID int64) (int, error) {
	var count int
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM chunks WHERE story_id = ? AND sent_at IS NULL`,
		storyID,
	)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count unsent chunks: %w", err)
	}
	return count, nil
}
