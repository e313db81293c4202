package queue

import (
	"database/sql"
	"errors"
	"time"
)

const storyColumns = "id, source_id, subject, from_addr, url, url_password, raw_text, raw_html, title, author, content_text, extraction_strategy, chunking_strategy, status, error_message, retry_count, send_immediately, received_at, updated_at"

const chunkColumns = "id, story_id, chunk_number, total_chunks, content, word_count, artifact_path, created_at, sent_at"

func scanStory(scanner interface{ Scan(dest ...any) error }) (*Story, error) {
	var (
		id                 int64
		sourceID           string
		subject            sql.NullString
		fromAddr           sql.NullString
		url                sql.NullString
		urlPassword        sql.NullString
		rawText            sql.NullString
		rawHTML            sql.NullString
		title              sql.NullString
		author             sql.NullString
		contentText        sql.NullString
		extractionStrategy sql.NullString
		chunkingStrategy   sql.NullString
		statusStr          string
		errorMessage       sql.NullString
		retryCount         sql.NullInt64
		sendImmediately    sql.NullInt64
		receivedRaw        sql.NullString
		updatedRaw         sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceID,
		&subject,
		&fromAddr,
		&url,
		&urlPassword,
		&rawText,
		&rawHTML,
		&title,
		&author,
		&contentText,
		&extractionStrategy,
		&chunkingStrategy,
		&statusStr,
		&errorMessage,
		&retryCount,
		&sendImmediately,
		&receivedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	story := &Story{
		ID:                 id,
		SourceID:           sourceID,
		Subject:            subject.String,
		FromAddr:           fromAddr.String,
		URL:                url.String,
		URLPassword:        urlPassword.String,
		RawText:            rawText.String,
		RawHTML:            rawHTML.String,
		Title:              title.String,
		Author:             author.String,
		ContentText:        contentText.String,
		ExtractionStrategy: extractionStrategy.String,
		ChunkingStrategy:   chunkingStrategy.String,
		Status:             Status(statusStr),
		ErrorMessage:       errorMessage.String,
	}
	if retryCount.Valid {
		story.RetryCount = int(retryCount.Int64)
	}
	if sendImmediately.Valid {
		story.SendImmediately = sendImmediately.Int64 != 0
	}
	if received, err := parseTimeString(receivedRaw.String); err == nil {
		story.ReceivedAt = received
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		story.UpdatedAt = updated
	}
	return story, nil
}

func scanChunk(scanner interface{ Scan(dest ...any) error }) (*Chunk, error) {
	var (
		id           int64
		storyID      int64
		chunkNumber  int
		totalChunks  int
		content      string
		wordCount    int
		artifactPath sql.NullString
		createdRaw   sql.NullString
		sentRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&storyID,
		&chunkNumber,
		&totalChunks,
		&content,
		&wordCount,
		&artifactPath,
		&createdRaw,
		&sentRaw,
	); err != nil {
		return nil, err
	}

	chunk := &Chunk{
		ID:           id,
		StoryID:      storyID,
		ChunkNumber:  chunkNumber,
		TotalChunks:  totalChunks,
		Content:      content,
		WordCount:    wordCount,
		ArtifactPath: artifactPath.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		chunk.CreatedAt = created
	}
	if sentRaw.Valid {
		if sent, err := parseTimeString(sentRaw.String); err == nil {
			chunk.SentAt = &sent
		}
	}
	return chunk, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
