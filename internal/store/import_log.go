package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// CreateImportLog 创建导入日志
func (s *Store) CreateImportLog(ctx context.Context, log *model.ImportLog) error {
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO import_logs (id, filename, file_size, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`), log.ID, log.Filename, log.FileSize, string(log.Status), log.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create import log: %w", err)
	}
	return nil
}

// FinishImportLog 完成导入日志更新
func (s *Store) FinishImportLog(ctx context.Context, log *model.ImportLog) error {
	if log.CompletedAt == nil {
		now := time.Now().UTC()
		log.CompletedAt = &now
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE import_logs SET
			status = ?,
			header_row = ?,
			article_column = ?,
			date_columns = ?,
			extracted = ?,
			inserted = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?
	`), string(log.Status), log.HeaderRow, log.ArticleColumn, log.DateColumns,
		log.Extracted, log.Inserted, log.ErrorMessage, *log.CompletedAt, log.ID)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入日志，新的在前
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, filename, file_size, status, header_row, article_column, date_columns,
		       extracted, inserted, error_message, started_at, completed_at
		FROM import_logs
		ORDER BY started_at DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import logs: %w", err)
	}
	defer rows.Close()

	result := make([]model.ImportLog, 0)
	for rows.Next() {
		var (
			l         model.ImportLog
			status    string
			completed sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.Filename, &l.FileSize, &status, &l.HeaderRow, &l.ArticleColumn,
			&l.DateColumns, &l.Extracted, &l.Inserted, &l.ErrorMessage, &l.StartedAt, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		l.Status = model.ImportStatus(status)
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import logs: %w", err)
	}
	return result, nil
}
