package store

import (
	"context"
	"fmt"
	"time"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// ListRange 获取 [start, end) 内的记录，按物料、日期排序
func (s *Store) ListRange(ctx context.Context, start, end model.Date) ([]model.PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT article, plan_date, qty
		FROM plan_records
		WHERE plan_date >= ? AND plan_date < ?
		ORDER BY article, plan_date
	`), start.Key(), end.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to query plan records: %w", err)
	}
	defer rows.Close()

	result := make([]model.PlanRecord, 0)
	for rows.Next() {
		var (
			r       model.PlanRecord
			dateStr string
		)
		if err := rows.Scan(&r.Article, &dateStr, &r.Qty); err != nil {
			return nil, fmt.Errorf("failed to scan plan record: %w", err)
		}
		d, err := model.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("bad plan_date in storage: %w", err)
		}
		r.Date = d
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan records: %w", err)
	}
	return result, nil
}

// UpsertBatch 在一个事务中写入记录，同键覆盖
func (s *Store) UpsertBatch(ctx context.Context, records []model.PlanRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO plan_records (article, plan_date, qty, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (article, plan_date) DO UPDATE SET
			qty = excluded.qty,
			updated_at = excluded.updated_at
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, model.NormalizeArticle(r.Article), r.Date.Key(), r.Qty, now); err != nil {
			return fmt.Errorf("failed to upsert record %s: %w", r.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RenameArticle 将 oldArticle 的全部记录移到 newArticle 下，返回移动条数
// 与 newArticle 已有记录同日冲突时，移动过来的值覆盖原值
func (s *Store) RenameArticle(ctx context.Context, oldArticle, newArticle string) (int, error) {
	oldArticle = model.NormalizeArticle(oldArticle)
	newArticle = model.NormalizeArticle(newArticle)
	if oldArticle == newArticle {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 先删除目标物料上将被覆盖的日期
	if _, err := tx.ExecContext(ctx, s.rebind(`
		DELETE FROM plan_records
		WHERE article = ?
		  AND plan_date IN (SELECT plan_date FROM plan_records WHERE article = ?)
	`), newArticle, oldArticle); err != nil {
		return 0, fmt.Errorf("failed to clear conflicting records: %w", err)
	}

	res, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE plan_records SET article = ?, updated_at = ? WHERE article = ?
	`), newArticle, time.Now().UTC(), oldArticle)
	if err != nil {
		return 0, fmt.Errorf("failed to rename article: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(moved), nil
}

// Stats 存储概况
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT article),
		       COALESCE(MIN(plan_date), ''), COALESCE(MAX(plan_date), '')
		FROM plan_records
	`).Scan(&st.Records, &st.Articles, &st.FirstDate, &st.LastDate)
	if err != nil {
		return st, fmt.Errorf("failed to query stats: %w", err)
	}
	return st, nil
}
