package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"newsposter/internal/domain"
	"newsposter/internal/ports"
)

var _ ports.PostLogStore = (*PostLogRepository)(nil)

// PostLogRepository is the append-only audit log of published posts.
type PostLogRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewPostLogRepository(db *sql.DB) *PostLogRepository {
	return &PostLogRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostLogRepository) Create(ctx context.Context, record domain.PostedRecord) (*domain.PostedRecord, error) {
	query, args, err := r.sb.
		Insert("posted_records").
		Columns("config_id", "post_text", "image_url", "source_url",
			"source_title", "source_media", "posted_at").
		Values(record.ConfigID, record.PostText, nullable(record.ImageURL),
			record.SourceURL, record.SourceTitle, record.SourceMedia,
			record.PostedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&record.ID); err != nil {
		return nil, fmt.Errorf("create post record: %w", err)
	}

	return &record, nil
}

func (r *PostLogRepository) ListByConfig(ctx context.Context, configID int64, limit, offset int) ([]domain.PostedRecord, error) {
	query, args, err := r.sb.
		Select("id", "config_id", "post_text", "image_url", "source_url",
			"source_title", "source_media", "posted_at").
		From("posted_records").
		Where(sq.Eq{"config_id": configID}).
		OrderBy("posted_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list post records: %w", err)
	}
	defer rows.Close()

	var records []domain.PostedRecord
	for rows.Next() {
		var rec domain.PostedRecord
		var imageURL sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ConfigID, &rec.PostText, &imageURL,
			&rec.SourceURL, &rec.SourceTitle, &rec.SourceMedia, &rec.PostedAt); err != nil {
			return nil, fmt.Errorf("scan post record: %w", err)
		}
		rec.ImageURL = imageURL.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *PostLogRepository) CountByConfig(ctx context.Context, configID int64) (int, error) {
	query, args, err := r.sb.
		Select("COUNT(*)").
		From("posted_records").
		Where(sq.Eq{"config_id": configID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count post records: %w", err)
	}

	return count, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
