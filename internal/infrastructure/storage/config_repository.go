package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"newsposter/internal/domain"
	"newsposter/internal/ports"
)

var _ ports.ConfigStore = (*ConfigRepository)(nil)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

var configColumns = []string{
	"id", "user_id", "api_key", "api_secret", "access_token",
	"access_token_secret", "is_active", "schedule_interval_minutes",
	"created_at", "updated_at",
}

// ConfigRepository persists posting profiles in Postgres.
type ConfigRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ConfigRepository) ListActive(ctx context.Context) ([]domain.PostingConfig, error) {
	query, args, err := r.sb.
		Select(configColumns...).
		From("posting_configs").
		Where(sq.Eq{"is_active": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.PostingConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}

	return configs, rows.Err()
}

func (r *ConfigRepository) List(ctx context.Context) ([]domain.PostingConfig, error) {
	query, args, err := r.sb.
		Select(configColumns...).
		From("posting_configs").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.PostingConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}

	return configs, rows.Err()
}

func (r *ConfigRepository) Get(ctx context.Context, id int64) (*domain.PostingConfig, error) {
	query, args, err := r.sb.
		Select(configColumns...).
		From("posting_configs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	cfg, err := scanConfig(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (r *ConfigRepository) Create(ctx context.Context, cfg domain.PostingConfig) (*domain.PostingConfig, error) {
	query, args, err := r.sb.
		Insert("posting_configs").
		Columns("user_id", "api_key", "api_secret", "access_token",
			"access_token_secret", "is_active", "schedule_interval_minutes").
		Values(cfg.UserID, cfg.Credentials.APIKey, cfg.Credentials.APISecret,
			cfg.Credentials.AccessToken, cfg.Credentials.AccessTokenSecret,
			cfg.IsActive, cfg.ScheduleIntervalMinutes).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create config: %w", err)
	}

	return &cfg, nil
}

func (r *ConfigRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query, args, err := r.sb.
		Update("posting_configs").
		Set("is_active", active).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("config %d: %w", id, ErrNotFound)
	}

	return nil
}

func (r *ConfigRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.
		Delete("posting_configs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete config: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("config %d: %w", id, ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*domain.PostingConfig, error) {
	var cfg domain.PostingConfig
	err := row.Scan(
		&cfg.ID,
		&cfg.UserID,
		&cfg.Credentials.APIKey,
		&cfg.Credentials.APISecret,
		&cfg.Credentials.AccessToken,
		&cfg.Credentials.AccessTokenSecret,
		&cfg.IsActive,
		&cfg.ScheduleIntervalMinutes,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}
	return &cfg, nil
}
