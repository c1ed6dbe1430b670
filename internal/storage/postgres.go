package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"linkvault/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewPostgresRepository connects, configures the pool, and runs the
// embedded goose migrations.
func NewPostgresRepository(dsn string, logger logrus.FieldLogger) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to PostgreSQL, migrations applied")

	return &PostgresRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) CreateUser(ctx context.Context, name, phone, passwordHash string) (*domain.User, error) {
	user := &domain.User{Name: name, Phone: phone, PasswordHash: passwordHash}
	query := `
		INSERT INTO users (name, phone, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, name, phone, passwordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

const userColumns = "id, name, phone, password_hash, chat_id, created_at"

func (r *PostgresRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var chatID sql.NullString
	err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.PasswordHash, &chatID, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	user.ChatID = chatID.String
	return user, nil
}

func (r *PostgresRepository) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE phone = $1", userColumns)
	return r.scanUser(r.db.QueryRowContext(ctx, query, phone))
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetUserByChatID(ctx context.Context, chatID string) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE chat_id = $1", userColumns)
	return r.scanUser(r.db.QueryRowContext(ctx, query, chatID))
}

func (r *PostgresRepository) LinkChatID(ctx context.Context, userID int64, chatID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET chat_id = $2 WHERE id = $1`, userID, chatID)
	if err != nil {
		return fmt.Errorf("failed to link chat id: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) SaveLink(ctx context.Context, link *domain.SavedLink) error {
	exists, err := r.LinkExists(ctx, link.UserID, link.URL)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateLink
	}

	query := `
		INSERT INTO saved_links (user_id, original_url, platform, extracted_text, ai_summary, category, thumbnail_url, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, saved_at`

	err = r.db.QueryRowContext(ctx, query,
		link.UserID, link.URL, string(link.Platform),
		nullable(link.ExtractedText), link.Summary, string(link.Category),
		nullable(link.ThumbnailURL), link.Tags).
		Scan(&link.ID, &link.SavedAt)
	if err != nil {
		// The unique index backstops a race between the pre-check and
		// the insert.
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateLink
		}
		return fmt.Errorf("failed to save link: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"user_id":  link.UserID,
		"url":      link.URL,
		"category": link.Category,
	}).Info("Link saved")
	return nil
}

func (r *PostgresRepository) LinkExists(ctx context.Context, userID int64, canonicalURL string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM saved_links WHERE user_id = $1 AND original_url = $2)`,
		userID, canonicalURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Search(ctx context.Context, userID int64, query, category string) ([]domain.SavedLink, error) {
	sqlQuery, args := buildSearchQuery(userID, query, category)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search links: %w", err)
	}
	defer rows.Close()

	hasScore := strings.Contains(sqlQuery, "AS relevance")
	var links []domain.SavedLink
	for rows.Next() {
		link, err := scanLink(rows, hasScore)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link rows: %w", err)
	}
	return links, nil
}

func (r *PostgresRepository) RandomLink(ctx context.Context, userID int64) (*domain.SavedLink, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM saved_links WHERE user_id = $1 ORDER BY RANDOM() LIMIT 1", linkColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to pick random link: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrLinkNotFound
	}
	return scanLink(rows, false)
}

func (r *PostgresRepository) DeleteLink(ctx context.Context, userID, linkID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_links WHERE id = $1 AND user_id = $2`, linkID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func scanLink(rows *sql.Rows, hasScore bool) (*domain.SavedLink, error) {
	link := &domain.SavedLink{}
	var platform, category string
	var extractedText, thumbnail sql.NullString
	var tags sql.NullString

	dest := []any{
		&link.ID, &link.UserID, &link.URL, &platform, &extractedText,
		&link.Summary, &category, &thumbnail, &tags, &link.SavedAt,
	}
	if hasScore {
		var relevance int
		dest = append(dest, &relevance)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan link row: %w", err)
	}

	link.Platform = domain.Platform(platform)
	link.Category = domain.Category(category)
	link.ExtractedText = extractedText.String
	link.ThumbnailURL = thumbnail.String
	link.Tags = tags.String
	return link, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
