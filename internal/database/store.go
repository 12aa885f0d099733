package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the data access interface the rest of the application uses.
// Lookup methods return (nil, nil) when the row does not exist.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *User) error
	GetUserByTelegramID(ctx context.Context, tgUserID int64) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	UpdateUserChatID(ctx context.Context, userID, chatID int64) error
	UpdateUserLogin(ctx context.Context, userID int64, login string) error

	GetUserMeta(ctx context.Context, userID int64, key string) (string, error)
	SetUserMeta(ctx context.Context, userID int64, key, value string) error
	DeleteUserMeta(ctx context.Context, userID int64, key string) error
	ListUserIDsWithMeta(ctx context.Context, key string) ([]int64, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error

	ListCategories(ctx context.Context) ([]Category, error)

	CreatePost(ctx context.Context, post *Post) error
	UpdatePostContent(ctx context.Context, postID int64, content string) error
	GetPostByID(ctx context.Context, postID int64) (*Post, error)
	CountPosts(ctx context.Context, categoryIDs []int64, userID int64) (int, error)
	ListUserPosts(ctx context.Context, userID int64, categoryIDs []int64, limit int) ([]Post, error)
	HasPostSince(ctx context.Context, userID int64, since time.Time) (bool, error)

	SaveMessageRef(ctx context.Context, ref *MessageRef) error

	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx over SQLite.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser inserts a new user row. The Telegram id must be unique; a
// duplicate insert surfaces as a store validation error.
func (s *sqlxStore) CreateUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	if user.TGUserID == 0 {
		return fmt.Errorf("user must have a non-zero telegram id")
	}
	if strings.TrimSpace(user.Login) == "" {
		return fmt.Errorf("user must have a non-empty login")
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
        INSERT INTO users (tg_user_id, login, display_name, chat_id, created_at, updated_at)
        VALUES (:tg_user_id, :login, :display_name, :chat_id, :created_at, :updated_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating user", "tg_user_id", user.TGUserID, "error", err)
		return fmt.Errorf("failed to create user (tg id %d): %w", user.TGUserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		user.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after creating user",
			"tg_user_id", user.TGUserID, "error", err)
	}

	s.logger.DebugContext(ctx, "User created", "user_id", user.ID, "tg_user_id", user.TGUserID)
	return nil
}

func (s *sqlxStore) GetUserByTelegramID(ctx context.Context, tgUserID int64) (*User, error) {
	if tgUserID == 0 {
		return nil, fmt.Errorf("tg_user_id cannot be zero")
	}

	var user User
	query := `SELECT id, tg_user_id, login, display_name, chat_id, created_at, updated_at
	          FROM users WHERE tg_user_id = ?`

	err := s.db.GetContext(ctx, &user, query, tgUserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user by telegram id", "tg_user_id", tgUserID, "error", err)
		return nil, fmt.Errorf("failed to get user for telegram id %d: %w", tgUserID, err)
	}

	return &user, nil
}

func (s *sqlxStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	if id == 0 {
		return nil, fmt.Errorf("user id cannot be zero")
	}

	var user User
	query := `SELECT id, tg_user_id, login, display_name, chat_id, created_at, updated_at
	          FROM users WHERE id = ?`

	err := s.db.GetContext(ctx, &user, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user by id", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	return &user, nil
}

func (s *sqlxStore) UpdateUserChatID(ctx context.Context, userID, chatID int64) error {
	query := `UPDATE users SET chat_id = ?, updated_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, chatID, time.Now().UTC(), userID); err != nil {
		s.logger.ErrorContext(ctx, "Error updating user chat id", "user_id", userID, "error", err)
		return fmt.Errorf("failed to update chat id for user %d: %w", userID, err)
	}
	return nil
}

func (s *sqlxStore) UpdateUserLogin(ctx context.Context, userID int64, login string) error {
	if strings.TrimSpace(login) == "" {
		return fmt.Errorf("login cannot be empty")
	}
	query := `UPDATE users SET login = ?, updated_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, login, time.Now().UTC(), userID); err != nil {
		s.logger.ErrorContext(ctx, "Error updating user login", "user_id", userID, "error", err)
		return fmt.Errorf("failed to update login for user %d: %w", userID, err)
	}
	return nil
}

// GetUserMeta returns the stored value for (userID, key), or "" when unset.
func (s *sqlxStore) GetUserMeta(ctx context.Context, userID int64, key string) (string, error) {
	if userID == 0 || key == "" {
		return "", fmt.Errorf("user id and key are required")
	}

	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM user_meta WHERE user_id = ? AND key = ?`, userID, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user meta", "user_id", userID, "key", key, "error", err)
		return "", fmt.Errorf("failed to get meta %q for user %d: %w", key, userID, err)
	}

	return value, nil
}

func (s *sqlxStore) SetUserMeta(ctx context.Context, userID int64, key, value string) error {
	if userID == 0 || key == "" {
		return fmt.Errorf("user id and key are required")
	}

	query := `
        INSERT INTO user_meta (user_id, key, value, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;
    `
	if _, err := s.db.ExecContext(ctx, query, userID, key, value, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error setting user meta", "user_id", userID, "key", key, "error", err)
		return fmt.Errorf("failed to set meta %q for user %d: %w", key, userID, err)
	}
	return nil
}

func (s *sqlxStore) DeleteUserMeta(ctx context.Context, userID int64, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_meta WHERE user_id = ? AND key = ?`, userID, key); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting user meta", "user_id", userID, "key", key, "error", err)
		return fmt.Errorf("failed to delete meta %q for user %d: %w", key, userID, err)
	}
	return nil
}

// ListUserIDsWithMeta returns ids of users that have a non-empty value for
// the given meta key. Used by the reminder batch to find opted-in users.
func (s *sqlxStore) ListUserIDsWithMeta(ctx context.Context, key string) ([]int64, error) {
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}

	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `SELECT user_id FROM user_meta WHERE key = ? AND value != ''`, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing users with meta", "key", key, "error", err)
		return nil, fmt.Errorf("failed to list users with meta %q: %w", key, err)
	}
	return ids, nil
}

func (s *sqlxStore) GetSetting(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key is required")
	}

	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting setting", "key", key, "error", err)
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}

	return value, nil
}

func (s *sqlxStore) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	query := `
        INSERT INTO settings (key, value, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;
    `
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error setting setting", "key", key, "error", err)
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

func (s *sqlxStore) DeleteSetting(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting setting", "key", key, "error", err)
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return nil
}

// ListCategories returns the whole taxonomy in stable id order. The category
// tree snapshot is built from this.
func (s *sqlxStore) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	query := `SELECT id, name, parent_id, description, created_at FROM categories ORDER BY id ASC`

	if err := s.db.SelectContext(ctx, &categories, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing categories", "error", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreatePost inserts a new post. Validation failures here are the store
// validation errors the dialogue layer surfaces to the user verbatim.
func (s *sqlxStore) CreatePost(ctx context.Context, post *Post) error {
	if post == nil {
		return fmt.Errorf("cannot save nil post")
	}
	if post.UserID == 0 {
		return fmt.Errorf("post must have an author")
	}
	if post.CategoryID == 0 {
		return fmt.Errorf("post must have a category")
	}
	if strings.TrimSpace(post.Content) == "" {
		return fmt.Errorf("post must have non-empty content")
	}
	if post.Status != PostStatusDraft && post.Status != PostStatusPublish {
		return fmt.Errorf("unknown post status %q", post.Status)
	}

	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	query := `
        INSERT INTO posts (user_id, category_id, chat_id, source_message_id, title, content, status, created_at, updated_at)
        VALUES (:user_id, :category_id, :chat_id, :source_message_id, :title, :content, :status, :created_at, :updated_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, post)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating post", "user_id", post.UserID, "category_id", post.CategoryID, "error", err)
		return fmt.Errorf("failed to create post: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		post.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after creating post", "error", err)
	}

	s.logger.DebugContext(ctx, "Post created", "post_id", post.ID, "user_id", post.UserID, "category_id", post.CategoryID)
	return nil
}

func (s *sqlxStore) UpdatePostContent(ctx context.Context, postID int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("post must have non-empty content")
	}

	query := `UPDATE posts SET content = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, content, time.Now().UTC(), postID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating post content", "post_id", postID, "error", err)
		return fmt.Errorf("failed to update post %d: %w", postID, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("post %d not found", postID)
	}
	return nil
}

func (s *sqlxStore) GetPostByID(ctx context.Context, postID int64) (*Post, error) {
	if postID == 0 {
		return nil, fmt.Errorf("post id cannot be zero")
	}

	var post Post
	query := `SELECT id, user_id, category_id, chat_id, source_message_id, title, content, status, created_at, updated_at
	          FROM posts WHERE id = ?`

	err := s.db.GetContext(ctx, &post, query, postID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting post", "post_id", postID, "error", err)
		return nil, fmt.Errorf("failed to get post %d: %w", postID, err)
	}

	return &post, nil
}

// CountPosts counts publish+draft posts within the given category ids,
// optionally restricted to one author (userID 0 means all authors).
func (s *sqlxStore) CountPosts(ctx context.Context, categoryIDs []int64, userID int64) (int, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}

	query := `SELECT COUNT(*) FROM posts WHERE category_id IN (?)`
	args := []any{categoryIDs}
	if userID != 0 {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to build post count query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(query), inArgs...); err != nil {
		s.logger.ErrorContext(ctx, "Error counting posts", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) ListUserPosts(ctx context.Context, userID int64, categoryIDs []int64, limit int) ([]Post, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user id cannot be zero")
	}
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, user_id, category_id, chat_id, source_message_id, title, content, status, created_at, updated_at
	          FROM posts WHERE user_id = ? AND category_id IN (?) ORDER BY created_at DESC, id DESC LIMIT ?`

	query, args, err := sqlx.In(query, userID, categoryIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build post list query: %w", err)
	}

	var posts []Post
	if err := s.db.SelectContext(ctx, &posts, s.db.Rebind(query), args...); err != nil {
		s.logger.ErrorContext(ctx, "Error listing user posts", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list posts for user %d: %w", userID, err)
	}
	return posts, nil
}

// HasPostSince reports whether the user authored any post at or after the
// given instant. The reminder batch uses it for the "no post today" check.
func (s *sqlxStore) HasPostSince(ctx context.Context, userID int64, since time.Time) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user id cannot be zero")
	}

	var count int
	query := `SELECT COUNT(*) FROM posts WHERE user_id = ? AND created_at >= ?`
	if err := s.db.GetContext(ctx, &count, query, userID, since); err != nil {
		s.logger.ErrorContext(ctx, "Error checking posts since", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check posts for user %d: %w", userID, err)
	}
	return count > 0, nil
}

func (s *sqlxStore) SaveMessageRef(ctx context.Context, ref *MessageRef) error {
	if ref == nil {
		return fmt.Errorf("cannot save nil message ref")
	}
	if ref.PostID == 0 {
		return fmt.Errorf("message ref must point at a post")
	}

	ref.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO message_refs (post_id, chat_id, message_id, created_at)
        VALUES (:post_id, :chat_id, :message_id, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, ref)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message ref", "post_id", ref.PostID, "error", err)
		return fmt.Errorf("failed to save message ref for post %d: %w", ref.PostID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		ref.ID = id
	}
	return nil
}

// RunSQLMaintenance executes VACUUM. SQLite requires it outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}
