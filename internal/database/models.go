package database

import "time"

// Post statuses mirror the CMS post lifecycle the bot cares about.
const (
	PostStatusDraft   = "draft"
	PostStatusPublish = "publish"
)

// User is a registered author. TGUserID is the Telegram identity and is
// immutable once linked; ChatID is the last private chat the user wrote from
// and is synced opportunistically.
type User struct {
	ID          int64     `db:"id"`
	TGUserID    int64     `db:"tg_user_id"`
	Login       string    `db:"login"`
	DisplayName string    `db:"display_name"`
	ChatID      int64     `db:"chat_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Category is one node of the externally-owned taxonomy. ParentID 0 marks a
// root. The bot never mutates categories.
type Category struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	ParentID    int64     `db:"parent_id"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Post is a diary entry created from a chat message.
type Post struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	CategoryID      int64     `db:"category_id"`
	ChatID          int64     `db:"chat_id"`
	SourceMessageID int64     `db:"source_message_id"`
	Title           string    `db:"title"`
	Content         string    `db:"content"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// MessageRef links the originating chat message to the post it produced,
// for audit and traceability.
type MessageRef struct {
	ID        int64     `db:"id"`
	PostID    int64     `db:"post_id"`
	ChatID    int64     `db:"chat_id"`
	MessageID int64     `db:"message_id"`
	CreatedAt time.Time `db:"created_at"`
}
