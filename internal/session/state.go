// Package session persists per-user conversation state, chat/user category
// selections, and profile attributes. Nothing here lives in process memory
// between updates: every flag and pointer is externalized to the store.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/stepwork/stepbot/internal/database"
)

// StateKind names the exclusive "waiting for X" modes a registered user can
// be in. Exactly one applies at a time.
type StateKind string

const (
	StateIdle            StateKind = "idle"
	StateAwaitingSupport StateKind = "awaiting_support"
	StateEditingPost     StateKind = "editing_post"
)

// QuestionPointer marks the questionnaire question currently offered to the
// user. Editing distinguishes the revise flow from the ordinary fill flow.
// Picked accumulates button-toggled indices for multi-select questions.
type QuestionPointer struct {
	Section  string `json:"section"`
	Question string `json:"question"`
	Editing  bool   `json:"editing,omitempty"`
	Picked   []int  `json:"picked,omitempty"`
}

// PendingHelp captures the category context of an in-flight AI-help request,
// so the flow can resume after an interstitial questionnaire question.
type PendingHelp struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	LevelName    string `json:"level_name"`
}

// ConversationState is the single persisted state record per user. Kind
// carries the exclusive waiting mode; Question and PendingHelp are pointers
// that may accompany any kind (a pending question coexists with idle, since
// unrecognized answers fall through to normal message handling).
type ConversationState struct {
	Kind        StateKind        `json:"kind"`
	PostID      int64            `json:"post_id,omitempty"`
	Question    *QuestionPointer `json:"question,omitempty"`
	PendingHelp *PendingHelp     `json:"pending_help,omitempty"`
}

// RegStage names the pre-registration stages for users not yet in the store.
type RegStage string

const (
	RegAwaitingName     RegStage = "awaiting_name"
	RegAwaitingProblems RegStage = "awaiting_problems"
)

// Registration is the transient record for a user going through the
// registration flow. It is keyed by Telegram id in the settings store,
// because no user row exists yet.
type Registration struct {
	Stage    RegStage `json:"stage"`
	Name     string   `json:"name,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

const stateMetaKey = "conversation_state"

func regStateKey(tgUserID int64) string {
	return fmt.Sprintf("reg_state.%d", tgUserID)
}

// Manager reads and writes session state through the store.
type Manager struct {
	store  database.Store
	logger *slog.Logger
}

// NewManager creates a session manager over the given store.
func NewManager(store database.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		store:  store,
		logger: logger.With("component", "session"),
	}
}

// State loads the user's conversation state, defaulting to idle when nothing
// is stored. A corrupted record is logged and reset rather than failing the
// whole update.
func (m *Manager) State(ctx context.Context, userID int64) (*ConversationState, error) {
	raw, err := m.store.GetUserMeta(ctx, userID, stateMetaKey)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return &ConversationState{Kind: StateIdle}, nil
	}

	var st ConversationState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		m.logger.WarnContext(ctx, "Corrupted conversation state, resetting", "user_id", userID, "error", err)
		return &ConversationState{Kind: StateIdle}, nil
	}
	if st.Kind == "" {
		st.Kind = StateIdle
	}
	return &st, nil
}

// SetState persists the user's conversation state.
func (m *Manager) SetState(ctx context.Context, userID int64, st *ConversationState) error {
	if st == nil {
		st = &ConversationState{Kind: StateIdle}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode conversation state: %w", err)
	}
	return m.store.SetUserMeta(ctx, userID, stateMetaKey, string(data))
}

// ClearState drops the stored conversation state entirely.
func (m *Manager) ClearState(ctx context.Context, userID int64) error {
	return m.store.DeleteUserMeta(ctx, userID, stateMetaKey)
}

// Registration loads the pre-registration record for a Telegram id, or nil
// when no registration flow is in progress.
func (m *Manager) Registration(ctx context.Context, tgUserID int64) (*Registration, error) {
	raw, err := m.store.GetSetting(ctx, regStateKey(tgUserID))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var reg Registration
	if err := json.Unmarshal([]byte(raw), &reg); err != nil {
		m.logger.WarnContext(ctx, "Corrupted registration state, resetting", "tg_user_id", tgUserID, "error", err)
		return nil, nil
	}
	return &reg, nil
}

// SetRegistration persists the pre-registration record for a Telegram id.
func (m *Manager) SetRegistration(ctx context.Context, tgUserID int64, reg *Registration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to encode registration state: %w", err)
	}
	return m.store.SetSetting(ctx, regStateKey(tgUserID), string(data))
}

// ClearRegistration removes the pre-registration record once the flow
// finishes or is abandoned.
func (m *Manager) ClearRegistration(ctx context.Context, tgUserID int64) error {
	return m.store.DeleteSetting(ctx, regStateKey(tgUserID))
}
