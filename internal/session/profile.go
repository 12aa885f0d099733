package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// User meta keys for profile attributes.
const (
	metaConsent      = "quest_consent"
	metaProblems     = "problems"
	metaAnswers      = "quest_answers"
	metaShown        = "quest_shown"
	metaPro          = "pro"
	metaReminderTime = "reminder_time"
	metaUTCOffset    = "utc_offset"
	metaAIHistory    = "ai_history"
	metaAICache      = "ai_cache"
	metaAILastError  = "ai_last_error"
)

const (
	// AICacheTTL bounds how long a cached AI response is served.
	AICacheTTL = 24 * time.Hour

	// maxHistoryEntries keeps the last five user/assistant exchanges.
	maxHistoryEntries = 10
)

// Value is one questionnaire answer: free text for choice/text/date
// questions, a label list for multiple-select ones. It marshals as a plain
// JSON string or a string array accordingly.
type Value struct {
	Text string
	List []string
}

// IsList reports whether the value carries a multi-select label list.
func (v Value) IsList() bool { return v.List != nil }

// String renders the value for display and prompt building.
func (v Value) String() string {
	if v.List != nil {
		out := ""
		for i, s := range v.List {
			if i > 0 {
				out += ", "
			}
			out += s
		}
		return out
	}
	return v.Text
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.List != nil {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Text = s
		v.List = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("answer value is neither string nor list: %w", err)
	}
	v.Text = ""
	v.List = list
	return nil
}

// Answers is the nested section → question → value answer map.
type Answers map[string]map[string]Value

// Get returns the stored answer and whether one exists.
func (a Answers) Get(section, question string) (Value, bool) {
	if sec, ok := a[section]; ok {
		v, ok := sec[question]
		return v, ok
	}
	return Value{}, false
}

// Set stores an answer, allocating the section map as needed.
func (a Answers) Set(section, question string, v Value) {
	sec, ok := a[section]
	if !ok {
		sec = make(map[string]Value)
		a[section] = sec
	}
	sec[question] = v
}

// ShownLedger tracks the anti-repeat marker and explicitly skipped
// questions. Question ids are "section.question" strings.
type ShownLedger struct {
	Last    string   `json:"last,omitempty"`
	Skipped []string `json:"skipped,omitempty"`
}

// IsSkipped reports whether the given question id was skipped.
func (l *ShownLedger) IsSkipped(id string) bool {
	for _, s := range l.Skipped {
		if s == id {
			return true
		}
	}
	return false
}

// RecordSkip appends a question id to the skip list once.
func (l *ShownLedger) RecordSkip(id string) {
	if !l.IsSkipped(id) {
		l.Skipped = append(l.Skipped, id)
	}
}

// HistoryTurn is one prior conversation turn kept for prompt context.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type aiCacheEntry struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is a per-user view over the meta attributes in the store.
type Profile struct {
	m      *Manager
	userID int64
}

// Profile binds a profile view to a user id.
func (m *Manager) Profile(userID int64) *Profile {
	return &Profile{m: m, userID: userID}
}

func (p *Profile) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := p.m.store.GetUserMeta(ctx, p.userID, key)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		p.m.logger.Warn("Corrupted profile attribute, resetting", "user_id", p.userID, "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (p *Profile) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode profile attribute %q: %w", key, err)
	}
	return p.m.store.SetUserMeta(ctx, p.userID, key, string(data))
}

// Consent reports whether the user agreed to fill the questionnaire.
func (p *Profile) Consent(ctx context.Context) (bool, error) {
	raw, err := p.m.store.GetUserMeta(ctx, p.userID, metaConsent)
	return raw == "1", err
}

// SetConsent records or revokes questionnaire consent.
func (p *Profile) SetConsent(ctx context.Context, consent bool) error {
	if !consent {
		return p.m.store.DeleteUserMeta(ctx, p.userID, metaConsent)
	}
	return p.m.store.SetUserMeta(ctx, p.userID, metaConsent, "1")
}

// Problems returns the problem keys chosen during registration.
func (p *Profile) Problems(ctx context.Context) ([]string, error) {
	var problems []string
	if _, err := p.getJSON(ctx, metaProblems, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

// SetProblems stores the chosen problem keys.
func (p *Profile) SetProblems(ctx context.Context, problems []string) error {
	return p.setJSON(ctx, metaProblems, problems)
}

// Answers loads the questionnaire answer map, empty when none stored.
func (p *Profile) Answers(ctx context.Context) (Answers, error) {
	answers := make(Answers)
	if _, err := p.getJSON(ctx, metaAnswers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// SaveAnswers persists the whole answer map.
func (p *Profile) SaveAnswers(ctx context.Context, answers Answers) error {
	return p.setJSON(ctx, metaAnswers, answers)
}

// Shown loads the anti-repeat ledger, empty when none stored.
func (p *Profile) Shown(ctx context.Context) (*ShownLedger, error) {
	var ledger ShownLedger
	if _, err := p.getJSON(ctx, metaShown, &ledger); err != nil {
		return nil, err
	}
	return &ledger, nil
}

// SaveShown persists the anti-repeat ledger.
func (p *Profile) SaveShown(ctx context.Context, ledger *ShownLedger) error {
	return p.setJSON(ctx, metaShown, ledger)
}

// Pro reports the subscription flag gating AI assistance.
func (p *Profile) Pro(ctx context.Context) (bool, error) {
	raw, err := p.m.store.GetUserMeta(ctx, p.userID, metaPro)
	return raw == "1", err
}

// SetPro sets or clears the subscription flag.
func (p *Profile) SetPro(ctx context.Context, pro bool) error {
	if !pro {
		return p.m.store.DeleteUserMeta(ctx, p.userID, metaPro)
	}
	return p.m.store.SetUserMeta(ctx, p.userID, metaPro, "1")
}

// ReminderTime returns the user's reminder time as "HH:MM", or "" when the
// reminder is off.
func (p *Profile) ReminderTime(ctx context.Context) (string, error) {
	return p.m.store.GetUserMeta(ctx, p.userID, metaReminderTime)
}

// SetReminderTime stores the reminder time; an empty value turns it off.
func (p *Profile) SetReminderTime(ctx context.Context, hhmm string) error {
	if hhmm == "" {
		return p.m.store.DeleteUserMeta(ctx, p.userID, metaReminderTime)
	}
	return p.m.store.SetUserMeta(ctx, p.userID, metaReminderTime, hhmm)
}

// UTCOffset returns the user's timezone as whole hours relative to UTC.
func (p *Profile) UTCOffset(ctx context.Context) (int, error) {
	raw, err := p.m.store.GetUserMeta(ctx, p.userID, metaUTCOffset)
	if err != nil || raw == "" {
		return 0, err
	}
	offset, parseErr := strconv.Atoi(raw)
	if parseErr != nil {
		return 0, nil
	}
	return offset, nil
}

// SetUTCOffset stores the user's timezone offset in whole hours.
func (p *Profile) SetUTCOffset(ctx context.Context, hours int) error {
	return p.m.store.SetUserMeta(ctx, p.userID, metaUTCOffset, strconv.Itoa(hours))
}

// History loads the bounded conversation history for prompt context.
func (p *Profile) History(ctx context.Context) ([]HistoryTurn, error) {
	var history []HistoryTurn
	if _, err := p.getJSON(ctx, metaAIHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// AppendHistory records one user/assistant exchange, keeping only the most
// recent entries.
func (p *Profile) AppendHistory(ctx context.Context, turns ...HistoryTurn) error {
	history, err := p.History(ctx)
	if err != nil {
		return err
	}
	history = append(history, turns...)
	if len(history) > maxHistoryEntries {
		history = history[len(history)-maxHistoryEntries:]
	}
	return p.setJSON(ctx, metaAIHistory, history)
}

// CachedResponse returns the cached AI response for a category, or "" when
// absent or expired.
func (p *Profile) CachedResponse(ctx context.Context, categoryID int64, now time.Time) (string, error) {
	cache := make(map[string]aiCacheEntry)
	if _, err := p.getJSON(ctx, metaAICache, &cache); err != nil {
		return "", err
	}
	entry, ok := cache[strconv.FormatInt(categoryID, 10)]
	if !ok || now.Sub(entry.CreatedAt) >= AICacheTTL {
		return "", nil
	}
	return entry.Content, nil
}

// CacheResponse stores an AI response for a category and prunes expired
// entries while at it.
func (p *Profile) CacheResponse(ctx context.Context, categoryID int64, content string, now time.Time) error {
	cache := make(map[string]aiCacheEntry)
	if _, err := p.getJSON(ctx, metaAICache, &cache); err != nil {
		return err
	}
	for key, entry := range cache {
		if now.Sub(entry.CreatedAt) >= AICacheTTL {
			delete(cache, key)
		}
	}
	cache[strconv.FormatInt(categoryID, 10)] = aiCacheEntry{Content: content, CreatedAt: now}
	return p.setJSON(ctx, metaAICache, cache)
}

// InvalidateCache drops the cached AI response for one category.
func (p *Profile) InvalidateCache(ctx context.Context, categoryID int64) error {
	cache := make(map[string]aiCacheEntry)
	found, err := p.getJSON(ctx, metaAICache, &cache)
	if err != nil || !found {
		return err
	}
	delete(cache, strconv.FormatInt(categoryID, 10))
	return p.setJSON(ctx, metaAICache, cache)
}

// LastAIError returns the stored error classification from the most recent
// failed AI call, or "" when the last call succeeded.
func (p *Profile) LastAIError(ctx context.Context) (string, error) {
	return p.m.store.GetUserMeta(ctx, p.userID, metaAILastError)
}

// SetLastAIError stores the error classification; an empty value clears it.
func (p *Profile) SetLastAIError(ctx context.Context, class string) error {
	if class == "" {
		return p.m.store.DeleteUserMeta(ctx, p.userID, metaAILastError)
	}
	return p.m.store.SetUserMeta(ctx, p.userID, metaAILastError, class)
}

// ReminderMetaKey exposes the meta key the reminder batch scans for.
const ReminderMetaKey = metaReminderTime
