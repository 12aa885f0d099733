// Package session_test tests conversation state, category selection, and
// profile attribute persistence.
package session_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/session"
)

// memStore is an in-memory Store covering the meta and settings tables the
// session layer uses. The rest of the interface is inert.
type memStore struct {
	userMeta map[int64]map[string]string
	settings map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		userMeta: make(map[int64]map[string]string),
		settings: make(map[string]string),
	}
}

func (s *memStore) Ping(context.Context) error                           { return nil }
func (s *memStore) CreateUser(context.Context, *database.User) error     { return nil }
func (s *memStore) GetUserByTelegramID(context.Context, int64) (*database.User, error) {
	return nil, nil
}
func (s *memStore) GetUserByID(context.Context, int64) (*database.User, error) { return nil, nil }
func (s *memStore) UpdateUserChatID(context.Context, int64, int64) error       { return nil }
func (s *memStore) UpdateUserLogin(context.Context, int64, string) error       { return nil }

func (s *memStore) GetUserMeta(_ context.Context, userID int64, key string) (string, error) {
	return s.userMeta[userID][key], nil
}

func (s *memStore) SetUserMeta(_ context.Context, userID int64, key, value string) error {
	if s.userMeta[userID] == nil {
		s.userMeta[userID] = make(map[string]string)
	}
	s.userMeta[userID][key] = value
	return nil
}

func (s *memStore) DeleteUserMeta(_ context.Context, userID int64, key string) error {
	delete(s.userMeta[userID], key)
	return nil
}

func (s *memStore) ListUserIDsWithMeta(_ context.Context, key string) ([]int64, error) {
	var ids []int64
	for id, meta := range s.userMeta {
		if meta[key] != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memStore) GetSetting(_ context.Context, key string) (string, error) {
	return s.settings[key], nil
}

func (s *memStore) SetSetting(_ context.Context, key, value string) error {
	s.settings[key] = value
	return nil
}

func (s *memStore) DeleteSetting(_ context.Context, key string) error {
	delete(s.settings, key)
	return nil
}

func (s *memStore) ListCategories(context.Context) ([]database.Category, error) { return nil, nil }
func (s *memStore) CreatePost(context.Context, *database.Post) error            { return nil }
func (s *memStore) UpdatePostContent(context.Context, int64, string) error      { return nil }
func (s *memStore) GetPostByID(context.Context, int64) (*database.Post, error)  { return nil, nil }
func (s *memStore) CountPosts(context.Context, []int64, int64) (int, error)     { return 0, nil }
func (s *memStore) ListUserPosts(context.Context, int64, []int64, int) ([]database.Post, error) {
	return nil, nil
}
func (s *memStore) HasPostSince(context.Context, int64, time.Time) (bool, error) { return false, nil }
func (s *memStore) SaveMessageRef(context.Context, *database.MessageRef) error   { return nil }
func (s *memStore) RunSQLMaintenance(context.Context) error                      { return nil }

func testTree() *category.Tree {
	return category.BuildTree([]database.Category{
		{ID: 1, Name: "Шаг 1"},
		{ID: 2, Name: "Глава 1.1", ParentID: 1},
		{ID: 3, Name: "Точка 1.1.1", ParentID: 2},
		{ID: 4, Name: "Точка 1.1.2", ParentID: 2},
	})
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := session.NewManager(newMemStore(), nil)

	st, err := m.State(ctx, 42)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Kind != session.StateIdle {
		t.Fatalf("fresh state kind = %q, want idle", st.Kind)
	}

	st.Kind = session.StateEditingPost
	st.PostID = 7
	st.Question = &session.QuestionPointer{Section: "section1", Question: "city"}
	if err := m.SetState(ctx, 42, st); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	loaded, err := m.State(ctx, 42)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if loaded.Kind != session.StateEditingPost || loaded.PostID != 7 {
		t.Errorf("loaded state = %+v", loaded)
	}
	if loaded.Question == nil || loaded.Question.Question != "city" {
		t.Errorf("question pointer lost: %+v", loaded.Question)
	}

	if err := m.ClearState(ctx, 42); err != nil {
		t.Fatalf("ClearState: %v", err)
	}
	cleared, _ := m.State(ctx, 42)
	if cleared.Kind != session.StateIdle || cleared.Question != nil {
		t.Errorf("state after clear = %+v, want idle", cleared)
	}
}

func TestStateCorruptedResets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	m := session.NewManager(store, nil)

	if err := store.SetUserMeta(ctx, 42, "conversation_state", "{not json"); err != nil {
		t.Fatal(err)
	}

	st, err := m.State(ctx, 42)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Kind != session.StateIdle {
		t.Errorf("corrupted state kind = %q, want idle", st.Kind)
	}
}

func TestValueJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   session.Value
		json string
	}{
		{name: "text", in: session.Value{Text: "Москва"}, json: `"Москва"`},
		{name: "list", in: session.Value{List: []string{"Стресс", "Скука"}}, json: `["Стресс","Скука"]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tc.in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tc.json {
				t.Errorf("marshal = %s, want %s", data, tc.json)
			}

			var out session.Value
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if out.String() != tc.in.String() {
				t.Errorf("round trip = %q, want %q", out.String(), tc.in.String())
			}
			if out.IsList() != tc.in.IsList() {
				t.Errorf("IsList changed across round trip")
			}
		})
	}
}

func TestResolveCategoryPriority(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	m := session.NewManager(store, nil)
	tree := testTree()

	// Nothing selected anywhere.
	id, err := m.ResolveCategory(ctx, tree, 100, 200, 0)
	if err != nil || id != 0 {
		t.Fatalf("empty resolve = (%d, %v), want (0, nil)", id, err)
	}

	// Global default applies when no selection exists.
	if err := store.SetSetting(ctx, "default_category_id", "2"); err != nil {
		t.Fatal(err)
	}
	if id, _ = m.ResolveCategory(ctx, tree, 100, 200, 0); id != 2 {
		t.Errorf("default resolve = %d, want 2", id)
	}

	// A selection in the chat wins over the default.
	if err := m.SelectCategory(ctx, 100, 999, 3); err != nil {
		t.Fatal(err)
	}
	if id, _ = m.ResolveCategory(ctx, tree, 100, 200, 0); id != 3 {
		t.Errorf("chat resolve = %d, want 3", id)
	}

	// The user's own selection wins over the chat's.
	if err := m.SelectCategory(ctx, 500, 200, 4); err != nil {
		t.Fatal(err)
	}
	if id, _ = m.ResolveCategory(ctx, tree, 100, 200, 0); id != 4 {
		t.Errorf("user resolve = %d, want 4", id)
	}
}

func TestResolveCategoryIgnoresUnresolvable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	m := session.NewManager(store, nil)

	if err := m.SelectCategory(ctx, 100, 200, 4); err != nil {
		t.Fatal(err)
	}

	// Shrink the tree so the stored selection no longer resolves.
	smaller := category.BuildTree([]database.Category{{ID: 1, Name: "Шаг 1"}})
	if id, _ := m.ResolveCategory(ctx, smaller, 100, 200, 0); id != 0 {
		t.Errorf("resolve against shrunken tree = %d, want 0", id)
	}

	// A configured default outside the tree is ignored too.
	if id, _ := m.ResolveCategory(ctx, smaller, 100, 200, 42); id != 0 {
		t.Errorf("resolve with bad configured default = %d, want 0", id)
	}
	if id, _ := m.ResolveCategory(ctx, smaller, 100, 200, 1); id != 1 {
		t.Errorf("resolve with good configured default = %d, want 1", id)
	}
}

func TestSelectionEviction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	m := session.NewManager(store, nil)
	tree := testTree()

	// Fill the user map past capacity; the oldest entry must fall out.
	for i := int64(1); i <= 1001; i++ {
		if err := m.SelectCategory(ctx, i, i, 3); err != nil {
			t.Fatal(err)
		}
	}

	if id, _ := m.ResolveCategory(ctx, tree, 0, 1, 0); id != 0 {
		t.Errorf("oldest user selection survived eviction: resolve = %d", id)
	}
	if id, _ := m.ResolveCategory(ctx, tree, 0, 2, 0); id != 3 {
		t.Errorf("second-oldest user selection = %d, want 3", id)
	}
	if id, _ := m.ResolveCategory(ctx, tree, 0, 1001, 0); id != 3 {
		t.Errorf("newest user selection = %d, want 3", id)
	}
}

func TestProfileHistoryRing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := session.NewManager(newMemStore(), nil)
	p := m.Profile(42)

	for i := 0; i < 7; i++ {
		err := p.AppendHistory(ctx,
			session.HistoryTurn{Role: "user", Content: "вопрос"},
			session.HistoryTurn{Role: "assistant", Content: "ответ"},
		)
		if err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	history, err := p.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 10 {
		t.Errorf("history length = %d, want 10", len(history))
	}
	if history[len(history)-1].Role != "assistant" {
		t.Errorf("last turn role = %q, want assistant", history[len(history)-1].Role)
	}
}

func TestProfileAICacheTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := session.NewManager(newMemStore(), nil)
	p := m.Profile(42)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if err := p.CacheResponse(ctx, 3, "совет", now); err != nil {
		t.Fatalf("CacheResponse: %v", err)
	}

	if got, _ := p.CachedResponse(ctx, 3, now.Add(time.Hour)); got != "совет" {
		t.Errorf("fresh cache = %q, want hit", got)
	}
	if got, _ := p.CachedResponse(ctx, 3, now.Add(session.AICacheTTL)); got != "" {
		t.Errorf("expired cache = %q, want miss", got)
	}
	if got, _ := p.CachedResponse(ctx, 99, now); got != "" {
		t.Errorf("other category cache = %q, want miss", got)
	}

	if err := p.InvalidateCache(ctx, 3); err != nil {
		t.Fatalf("InvalidateCache: %v", err)
	}
	if got, _ := p.CachedResponse(ctx, 3, now.Add(time.Minute)); got != "" {
		t.Errorf("invalidated cache = %q, want miss", got)
	}
}

func TestRegistrationRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := session.NewManager(newMemStore(), nil)

	reg, err := m.Registration(ctx, 77)
	if err != nil || reg != nil {
		t.Fatalf("fresh registration = (%+v, %v), want (nil, nil)", reg, err)
	}

	in := &session.Registration{Stage: session.RegAwaitingProblems, Name: "Иван", Problems: []string{"narco"}}
	if err := m.SetRegistration(ctx, 77, in); err != nil {
		t.Fatalf("SetRegistration: %v", err)
	}

	reg, err = m.Registration(ctx, 77)
	if err != nil {
		t.Fatalf("Registration: %v", err)
	}
	if reg == nil || reg.Stage != session.RegAwaitingProblems || reg.Name != "Иван" {
		t.Errorf("loaded registration = %+v", reg)
	}

	if err := m.ClearRegistration(ctx, 77); err != nil {
		t.Fatalf("ClearRegistration: %v", err)
	}
	if reg, _ = m.Registration(ctx, 77); reg != nil {
		t.Errorf("registration after clear = %+v, want nil", reg)
	}
}
