package ai_test

import (
	"context"
	"testing"
	"time"

	"github.com/stepwork/stepbot/internal/ai"
	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/questionnaire"
	"github.com/stepwork/stepbot/internal/session"
)

// metaStore is an in-memory Store carrying only the user meta table the
// orchestrator touches through the session layer.
type metaStore struct {
	userMeta map[int64]map[string]string
}

func newMetaStore() *metaStore {
	return &metaStore{userMeta: make(map[int64]map[string]string)}
}

func (s *metaStore) Ping(context.Context) error                       { return nil }
func (s *metaStore) CreateUser(context.Context, *database.User) error { return nil }
func (s *metaStore) GetUserByTelegramID(context.Context, int64) (*database.User, error) {
	return nil, nil
}
func (s *metaStore) GetUserByID(context.Context, int64) (*database.User, error) { return nil, nil }
func (s *metaStore) UpdateUserChatID(context.Context, int64, int64) error       { return nil }
func (s *metaStore) UpdateUserLogin(context.Context, int64, string) error       { return nil }

func (s *metaStore) GetUserMeta(_ context.Context, userID int64, key string) (string, error) {
	return s.userMeta[userID][key], nil
}

func (s *metaStore) SetUserMeta(_ context.Context, userID int64, key, value string) error {
	if s.userMeta[userID] == nil {
		s.userMeta[userID] = make(map[string]string)
	}
	s.userMeta[userID][key] = value
	return nil
}

func (s *metaStore) DeleteUserMeta(_ context.Context, userID int64, key string) error {
	delete(s.userMeta[userID], key)
	return nil
}

func (s *metaStore) ListUserIDsWithMeta(context.Context, string) ([]int64, error) { return nil, nil }
func (s *metaStore) GetSetting(context.Context, string) (string, error)           { return "", nil }
func (s *metaStore) SetSetting(context.Context, string, string) error             { return nil }
func (s *metaStore) DeleteSetting(context.Context, string) error                  { return nil }
func (s *metaStore) ListCategories(context.Context) ([]database.Category, error)  { return nil, nil }
func (s *metaStore) CreatePost(context.Context, *database.Post) error             { return nil }
func (s *metaStore) UpdatePostContent(context.Context, int64, string) error       { return nil }
func (s *metaStore) GetPostByID(context.Context, int64) (*database.Post, error)   { return nil, nil }
func (s *metaStore) CountPosts(context.Context, []int64, int64) (int, error)      { return 0, nil }
func (s *metaStore) ListUserPosts(context.Context, int64, []int64, int) ([]database.Post, error) {
	return nil, nil
}
func (s *metaStore) HasPostSince(context.Context, int64, time.Time) (bool, error) {
	return false, nil
}
func (s *metaStore) SaveMessageRef(context.Context, *database.MessageRef) error { return nil }
func (s *metaStore) RunSQLMaintenance(context.Context) error                    { return nil }

// countingClient counts Generate calls and returns a fixed reply or error.
type countingClient struct {
	calls int
	reply string
	err   error
}

func (c *countingClient) Generate(context.Context, []ai.Message) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

type orchFixture struct {
	store    *metaStore
	sessions *session.Manager
	client   *countingClient
	orch     *ai.Orchestrator
	node     *category.Node
	path     []*category.Node
}

func newOrchFixture(t *testing.T, reply string, err error) *orchFixture {
	t.Helper()

	store := newMetaStore()
	sessions := session.NewManager(store, nil)
	client := &countingClient{reply: reply, err: err}
	tree := promptTree()

	return &orchFixture{
		store:    store,
		sessions: sessions,
		client:   client,
		orch:     ai.NewOrchestrator(client, sessions, nil),
		node:     tree.Get(3),
		path:     tree.Path(3),
	}
}

const testUserID = int64(42)

func TestRequestHelpUpsellWithoutPro(t *testing.T) {
	t.Parallel()

	f := newOrchFixture(t, "совет", nil)
	ctx := context.Background()

	outcome, err := f.orch.RequestHelp(ctx, testUserID, f.node, f.path, true)
	if err != nil {
		t.Fatalf("RequestHelp: %v", err)
	}
	if !outcome.Upsell {
		t.Errorf("outcome = %+v, want upsell", outcome)
	}
	if f.client.calls != 0 {
		t.Errorf("client called %d times behind the gate", f.client.calls)
	}
}

func TestRequestHelpGeneratesAndCaches(t *testing.T) {
	t.Parallel()

	f := newOrchFixture(t, "совет по шагу", nil)
	ctx := context.Background()

	if err := f.sessions.Profile(testUserID).SetPro(ctx, true); err != nil {
		t.Fatal(err)
	}

	outcome, err := f.orch.RequestHelp(ctx, testUserID, f.node, f.path, true)
	if err != nil {
		t.Fatalf("RequestHelp: %v", err)
	}
	if outcome.Content != "совет по шагу" || outcome.FromCache {
		t.Errorf("first outcome = %+v", outcome)
	}

	// Second request within the TTL is served from cache.
	outcome, err = f.orch.RequestHelp(ctx, testUserID, f.node, f.path, true)
	if err != nil {
		t.Fatalf("RequestHelp: %v", err)
	}
	if outcome.Content != "совет по шагу" || !outcome.FromCache {
		t.Errorf("second outcome = %+v, want cache hit", outcome)
	}
	if f.client.calls != 1 {
		t.Errorf("client called %d times, want 1", f.client.calls)
	}

	history, err := f.sessions.Profile(testUserID).History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[1].Role != ai.RoleAssistant {
		t.Errorf("history after generate = %+v", history)
	}
}

func TestRefreshForcesNewCall(t *testing.T) {
	t.Parallel()

	f := newOrchFixture(t, "совет", nil)
	ctx := context.Background()

	if err := f.sessions.Profile(testUserID).SetPro(ctx, true); err != nil {
		t.Fatal(err)
	}

	if _, err := f.orch.RequestHelp(ctx, testUserID, f.node, f.path, true); err != nil {
		t.Fatal(err)
	}

	f.client.reply = "новый совет"
	outcome, err := f.orch.Refresh(ctx, testUserID, f.node, f.path)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if outcome.Content != "новый совет" || outcome.FromCache {
		t.Errorf("refresh outcome = %+v", outcome)
	}
	if f.client.calls != 2 {
		t.Errorf("client called %d times, want 2", f.client.calls)
	}
}

func TestRequestHelpInterstitial(t *testing.T) {
	t.Parallel()

	f := newOrchFixture(t, "совет", nil)
	ctx := context.Background()
	profile := f.sessions.Profile(testUserID)

	if err := profile.SetPro(ctx, true); err != nil {
		t.Fatal(err)
	}
	if err := profile.SetConsent(ctx, true); err != nil {
		t.Fatal(err)
	}

	outcome, err := f.orch.RequestHelp(ctx, testUserID, f.node, f.path, true)
	if err != nil {
		t.Fatalf("RequestHelp: %v", err)
	}
	if outcome.Interstitial == nil {
		t.Fatalf("outcome = %+v, want interstitial", outcome)
	}
	if outcome.Interstitial.QuestionID != questionnaire.PriorityQuestion {
		t.Errorf("interstitial question = %s, want the program question", outcome.Interstitial.QuestionID)
	}
	if f.client.calls != 0 {
		t.Errorf("client called %d times during interstitial", f.client.calls)
	}

	st, err := f.sessions.State(ctx, testUserID)
	if err != nil {
		t.Fatal(err)
	}
	if st.PendingHelp == nil || st.PendingHelp.CategoryID != f.node.ID {
		t.Errorf("pending help not stashed: %+v", st)
	}
	if st.Question == nil || st.Question.Question != questionnaire.PriorityQuestion {
		t.Errorf("question pointer not stashed: %+v", st)
	}

	// Resuming after the detour must not detour again.
	outcome, err = f.orch.RequestHelp(ctx, testUserID, f.node, f.path, false)
	if err != nil {
		t.Fatalf("RequestHelp resume: %v", err)
	}
	if outcome.Content != "совет" {
		t.Errorf("resume outcome = %+v, want generated content", outcome)
	}
	if f.client.calls != 1 {
		t.Errorf("client called %d times after resume, want 1", f.client.calls)
	}
}

func TestRequestHelpNoInterstitialWithoutConsent(t *testing.T) {
	t.Parallel()

	f := newOrchFixture(t, "совет", nil)
	ctx := context.Background()

	if err := f.sessions.Profile(testUserID).SetPro(ctx, true); err != nil {
		t.Fatal(err)
	}

	outcome, err := f.orch.RequestHelp(ctx, testUserID, f.node, f.path, true)
	if err != nil {
		t.Fatalf("RequestHelp: %v", err)
	}
	if outcome.Interstitial != nil || outcome.Content != "совет" {
		t.Errorf("outcome = %+v, want direct generation", outcome)
	}
}

func TestRequestHelpWithoutBackendReportsConfig(t *testing.T) {
	t.Parallel()

	store := newMetaStore()
	sessions := session.NewManager(store, nil)
	orch := ai.NewOrchestrator(nil, sessions, nil)
	tree := promptTree()
	ctx := context.Background()

	if err := sessions.Profile(testUserID).SetPro(ctx, true); err != nil {
		t.Fatal(err)
	}

	outcome, err := orch.RequestHelp(ctx, testUserID, tree.Get(3), tree.Path(3), false)
	if err != nil {
		t.Fatalf("RequestHelp: %v", err)
	}
	if outcome.ErrClass != ai.ClassConfig {
		t.Errorf("outcome class = %q, want config", outcome.ErrClass)
	}
}

func TestRequestHelpFailureStoresClass(t *testing.T) {
	t.Parallel()

	f := newOrchFixture(t, "", &ai.StatusError{Code: 429})
	ctx := context.Background()
	profile := f.sessions.Profile(testUserID)

	if err := profile.SetPro(ctx, true); err != nil {
		t.Fatal(err)
	}

	outcome, err := f.orch.RequestHelp(ctx, testUserID, f.node, f.path, true)
	if err != nil {
		t.Fatalf("RequestHelp: %v", err)
	}
	if outcome.ErrClass != ai.ClassRateLimit {
		t.Errorf("outcome class = %q, want rate_limit", outcome.ErrClass)
	}
	if f.client.calls != 1 {
		t.Errorf("client called %d times, want 1 (no retry)", f.client.calls)
	}

	stored, err := profile.LastAIError(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stored != string(ai.ClassRateLimit) {
		t.Errorf("stored class = %q", stored)
	}

	// A later success clears the stored class and caches the reply.
	f.client.err = nil
	f.client.reply = "совет"
	if _, err := f.orch.RequestHelp(ctx, testUserID, f.node, f.path, true); err != nil {
		t.Fatal(err)
	}
	if stored, _ = profile.LastAIError(ctx); stored != "" {
		t.Errorf("class after success = %q, want empty", stored)
	}
}
