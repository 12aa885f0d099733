package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/questionnaire"
	"github.com/stepwork/stepbot/internal/session"
)

// Outcome is the result of one help request. Exactly one of Upsell,
// FromCache+Content, Interstitial, Content, or ErrClass applies.
type Outcome struct {
	Content      string
	FromCache    bool
	Upsell       bool
	Interstitial *questionnaire.Ref
	ErrClass     ErrorClass
}

// Orchestrator gates, caches, and executes AI help requests against the
// per-user conversation state.
type Orchestrator struct {
	client   Client
	sessions *session.Manager
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrchestrator wires the orchestrator to its backend client and session
// store.
func NewOrchestrator(client Client, sessions *session.Manager, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:   client,
		sessions: sessions,
		logger:   logger.With("component", "ai_orchestrator"),
		now:      time.Now,
	}
}

// RequestHelp runs the full help flow for a category: PRO gate, 24h cache,
// then either an interstitial questionnaire detour (one unanswered question
// offered while the request is pending, consent required) or a synchronous
// LLM call. allowInterstitial is false when resuming after an interstitial.
func (o *Orchestrator) RequestHelp(ctx context.Context, userID int64, node *category.Node, path []*category.Node, allowInterstitial bool) (*Outcome, error) {
	profile := o.sessions.Profile(userID)

	pro, err := profile.Pro(ctx)
	if err != nil {
		return nil, err
	}
	if !pro {
		return &Outcome{Upsell: true}, nil
	}

	cached, err := profile.CachedResponse(ctx, node.ID, o.now())
	if err != nil {
		return nil, err
	}
	if cached != "" {
		return &Outcome{Content: cached, FromCache: true}, nil
	}

	if allowInterstitial {
		outcome, err := o.tryInterstitial(ctx, userID, node, profile)
		if err != nil {
			return nil, err
		}
		if outcome != nil {
			return outcome, nil
		}
	}

	return o.generate(ctx, userID, node, path, profile)
}

// Refresh invalidates the cached response and calls the LLM immediately,
// with no interstitial detour.
func (o *Orchestrator) Refresh(ctx context.Context, userID int64, node *category.Node, path []*category.Node) (*Outcome, error) {
	profile := o.sessions.Profile(userID)

	pro, err := profile.Pro(ctx)
	if err != nil {
		return nil, err
	}
	if !pro {
		return &Outcome{Upsell: true}, nil
	}

	if err := profile.InvalidateCache(ctx, node.ID); err != nil {
		return nil, err
	}
	return o.generate(ctx, userID, node, path, profile)
}

// tryInterstitial stashes a pending-help record and offers one unanswered
// questionnaire question. Returns nil when no detour applies.
func (o *Orchestrator) tryInterstitial(ctx context.Context, userID int64, node *category.Node, profile *session.Profile) (*Outcome, error) {
	consent, err := profile.Consent(ctx)
	if err != nil {
		return nil, err
	}
	if !consent {
		return nil, nil
	}

	answers, err := profile.Answers(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := profile.Shown(ctx)
	if err != nil {
		return nil, err
	}

	ref := questionnaire.NextUnanswered(answers, ledger, false)
	if ref == nil {
		return nil, nil
	}
	if err := profile.SaveShown(ctx, ledger); err != nil {
		return nil, err
	}

	st, err := o.sessions.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	st.PendingHelp = &session.PendingHelp{
		CategoryID:   node.ID,
		CategoryName: node.Name,
		LevelName:    category.LevelName(node.Depth, category.CaseNominative),
	}
	st.Question = &session.QuestionPointer{Section: ref.SectionID, Question: ref.QuestionID}
	if err := o.sessions.SetState(ctx, userID, st); err != nil {
		return nil, err
	}

	return &Outcome{Interstitial: ref}, nil
}

func (o *Orchestrator) generate(ctx context.Context, userID int64, node *category.Node, path []*category.Node, profile *session.Profile) (*Outcome, error) {
	if o.client == nil {
		o.logger.WarnContext(ctx, "AI help requested but no backend is configured", "user_id", userID)
		return &Outcome{ErrClass: ClassConfig}, nil
	}

	answers, err := profile.Answers(ctx)
	if err != nil {
		return nil, err
	}
	history, err := profile.History(ctx)
	if err != nil {
		return nil, err
	}

	messages := BuildMessages(answers, path, history)

	content, genErr := o.client.Generate(ctx, messages)
	if genErr != nil {
		class := Classify(genErr)
		o.logger.ErrorContext(ctx, "AI help request failed",
			"user_id", userID, "category_id", node.ID, "class", string(class), "error", genErr)
		if err := profile.SetLastAIError(ctx, string(class)); err != nil {
			return nil, err
		}
		return &Outcome{ErrClass: class}, nil
	}

	requestLine := fmt.Sprintf("Помощь по теме: %s", categoryPathLine(path))
	if err := profile.AppendHistory(ctx,
		session.HistoryTurn{Role: RoleUser, Content: requestLine},
		session.HistoryTurn{Role: RoleAssistant, Content: content},
	); err != nil {
		return nil, err
	}
	if err := profile.CacheResponse(ctx, node.ID, content, o.now()); err != nil {
		return nil, err
	}
	if err := profile.SetLastAIError(ctx, ""); err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "AI help generated", "user_id", userID, "category_id", node.ID, "chars", len(content))
	return &Outcome{Content: content}, nil
}
