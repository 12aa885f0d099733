package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/stepwork/stepbot/internal/ai"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/session"
)

// handleAIHelp parses the category parameter and runs the help flow.
func (r *router) handleAIHelp(ctx context.Context, user *database.User, chatID int64, param string, refresh bool) {
	categoryID, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return
	}
	r.runHelp(ctx, user, chatID, categoryID, refresh, !refresh)
}

// runHelp executes one help request and renders its outcome.
func (r *router) runHelp(ctx context.Context, user *database.User, chatID, categoryID int64, refresh, allowInterstitial bool) {
	tree, err := r.Categories.Snapshot(ctx)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	node := tree.Get(categoryID)
	if node == nil {
		r.send(ctx, chatID, r.msgs.NoCategory, categoryPicker(tree.Roots(), ""))
		return
	}
	path := tree.Path(node.ID)

	var outcome *ai.Outcome
	if refresh {
		r.send(ctx, chatID, r.msgs.AIPending, nil)
		outcome, err = r.Orchestrator.Refresh(ctx, user.ID, node, path)
	} else {
		outcome, err = r.Orchestrator.RequestHelp(ctx, user.ID, node, path, allowInterstitial)
	}
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}

	switch {
	case outcome.Upsell:
		r.send(ctx, chatID, r.msgs.AIUpsell, nil)

	case outcome.Interstitial != nil:
		r.send(ctx, chatID, r.msgs.AIInterstitial, nil)
		r.renderQuestion(ctx, chatID, outcome.Interstitial, nil)

	case outcome.Content != "":
		header := strings.TrimRight(fmt.Sprintf(r.msgs.AIHeaderTpl, node.Name), "\n")
		if err := r.Sender.SendLong(ctx, chatID, header, outcome.Content, aiResponseActions(node.ID)); err != nil {
			r.Logger.ErrorContext(ctx, "Failed to deliver AI response", "user_id", user.ID, "error", err)
		}

	default:
		r.send(ctx, chatID, r.aiErrorMessage(outcome.ErrClass), aiResponseActions(node.ID))
	}
}

// resumePendingHelp continues a help request after the interstitial
// question was answered or skipped. The detour never repeats.
func (r *router) resumePendingHelp(ctx context.Context, user *database.User, st *session.ConversationState, chatID int64) {
	pending := st.PendingHelp
	st.PendingHelp = nil
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		r.sendError(ctx, chatID)
		return
	}

	r.send(ctx, chatID, r.msgs.AIPending, nil)
	r.runHelp(ctx, user, chatID, pending.CategoryID, false, false)
}

// aiErrorMessage maps an error class to its user-facing text.
func (r *router) aiErrorMessage(class ai.ErrorClass) string {
	switch class {
	case ai.ClassTimeout:
		return r.msgs.AIErrTimeout
	case ai.ClassServer:
		return r.msgs.AIErrServer
	case ai.ClassInvalidKey:
		return r.msgs.AIErrKey
	case ai.ClassBalance:
		return r.msgs.AIErrBalance
	case ai.ClassRateLimit:
		return r.msgs.AIErrRate
	case ai.ClassEmpty:
		return r.msgs.AIErrEmpty
	case ai.ClassConfig:
		return r.msgs.AIErrConfig
	default:
		return r.msgs.GeneralError
	}
}
