package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/session"
)

// startSupport arms the support flag; the next free-text message goes to
// the operator channel in full.
func (r *router) startSupport(ctx context.Context, user *database.User, chatID int64) {
	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	st.Kind = session.StateAwaitingSupport
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		r.sendError(ctx, chatID)
		return
	}
	r.send(ctx, chatID, r.msgs.SupportPrompt, nil)
}

// handleSupportText packages the message with the user's identity and
// context and forwards it to the operator chat. The awaiting flag is
// cleared only when delivery succeeds, so a failed attempt can be retried
// by simply sending again.
func (r *router) handleSupportText(ctx context.Context, user *database.User, st *session.ConversationState, chatID int64, raw string) {
	var b strings.Builder
	fmt.Fprintf(&b, "🆘 Сообщение в поддержку\n\nОт: %s (логин %s, tg id %d)\n", user.DisplayName, user.Login, user.TGUserID)

	if tree, err := r.Categories.Snapshot(ctx); err == nil {
		if id, err := r.Sessions.ResolveCategory(ctx, tree, chatID, user.TGUserID, r.Config.DefaultCategoryID); err == nil && id != 0 {
			fmt.Fprintf(&b, "Точка: %s\n", pathLine(tree.Path(id)))
		}
	}
	if pro, _ := r.Sessions.Profile(user.ID).Pro(ctx); pro {
		b.WriteString("Подписка: PRO\n")
	}
	b.WriteString("\n")
	b.WriteString(raw)

	if err := r.Sender.Send(ctx, r.Config.OperatorChatID, b.String(), nil); err != nil {
		r.Logger.ErrorContext(ctx, "Failed to deliver support message", "user_id", user.ID, "error", err)
		r.send(ctx, chatID, r.msgs.SupportFailed, nil)
		return
	}

	st.Kind = session.StateIdle
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		r.Logger.WarnContext(ctx, "Failed to clear support flag", "user_id", user.ID, "error", err)
	}
	r.send(ctx, chatID, r.msgs.SupportSent, nil)
}
