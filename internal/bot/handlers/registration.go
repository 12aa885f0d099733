package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/session"
	"github.com/stepwork/stepbot/internal/text"
)

// startRegistration opens the interactive flow for an unknown user by
// setting the pre-registration name stage.
func (r *router) startRegistration(ctx context.Context, chatID, fromID int64) {
	reg := &session.Registration{Stage: session.RegAwaitingName}
	if err := r.Sessions.SetRegistration(ctx, fromID, reg); err != nil {
		r.sendError(ctx, chatID)
		return
	}
	r.send(ctx, chatID, r.msgs.AskName, nil)
}

// handleUnregisteredText routes free text from a user the store does not
// know: a pending name stage consumes the text as the display name, the
// problem stage ignores text (problems are chosen via buttons), anything
// else gets the registration prompt.
func (r *router) handleUnregisteredText(ctx context.Context, chatID, fromID int64, msgText string) {
	reg, err := r.Sessions.Registration(ctx, fromID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}

	switch {
	case reg == nil:
		r.send(ctx, chatID, r.msgs.NotRegistered, registrationStartKeyboard())
	case reg.Stage == session.RegAwaitingName:
		r.finishNameStage(ctx, chatID, fromID, msgText)
	case reg.Stage == session.RegAwaitingProblems:
		// Buttons only at this stage.
	}
}

// finishNameStage stores the name and moves to the problem picker.
func (r *router) finishNameStage(ctx context.Context, chatID, fromID int64, name string) {
	name = text.Sanitize(name)
	if name == "" {
		r.send(ctx, chatID, r.msgs.AskName, nil)
		return
	}

	reg := &session.Registration{Stage: session.RegAwaitingProblems, Name: name}
	if err := r.Sessions.SetRegistration(ctx, fromID, reg); err != nil {
		r.sendError(ctx, chatID)
		return
	}
	r.send(ctx, chatID, r.msgs.AskProblems, problemsKeyboard(nil))
}

// handleRegistrationAction covers the registration callbacks: starting the
// flow, toggling problem keys, and finishing with the selected set. These
// run before any known-user check.
func (r *router) handleRegistrationAction(ctx context.Context, cc callbackCtx, param string) {
	switch {
	case param == "start":
		if user, err := r.Store.GetUserByTelegramID(ctx, cc.fromID); err == nil && user != nil {
			r.sendMenu(ctx, user, cc.chatID)
			return
		}
		r.startRegistration(ctx, cc.chatID, cc.fromID)

	case strings.HasPrefix(param, "problem:"):
		r.toggleProblem(ctx, cc, strings.TrimPrefix(param, "problem:"))

	case param == "done":
		r.finishRegistration(ctx, cc)

	default:
		r.Logger.WarnContext(ctx, "Unknown registration action, ignoring", "param", param)
	}
}

func (r *router) toggleProblem(ctx context.Context, cc callbackCtx, key string) {
	reg, err := r.Sessions.Registration(ctx, cc.fromID)
	if err != nil || reg == nil || reg.Stage != session.RegAwaitingProblems {
		return
	}

	found := false
	kept := reg.Problems[:0]
	for _, k := range reg.Problems {
		if k == key {
			found = true
			continue
		}
		kept = append(kept, k)
	}
	reg.Problems = kept
	if !found {
		reg.Problems = append(reg.Problems, key)
	}

	if err := r.Sessions.SetRegistration(ctx, cc.fromID, reg); err != nil {
		r.sendError(ctx, cc.chatID)
		return
	}

	if cc.messageID != 0 {
		if err := r.Sender.Edit(ctx, cc.chatID, cc.messageID, r.msgs.AskProblems, problemsKeyboard(reg.Problems)); err != nil {
			r.Logger.WarnContext(ctx, "Failed to update problem picker", "error", err)
		}
	}
}

// finishRegistration creates the user record from the accumulated flow
// state and persists the chosen problems as a profile attribute.
func (r *router) finishRegistration(ctx context.Context, cc callbackCtx) {
	reg, err := r.Sessions.Registration(ctx, cc.fromID)
	if err != nil {
		r.sendError(ctx, cc.chatID)
		return
	}
	if reg == nil || reg.Stage != session.RegAwaitingProblems || reg.Name == "" {
		r.send(ctx, cc.chatID, r.msgs.NotRegistered, registrationStartKeyboard())
		return
	}

	user := &database.User{
		TGUserID:    cc.fromID,
		Login:       reg.Name,
		DisplayName: reg.Name,
		ChatID:      cc.chatID,
	}
	if err := r.Store.CreateUser(ctx, user); err != nil {
		r.Logger.ErrorContext(ctx, "Failed to create user", "tg_user_id", cc.fromID, "error", err)
		r.sendError(ctx, cc.chatID)
		return
	}

	if len(reg.Problems) > 0 {
		if err := r.Sessions.Profile(user.ID).SetProblems(ctx, reg.Problems); err != nil {
			r.Logger.WarnContext(ctx, "Failed to store problems", "user_id", user.ID, "error", err)
		}
	}
	if err := r.Sessions.ClearRegistration(ctx, cc.fromID); err != nil {
		r.Logger.WarnContext(ctx, "Failed to clear registration state", "error", err)
	}

	r.send(ctx, cc.chatID, fmt.Sprintf(r.msgs.RegistrationDoneTpl, user.DisplayName), mainMenuKeyboard(r.msgs, ""))
}
