package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/questionnaire"
	"github.com/stepwork/stepbot/internal/session"
)

// parseCommand splits "/cmd@botname args" into a lower-cased command and
// its argument tail. The @botname mention is stripped from the whole text
// first.
func parseCommand(text, botUsername string) (command, args string) {
	if botUsername != "" {
		text = strings.Replace(text, "@"+botUsername, "", 1)
	}
	command, args, _ = strings.Cut(text, " ")
	return strings.ToLower(command), strings.TrimSpace(args)
}

func (r *router) handleCommand(ctx context.Context, chatID, fromID int64, text string) {
	command, args := parseCommand(text, r.BotUsername)

	user, err := r.Store.GetUserByTelegramID(ctx, fromID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if user != nil {
		r.syncChatID(ctx, user, chatID)
	}

	switch command {
	case "/start":
		r.cmdStart(ctx, user, chatID)
	case "/help":
		r.send(ctx, chatID, r.msgs.Help, nil)
	case "/menu":
		if user == nil {
			r.send(ctx, chatID, r.msgs.NotRegistered, registrationStartKeyboard())
			return
		}
		r.sendMenu(ctx, user, chatID)
	case "/register":
		r.cmdRegister(ctx, user, chatID, fromID, args)
	case "/link":
		r.cmdLink(ctx, user, chatID, args)
	case "/status":
		if user == nil {
			r.send(ctx, chatID, r.msgs.NotRegistered, registrationStartKeyboard())
			return
		}
		r.sendStatus(ctx, user, chatID)
	case "/cancel":
		r.cmdCancel(ctx, user, chatID)
	default:
		r.Logger.DebugContext(ctx, "Unknown command", "command", command, "user_id", fromID)
	}
}

func (r *router) cmdStart(ctx context.Context, user *database.User, chatID int64) {
	if user == nil {
		r.send(ctx, chatID, r.msgs.Welcome, nil)
		r.send(ctx, chatID, r.msgs.NotRegistered, registrationStartKeyboard())
		return
	}
	r.sendMenu(ctx, user, chatID)
}

// cmdRegister registers directly when a name argument is given, otherwise
// starts the interactive flow.
func (r *router) cmdRegister(ctx context.Context, user *database.User, chatID, fromID int64, args string) {
	if user != nil {
		r.sendMenu(ctx, user, chatID)
		return
	}
	if args == "" {
		r.startRegistration(ctx, chatID, fromID)
		return
	}
	r.finishNameStage(ctx, chatID, fromID, args)
}

// cmdLink consumes a one-shot link code issued by the site and rebinds the
// user's login to the site account.
func (r *router) cmdLink(ctx context.Context, user *database.User, chatID int64, args string) {
	if user == nil {
		r.send(ctx, chatID, r.msgs.NotRegistered, registrationStartKeyboard())
		return
	}
	code := strings.TrimSpace(args)
	if code == "" {
		r.send(ctx, chatID, r.msgs.LinkBad, nil)
		return
	}

	key := "link_code." + code
	login, err := r.Store.GetSetting(ctx, key)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if login == "" {
		r.send(ctx, chatID, r.msgs.LinkBad, nil)
		return
	}

	if err := r.Store.UpdateUserLogin(ctx, user.ID, login); err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if err := r.Store.DeleteSetting(ctx, key); err != nil {
		r.Logger.WarnContext(ctx, "Failed to consume link code", "error", err)
	}
	r.send(ctx, chatID, r.msgs.LinkOK, nil)
}

// cmdCancel clears whatever pending action the user is in.
func (r *router) cmdCancel(ctx context.Context, user *database.User, chatID int64) {
	if user == nil {
		r.send(ctx, chatID, r.msgs.NothingToCancel, nil)
		return
	}
	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if st.Kind == session.StateIdle && st.Question == nil && st.PendingHelp == nil {
		r.send(ctx, chatID, r.msgs.NothingToCancel, nil)
		return
	}
	if err := r.Sessions.ClearState(ctx, user.ID); err != nil {
		r.sendError(ctx, chatID)
		return
	}
	r.send(ctx, chatID, r.msgs.Canceled, nil)
}

// sendStatus summarizes the user's registration, selection, questionnaire
// progress, and subscription.
func (r *router) sendStatus(ctx context.Context, user *database.User, chatID int64) {
	var b strings.Builder
	fmt.Fprintf(&b, "Имя: %s\nЛогин: %s\n", user.DisplayName, user.Login)

	if tree, err := r.Categories.Snapshot(ctx); err == nil {
		if id, err := r.Sessions.ResolveCategory(ctx, tree, chatID, user.TGUserID, r.Config.DefaultCategoryID); err == nil && id != 0 {
			fmt.Fprintf(&b, "Текущая точка: %s\n", pathLine(tree.Path(id)))
		}
	}

	profile := r.Sessions.Profile(user.ID)
	consent, _ := profile.Consent(ctx)
	answers, err := profile.Answers(ctx)
	if err == nil {
		progress := questionnaire.ComputeProgress(answers, consent)
		fmt.Fprintf(&b, r.msgs.QuestProgressTpl+"\n", progress.Percent, progress.Answered, progress.Total)
	}

	if pro, _ := profile.Pro(ctx); pro {
		b.WriteString("Подписка: PRO\n")
	} else {
		b.WriteString("Подписка: базовая\n")
	}
	if reminder, _ := profile.ReminderTime(ctx); reminder != "" {
		offset, _ := profile.UTCOffset(ctx)
		fmt.Fprintf(&b, "Напоминание: %s (UTC%+d)\n", reminder, offset)
	}

	r.send(ctx, chatID, strings.TrimSpace(b.String()), nil)
}

// handleReminderSet stores the reminder time chosen in settings.
func (r *router) handleReminderSet(ctx context.Context, user *database.User, chatID int64, param string) {
	profile := r.Sessions.Profile(user.ID)
	if param == "off" {
		if err := profile.SetReminderTime(ctx, ""); err != nil {
			r.sendError(ctx, chatID)
			return
		}
		r.send(ctx, chatID, r.msgs.ReminderOff, nil)
		return
	}
	if !validHHMM(param) {
		r.Logger.WarnContext(ctx, "Invalid reminder time parameter", "param", param)
		return
	}
	if err := profile.SetReminderTime(ctx, param); err != nil {
		r.sendError(ctx, chatID)
		return
	}
	r.send(ctx, chatID, fmt.Sprintf(r.msgs.ReminderSet, param), nil)
}

func (r *router) handleTimezoneSet(ctx context.Context, user *database.User, chatID int64, param string) {
	var offset int
	if _, err := fmt.Sscanf(param, "%d", &offset); err != nil || offset < -12 || offset > 14 {
		r.Logger.WarnContext(ctx, "Invalid timezone parameter", "param", param)
		return
	}
	if err := r.Sessions.Profile(user.ID).SetUTCOffset(ctx, offset); err != nil {
		r.sendError(ctx, chatID)
		return
	}
	r.send(ctx, chatID, fmt.Sprintf(r.msgs.TimezoneSet, offset), nil)
}

func validHHMM(s string) bool {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return false
	}
	return h >= 0 && h <= 23 && m >= 0 && m <= 59 && len(s) == 5
}

// pathLine renders a root-to-node path for display.
func pathLine(path []*category.Node) string {
	names := make([]string, 0, len(path))
	for _, n := range path {
		names = append(names, n.Name)
	}
	return strings.Join(names, " → ")
}
