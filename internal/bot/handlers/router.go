package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/config"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/session"
)

// router carries the dependencies through one update's dispatch chain.
type router struct {
	HandlerDeps
	msgs *config.Messages
}

// callbackCtx is the originating context of a button press, passed
// explicitly through the dispatch chain.
type callbackCtx struct {
	queryID   string
	chatID    int64
	messageID int
	fromID    int64
}

// NewRouter returns the default update handler. Every update, message or
// button press, flows through here; there are no per-command registrations
// because dispatch depends on per-user conversation state.
func NewRouter(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
		r := &router{HandlerDeps: deps, msgs: &deps.Config.Messages}
		r.handleUpdate(ctx, update)
	}
}

// handleUpdate classifies one inbound update. For messages the checks run
// in strict priority order; the first match wins.
func (r *router) handleUpdate(ctx context.Context, update *models.Update) {
	if update.CallbackQuery != nil {
		r.handleCallback(ctx, update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	chatID := msg.Chat.ID
	fromID := msg.From.ID
	text := msg.Text

	if strings.HasPrefix(text, "/") {
		r.handleCommand(ctx, chatID, fromID, text)
		return
	}

	if r.handleMenuLabel(ctx, chatID, fromID, text) {
		return
	}

	user, err := r.Store.GetUserByTelegramID(ctx, fromID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if user == nil {
		r.handleUnregisteredText(ctx, chatID, fromID, text)
		return
	}

	r.syncChatID(ctx, user, chatID)

	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}

	switch st.Kind {
	case session.StateAwaitingSupport:
		r.handleSupportText(ctx, user, st, chatID, text)
		return
	case session.StateEditingPost:
		r.handlePostEditText(ctx, user, st, chatID, text)
		return
	}

	if st.Question != nil {
		if r.handleQuestionAnswer(ctx, user, st, chatID, text) {
			return
		}
		// Unrecognized answer: the pointer was cleared, the text falls
		// through to ordinary message handling.
	}

	r.handleFreeText(ctx, user, chatID, int64(msg.ID), text)
}

// handleCallback dispatches one button press. The acknowledgement is sent
// first, unconditionally, because the platform expects exactly one per
// callback regardless of dispatch outcome.
func (r *router) handleCallback(ctx context.Context, cb *models.CallbackQuery) {
	r.Sender.AnswerCallback(ctx, cb.ID, "")

	cc := callbackCtx{queryID: cb.ID, fromID: cb.From.ID}
	if cb.Message.Message != nil {
		cc.chatID = cb.Message.Message.Chat.ID
		cc.messageID = cb.Message.Message.ID
	}

	action := decodeAction(cb.Data)
	if action.Kind == ActionUnknown {
		r.Logger.WarnContext(ctx, "Unknown callback action, ignoring", "data", cb.Data, "user_id", cb.From.ID)
		return
	}

	// Registration actions must work before any registration check.
	if action.Kind == ActionRegistration {
		r.handleRegistrationAction(ctx, cc, action.Param)
		return
	}

	user, err := r.Store.GetUserByTelegramID(ctx, cc.fromID)
	if err != nil {
		r.sendError(ctx, cc.chatID)
		return
	}
	if user == nil {
		if err := r.Sender.Send(ctx, cc.chatID, r.msgs.NotRegistered, registrationStartKeyboard()); err != nil {
			r.Logger.ErrorContext(ctx, "Failed to send registration prompt", "error", err)
		}
		return
	}

	if cc.chatID != 0 {
		r.syncChatID(ctx, user, cc.chatID)
	}

	switch action.Kind {
	case ActionMenu:
		r.sendMenu(ctx, user, cc.chatID)
	case ActionCategoryRoot:
		r.showRootPicker(ctx, cc, true)
	case ActionCategoryOpen:
		r.handleCategoryOpen(ctx, user, cc, action.Param)
	case ActionNextPoint:
		r.handleNextPoint(ctx, user, cc, action.Param)
	case ActionCopyPoint:
		r.handleCopyPoint(ctx, cc, action.Param)
	case ActionSettings:
		r.sendSettings(ctx, cc.chatID)
	case ActionHelp:
		r.send(ctx, cc.chatID, r.msgs.Help, nil)
	case ActionSupport:
		r.startSupport(ctx, user, cc.chatID)
	case ActionReminder:
		r.handleReminderSet(ctx, user, cc.chatID, action.Param)
	case ActionTimezone:
		r.handleTimezoneSet(ctx, user, cc.chatID, action.Param)
	case ActionRegisterInfo:
		r.send(ctx, cc.chatID, r.msgs.Help, nil)
	case ActionLinkInfo:
		r.send(ctx, cc.chatID, r.msgs.LinkHint, nil)
	case ActionStatus:
		r.sendStatus(ctx, user, cc.chatID)
	case ActionQuest:
		r.handleQuestAction(ctx, user, cc, action.Param)
	case ActionAIHelp:
		r.handleAIHelp(ctx, user, cc.chatID, action.Param, false)
	case ActionAIRefresh:
		r.handleAIHelp(ctx, user, cc.chatID, action.Param, true)
	case ActionPostList:
		r.listPosts(ctx, user, cc.chatID)
	case ActionPostView:
		r.handlePostView(ctx, user, cc, action.Param)
	case ActionPostEdit:
		r.handlePostEdit(ctx, user, cc, action.Param)
	case ActionPostExport:
		r.handlePostExport(ctx, user, cc, action.Param)
	}
}

// handleMenuLabel matches the persistent-keyboard labels, including the
// parametrized AI-help variants. Matching is case-sensitive and exact.
func (r *router) handleMenuLabel(ctx context.Context, chatID, fromID int64, text string) bool {
	aiPrefix := fmt.Sprintf(r.msgs.LabelAIHelpTpl, "")
	isAIHelp := text == r.msgs.LabelAIHelp || strings.HasPrefix(text, aiPrefix)

	switch {
	case text == r.msgs.LabelCategories, text == r.msgs.LabelMyPosts,
		text == r.msgs.LabelQuestionnaire, text == r.msgs.LabelSupport,
		text == r.msgs.LabelSettings, text == r.msgs.LabelMenu, isAIHelp:
	default:
		return false
	}

	user, err := r.Store.GetUserByTelegramID(ctx, fromID)
	if err != nil {
		r.sendError(ctx, chatID)
		return true
	}
	if user == nil {
		r.send(ctx, chatID, r.msgs.NotRegistered, registrationStartKeyboard())
		return true
	}
	r.syncChatID(ctx, user, chatID)

	switch {
	case text == r.msgs.LabelCategories:
		r.showRootPicker(ctx, callbackCtx{chatID: chatID, fromID: fromID}, false)
	case text == r.msgs.LabelMyPosts:
		r.listPosts(ctx, user, chatID)
	case text == r.msgs.LabelQuestionnaire:
		r.startQuestionnaire(ctx, user, chatID)
	case text == r.msgs.LabelSupport:
		r.startSupport(ctx, user, chatID)
	case text == r.msgs.LabelSettings:
		r.sendSettings(ctx, chatID)
	case text == r.msgs.LabelMenu:
		r.sendMenu(ctx, user, chatID)
	case isAIHelp:
		r.requestActiveHelp(ctx, user, chatID)
	}
	return true
}

// handleFreeText is the lowest-priority branch: free text becomes a post in
// the active category, or a category picker when none is selected.
func (r *router) handleFreeText(ctx context.Context, user *database.User, chatID, messageID int64, text string) {
	tree, err := r.Categories.Snapshot(ctx)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}

	categoryID, err := r.Sessions.ResolveCategory(ctx, tree, chatID, user.TGUserID, r.Config.DefaultCategoryID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if categoryID == 0 {
		r.send(ctx, chatID, r.msgs.NoCategory, categoryPicker(tree.Roots(), ""))
		return
	}

	r.createPost(ctx, user, tree, tree.Get(categoryID), chatID, messageID, text)
}

func (r *router) syncChatID(ctx context.Context, user *database.User, chatID int64) {
	if user.ChatID == chatID {
		return
	}
	if err := r.Store.UpdateUserChatID(ctx, user.ID, chatID); err != nil {
		r.Logger.WarnContext(ctx, "Failed to sync chat id", "user_id", user.ID, "error", err)
		return
	}
	user.ChatID = chatID
}

// send delivers a message, logging delivery failures instead of propagating
// them up the dispatch chain.
func (r *router) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if err := r.Sender.Send(ctx, chatID, text, markup); err != nil {
		r.Logger.ErrorContext(ctx, "Failed to send message", "chat_id", chatID, "error", err)
	}
}

func (r *router) sendError(ctx context.Context, chatID int64) {
	r.send(ctx, chatID, r.msgs.GeneralError, nil)
}

// sendMenu shows the persistent keyboard, labeling the AI button with the
// active Point when one is selected.
func (r *router) sendMenu(ctx context.Context, user *database.User, chatID int64) {
	pointName := ""
	if tree, err := r.Categories.Snapshot(ctx); err == nil {
		if id, err := r.Sessions.ResolveCategory(ctx, tree, chatID, user.TGUserID, r.Config.DefaultCategoryID); err == nil && id != 0 {
			if node := tree.Get(id); node != nil {
				pointName = node.Name
			}
		}
	}
	r.send(ctx, chatID, r.msgs.Welcome, mainMenuKeyboard(r.msgs, pointName))
}

func (r *router) sendSettings(ctx context.Context, chatID int64) {
	r.send(ctx, chatID, r.msgs.LabelSettings, settingsKeyboard())
}

// requestActiveHelp resolves the active category and routes into the AI
// help flow.
func (r *router) requestActiveHelp(ctx context.Context, user *database.User, chatID int64) {
	tree, err := r.Categories.Snapshot(ctx)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	categoryID, err := r.Sessions.ResolveCategory(ctx, tree, chatID, user.TGUserID, r.Config.DefaultCategoryID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if categoryID == 0 {
		r.send(ctx, chatID, r.msgs.NoCategory, categoryPicker(tree.Roots(), ""))
		return
	}
	r.handleAIHelp(ctx, user, chatID, strconv.FormatInt(categoryID, 10), false)
}

// resolveNode parses a category id parameter against the current snapshot.
func (r *router) resolveNode(ctx context.Context, param string) (*category.Tree, *category.Node, error) {
	tree, err := r.Categories.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return tree, nil, nil
	}
	return tree, tree.Get(id), nil
}
