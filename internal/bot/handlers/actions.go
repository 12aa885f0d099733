package handlers

import "strings"

// ActionKind is the closed set of callback actions the bot understands.
// Callback payloads are "action" or "action:param" strings decoded exactly
// once, at the dispatch boundary.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionMenu
	ActionCategoryRoot
	ActionCategoryOpen
	ActionNextPoint
	ActionCopyPoint
	ActionSettings
	ActionHelp
	ActionSupport
	ActionReminder
	ActionTimezone
	ActionRegisterInfo
	ActionLinkInfo
	ActionStatus
	ActionRegistration
	ActionQuest
	ActionAIHelp
	ActionAIRefresh
	ActionPostList
	ActionPostView
	ActionPostEdit
	ActionPostExport
)

// CallbackAction is one decoded button press.
type CallbackAction struct {
	Kind  ActionKind
	Param string
}

var actionTokens = map[string]ActionKind{
	"menu":         ActionMenu,
	"cat_root":     ActionCategoryRoot,
	"cat":          ActionCategoryOpen,
	"next_point":   ActionNextPoint,
	"copy_point":   ActionCopyPoint,
	"settings":     ActionSettings,
	"help":         ActionHelp,
	"support":      ActionSupport,
	"reminder":     ActionReminder,
	"tz":           ActionTimezone,
	"register":     ActionRegisterInfo,
	"link":         ActionLinkInfo,
	"status":       ActionStatus,
	"registration": ActionRegistration,
	"quest":        ActionQuest,
	"ai_help":      ActionAIHelp,
	"ai_refresh":   ActionAIRefresh,
	"posts":        ActionPostList,
	"post_view":    ActionPostView,
	"post_edit":    ActionPostEdit,
	"post_export":  ActionPostExport,
}

// decodeAction splits callback data on the first colon and resolves the
// action token. Unknown tokens decode to ActionUnknown and are ignored by
// the dispatcher.
func decodeAction(data string) CallbackAction {
	token, param, _ := strings.Cut(data, ":")
	kind, ok := actionTokens[token]
	if !ok {
		return CallbackAction{Kind: ActionUnknown, Param: data}
	}
	return CallbackAction{Kind: kind, Param: param}
}

func callbackData(token string, param string) string {
	if param == "" {
		return token
	}
	return token + ":" + param
}
