package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/text"
)

// showRootPicker presents the level-0 categories. When edit is set and a
// source message exists, the picker replaces it in place.
func (r *router) showRootPicker(ctx context.Context, cc callbackCtx, edit bool) {
	tree, err := r.Categories.Snapshot(ctx)
	if err != nil {
		r.sendError(ctx, cc.chatID)
		return
	}

	markup := categoryPicker(tree.Roots(), "")
	if edit && cc.messageID != 0 {
		if err := r.Sender.Edit(ctx, cc.chatID, cc.messageID, r.msgs.ChooseCategory, markup); err == nil {
			return
		}
	}
	r.send(ctx, cc.chatID, r.msgs.ChooseCategory, markup)
}

// handleCategoryOpen implements the recursive selection protocol: a node
// with children shows its description and recurses into the child picker
// without persisting anything; a leaf persists the selection into both
// scopes.
func (r *router) handleCategoryOpen(ctx context.Context, user *database.User, cc callbackCtx, param string) {
	tree, node, err := r.resolveNode(ctx, param)
	if err != nil {
		r.sendError(ctx, cc.chatID)
		return
	}
	if node == nil {
		r.showRootPicker(ctx, cc, true)
		return
	}

	if len(node.Children) > 0 {
		r.showChildPicker(ctx, cc, tree, node)
		return
	}

	r.selectLeaf(ctx, user, cc.chatID, tree, node)
}

func (r *router) showChildPicker(ctx context.Context, cc callbackCtx, tree *category.Tree, node *category.Node) {
	var header string
	label := fmt.Sprintf("%s «%s»", category.LevelName(node.Depth, category.CaseNominative), node.Name)
	switch node.Depth {
	case category.DepthStep:
		header = fmt.Sprintf(r.msgs.SelectConfirmStepTpl, label)
	case category.DepthChapter:
		header = fmt.Sprintf(r.msgs.SelectConfirmChapTpl, label)
	default:
		header = fmt.Sprintf(r.msgs.SelectConfirmOtherTpl, label)
	}

	body := header
	if desc := text.StripHTML(node.Description); desc != "" {
		body = header + "\n\n" + desc
	}

	backData := "cat_root"
	if node.ParentID != 0 {
		backData = callbackData("cat", strconv.FormatInt(node.ParentID, 10))
	}
	markup := categoryPicker(tree.Children(node.ID), backData)

	if cc.messageID != 0 {
		if err := r.Sender.Edit(ctx, cc.chatID, cc.messageID, body, markup); err == nil {
			return
		}
	}
	r.send(ctx, cc.chatID, body, markup)
}

// selectLeaf persists a terminal selection and confirms it with the
// level-appropriate wording. The persistent keyboard is refreshed so the
// AI-help button carries the new Point's name.
func (r *router) selectLeaf(ctx context.Context, user *database.User, chatID int64, tree *category.Tree, node *category.Node) {
	if err := r.Sessions.SelectCategory(ctx, chatID, user.TGUserID, node.ID); err != nil {
		r.sendError(ctx, chatID)
		return
	}

	label := fmt.Sprintf("%s «%s»", category.LevelName(node.Depth, category.CaseNominative), node.Name)
	var confirm string
	if node.Depth == category.DepthPoint {
		confirm = fmt.Sprintf(r.msgs.SelectConfirmPointTpl, label)
	} else {
		confirm = fmt.Sprintf(r.msgs.SelectConfirmOtherTpl, label)
	}
	r.send(ctx, chatID, confirm, mainMenuKeyboard(r.msgs, node.Name))

	body := pathLine(tree.Path(node.ID))
	if desc := text.StripHTML(node.Description); desc != "" {
		body += "\n\n" + desc
	}
	r.send(ctx, chatID, body, pointActions(node.ID))
}

// handleNextPoint advances to the deterministic successor Point.
func (r *router) handleNextPoint(ctx context.Context, user *database.User, cc callbackCtx, param string) {
	tree, node, err := r.resolveNode(ctx, param)
	if err != nil {
		r.sendError(ctx, cc.chatID)
		return
	}
	if node == nil {
		r.send(ctx, cc.chatID, r.msgs.NextPointNone, nil)
		return
	}

	next := tree.NextPoint(node.ID)
	if next == nil {
		r.send(ctx, cc.chatID, r.msgs.NextPointNone, nil)
		return
	}
	r.selectLeaf(ctx, user, cc.chatID, tree, next)
}

// handleCopyPoint sends the bare point name so the user can copy it.
func (r *router) handleCopyPoint(ctx context.Context, cc callbackCtx, param string) {
	_, node, err := r.resolveNode(ctx, param)
	if err != nil || node == nil {
		return
	}
	r.send(ctx, cc.chatID, node.Name, nil)
}
