package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/session"
	"github.com/stepwork/stepbot/internal/text"
)

const autoPublishSettingKey = "auto_publish"

// createPost turns free text into a post in the given category. The title
// carries the category name, the author login, and the ordinal of this post
// among the author's posts in that category and its descendants.
func (r *router) createPost(ctx context.Context, user *database.User, tree *category.Tree, node *category.Node, chatID, messageID int64, raw string) {
	if node == nil {
		r.send(ctx, chatID, r.msgs.NoCategory, nil)
		return
	}

	count, err := r.Store.CountPosts(ctx, tree.Descendants(node.ID), user.ID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	title := fmt.Sprintf("%s - %s - %d", node.Name, user.Login, count+1)

	status := database.PostStatusDraft
	if auto, err := r.Store.GetSetting(ctx, autoPublishSettingKey); err == nil && (auto == "1" || auto == "true") {
		status = database.PostStatusPublish
	}

	post := &database.Post{
		UserID:          user.ID,
		CategoryID:      node.ID,
		ChatID:          chatID,
		SourceMessageID: messageID,
		Title:           title,
		Content:         text.Sanitize(raw),
		Status:          status,
	}
	if err := r.Store.CreatePost(ctx, post); err != nil {
		// Store validation errors are surfaced verbatim and abort the
		// confirmation.
		r.send(ctx, chatID, fmt.Sprintf(r.msgs.PostCreateFailTpl, err.Error()), nil)
		return
	}

	ref := &database.MessageRef{PostID: post.ID, ChatID: chatID, MessageID: messageID}
	if err := r.Store.SaveMessageRef(ctx, ref); err != nil {
		r.Logger.WarnContext(ctx, "Failed to save message ref", "post_id", post.ID, "error", err)
	}

	confirmTpl := r.msgs.PostSavedTpl
	if status == database.PostStatusPublish {
		confirmTpl = r.msgs.PostPublishedTpl
	}
	r.send(ctx, chatID, fmt.Sprintf(confirmTpl, title), mainMenuKeyboard(r.msgs, node.Name))

	r.offerQuestionAfterPost(ctx, user, chatID)
}

// listPosts shows the user's recent posts in the active category and its
// descendants.
func (r *router) listPosts(ctx context.Context, user *database.User, chatID int64) {
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

	posts, err := r.Store.ListUserPosts(ctx, user.ID, tree.Descendants(categoryID), 10)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if len(posts) == 0 {
		r.send(ctx, chatID, r.msgs.NoPosts, nil)
		return
	}

	titles := make([]string, len(posts))
	ids := make([]int64, len(posts))
	for i, p := range posts {
		titles[i] = p.Title
		ids[i] = p.ID
	}
	r.send(ctx, chatID, r.msgs.LabelMyPosts, postListKeyboard(titles, ids))
}

// loadOwnPost resolves a post id parameter and enforces ownership.
func (r *router) loadOwnPost(ctx context.Context, user *database.User, chatID int64, param string) *database.Post {
	postID, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return nil
	}
	post, err := r.Store.GetPostByID(ctx, postID)
	if err != nil {
		r.sendError(ctx, chatID)
		return nil
	}
	if post == nil {
		r.send(ctx, chatID, r.msgs.NoPosts, nil)
		return nil
	}
	if post.UserID != user.ID {
		r.send(ctx, chatID, r.msgs.PostEditNotOwner, nil)
		return nil
	}
	return post
}

func (r *router) handlePostView(ctx context.Context, user *database.User, cc callbackCtx, param string) {
	post := r.loadOwnPost(ctx, user, cc.chatID, param)
	if post == nil {
		return
	}
	body := fmt.Sprintf("<b>%s</b>\n\n%s", post.Title, post.Content)
	r.send(ctx, cc.chatID, body, postActions(post.ID))
}

// handlePostEdit arms the editing pointer; the next free-text message
// replaces the post content.
func (r *router) handlePostEdit(ctx context.Context, user *database.User, cc callbackCtx, param string) {
	post := r.loadOwnPost(ctx, user, cc.chatID, param)
	if post == nil {
		return
	}

	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil {
		r.sendError(ctx, cc.chatID)
		return
	}
	st.Kind = session.StateEditingPost
	st.PostID = post.ID
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		r.sendError(ctx, cc.chatID)
		return
	}
	r.send(ctx, cc.chatID, r.msgs.PostEditPrompt, nil)
}

// handlePostEditText consumes the replacement content. The editing pointer
// is cleared on every outcome: success, ownership mismatch, and store
// failure alike, so no stale pointer survives a failed update.
func (r *router) handlePostEditText(ctx context.Context, user *database.User, st *session.ConversationState, chatID int64, raw string) {
	postID := st.PostID
	st.Kind = session.StateIdle
	st.PostID = 0
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		r.sendError(ctx, chatID)
		return
	}

	post, err := r.Store.GetPostByID(ctx, postID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if post == nil || post.UserID != user.ID {
		r.send(ctx, chatID, r.msgs.PostEditNotOwner, nil)
		return
	}

	if err := r.Store.UpdatePostContent(ctx, postID, text.Sanitize(raw)); err != nil {
		r.send(ctx, chatID, fmt.Sprintf(r.msgs.PostEditFailTpl, err.Error()), nil)
		return
	}
	r.send(ctx, chatID, r.msgs.PostEditSaved, nil)
}

// handlePostExport delivers the post as a plain-text document.
func (r *router) handlePostExport(ctx context.Context, user *database.User, cc callbackCtx, param string) {
	post := r.loadOwnPost(ctx, user, cc.chatID, param)
	if post == nil {
		return
	}

	data := []byte(post.Title + "\n\n" + post.Content + "\n")
	filename := fmt.Sprintf("post_%d.txt", post.ID)
	if err := r.Sender.SendDocument(ctx, cc.chatID, filename, data, post.Title); err != nil {
		r.Logger.ErrorContext(ctx, "Failed to export post", "post_id", post.ID, "error", err)
		r.sendError(ctx, cc.chatID)
	}
}
