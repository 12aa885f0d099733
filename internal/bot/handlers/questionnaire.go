package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/questionnaire"
	"github.com/stepwork/stepbot/internal/session"
)

// startQuestionnaire opens the questionnaire from the menu: consent prompt
// for newcomers, progress plus the section browser otherwise.
func (r *router) startQuestionnaire(ctx context.Context, user *database.User, chatID int64) {
	profile := r.Sessions.Profile(user.ID)
	consent, err := profile.Consent(ctx)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if !consent {
		r.send(ctx, chatID, r.msgs.QuestConsent, consentKeyboard())
		return
	}

	answers, err := profile.Answers(ctx)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	progress := questionnaire.ComputeProgress(answers, true)
	header := fmt.Sprintf(r.msgs.QuestProgressTpl, progress.Percent, progress.Answered, progress.Total)
	r.send(ctx, chatID, header, sectionListKeyboard())
}

// nextQuestionRef runs the scan and, on a hit, commits the shown ledger and
// arms the pending-question pointer. A nil ref with nil error means nothing
// is left to ask.
func (r *router) nextQuestionRef(ctx context.Context, user *database.User, allowRepeatLast bool) (*questionnaire.Ref, error) {
	profile := r.Sessions.Profile(user.ID)
	answers, err := profile.Answers(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := profile.Shown(ctx)
	if err != nil {
		return nil, err
	}

	ref := questionnaire.NextUnanswered(answers, ledger, allowRepeatLast)
	if ref == nil {
		return nil, nil
	}
	if err := profile.SaveShown(ctx, ledger); err != nil {
		return nil, err
	}

	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	st.Question = &session.QuestionPointer{Section: ref.SectionID, Question: ref.QuestionID}
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		return nil, err
	}
	return ref, nil
}

// askNextQuestion selects and renders the next unanswered question, or
// reports completion when the scan finds nothing.
func (r *router) askNextQuestion(ctx context.Context, user *database.User, chatID int64, allowRepeatLast bool) {
	ref, err := r.nextQuestionRef(ctx, user, allowRepeatLast)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if ref == nil {
		answers, err := r.Sessions.Profile(user.ID).Answers(ctx)
		if err != nil {
			r.sendError(ctx, chatID)
			return
		}
		progress := questionnaire.ComputeProgress(answers, true)
		if progress.Completed {
			r.send(ctx, chatID, r.msgs.QuestComplete, nil)
		} else {
			r.send(ctx, chatID, r.msgs.QuestNothing, nil)
		}
		return
	}

	r.renderQuestion(ctx, chatID, ref, nil)
}

// offerQuestionAfterPost follows a saved post with one questionnaire
// question for consented users. Re-showing the last-shown question is
// acceptable here, and an empty scan stays silent.
func (r *router) offerQuestionAfterPost(ctx context.Context, user *database.User, chatID int64) {
	consent, err := r.Sessions.Profile(user.ID).Consent(ctx)
	if err != nil || !consent {
		return
	}
	ref, err := r.nextQuestionRef(ctx, user, true)
	if err != nil || ref == nil {
		return
	}
	r.renderQuestion(ctx, chatID, ref, nil)
}

// renderQuestion sends the prompt with its section header, input hint, and
// answer keyboard.
func (r *router) renderQuestion(ctx context.Context, chatID int64, ref *questionnaire.Ref, picked []int) {
	var b strings.Builder
	fmt.Fprintf(&b, r.msgs.QuestSectionHdrTpl+"\n\n", ref.Section.Title)
	b.WriteString(ref.Question.Prompt)

	switch ref.Question.Type {
	case questionnaire.TypeChoice:
		b.WriteString("\n\n" + r.msgs.QuestChoiceHint)
	case questionnaire.TypeMultiple:
		b.WriteString("\n\n" + r.msgs.QuestMultiHint)
	}
	for i, opt := range ref.Question.Options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt)
	}

	r.send(ctx, chatID, b.String(), questionKeyboard(ref.Question, picked))
}

// handleQuestionAnswer tries to parse free text as the answer to the
// pending question. It reports whether the text was consumed. A failed
// answer attempt (edit mode, or an option index out of range) re-prompts
// with the pointer retained; free text that is not an answer attempt clears
// the pointer and falls through to ordinary message handling.
func (r *router) handleQuestionAnswer(ctx context.Context, user *database.User, st *session.ConversationState, chatID int64, raw string) bool {
	ref := questionnaire.Find(st.Question.Section, st.Question.Question)
	if ref == nil {
		st.Question = nil
		if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
			r.Logger.WarnContext(ctx, "Failed to clear stale question pointer", "user_id", user.ID, "error", err)
		}
		return false
	}

	value, err := questionnaire.Submit(ref.Question, raw)
	if err != nil {
		if st.Question.Editing || errors.Is(err, questionnaire.ErrAnswerOutOfRange) {
			msg := r.msgs.QuestInvalidChoice
			if ref.Question.Type == questionnaire.TypeMultiple {
				msg = r.msgs.QuestInvalidMulti
			}
			r.send(ctx, chatID, msg, questionKeyboard(ref.Question, st.Question.Picked))
			return true
		}
		st.Question = nil
		if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
			r.Logger.WarnContext(ctx, "Failed to clear question pointer", "user_id", user.ID, "error", err)
		}
		return false
	}

	r.saveAnswer(ctx, user, st, chatID, ref, value)
	return true
}

// saveAnswer persists the coerced value and routes to the follow-up: the
// section summary in edit mode, the pending AI help when one is stashed, or
// the next question otherwise.
func (r *router) saveAnswer(ctx context.Context, user *database.User, st *session.ConversationState, chatID int64, ref *questionnaire.Ref, value session.Value) {
	profile := r.Sessions.Profile(user.ID)
	answers, err := profile.Answers(ctx)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	answers.Set(ref.SectionID, ref.QuestionID, value)
	if err := profile.SaveAnswers(ctx, answers); err != nil {
		r.sendError(ctx, chatID)
		return
	}

	editing := st.Question != nil && st.Question.Editing
	st.Question = nil
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		r.sendError(ctx, chatID)
		return
	}

	switch {
	case editing:
		r.send(ctx, chatID, fmt.Sprintf(r.msgs.QuestEditSavedTpl, value.String()), nil)
		r.renderSectionSummary(ctx, user, chatID, ref.Section)
	case st.PendingHelp != nil:
		r.send(ctx, chatID, r.msgs.QuestSaved, nil)
		r.resumePendingHelp(ctx, user, st, chatID)
	default:
		progress := questionnaire.ComputeProgress(answers, true)
		line := fmt.Sprintf(r.msgs.QuestProgressTpl, progress.Percent, progress.Answered, progress.Total)
		r.send(ctx, chatID, r.msgs.QuestSaved+" "+line, nil)
		r.askNextQuestion(ctx, user, chatID, false)
	}
}

// handleQuestAction dispatches the questionnaire sub-actions.
func (r *router) handleQuestAction(ctx context.Context, user *database.User, cc callbackCtx, param string) {
	switch {
	case param == "start":
		r.startQuestionnaire(ctx, user, cc.chatID)

	case param == "consent_yes":
		if err := r.Sessions.Profile(user.ID).SetConsent(ctx, true); err != nil {
			r.sendError(ctx, cc.chatID)
			return
		}
		r.askNextQuestion(ctx, user, cc.chatID, false)

	case param == "consent_no":
		r.send(ctx, cc.chatID, r.msgs.Canceled, nil)

	case param == "next":
		r.requireConsent(ctx, user, cc.chatID, func() {
			r.askNextQuestion(ctx, user, cc.chatID, false)
		})

	case param == "skip":
		r.handleQuestSkip(ctx, user, cc.chatID)

	case param == "sections":
		r.startQuestionnaire(ctx, user, cc.chatID)

	case strings.HasPrefix(param, "section:"):
		sec := questionnaire.FindSection(strings.TrimPrefix(param, "section:"))
		if sec == nil {
			return
		}
		r.renderSectionSummary(ctx, user, cc.chatID, sec)

	case strings.HasPrefix(param, "edit:"):
		r.handleQuestEdit(ctx, user, cc.chatID, strings.TrimPrefix(param, "edit:"))

	case strings.HasPrefix(param, "opt:"):
		r.handleQuestOption(ctx, user, cc.chatID, strings.TrimPrefix(param, "opt:"))

	case strings.HasPrefix(param, "multi:"):
		r.handleQuestMultiToggle(ctx, user, cc, strings.TrimPrefix(param, "multi:"))

	case param == "multi_done":
		r.handleQuestMultiDone(ctx, user, cc.chatID)

	default:
		r.Logger.WarnContext(ctx, "Unknown questionnaire action, ignoring", "param", param)
	}
}

func (r *router) requireConsent(ctx context.Context, user *database.User, chatID int64, then func()) {
	consent, err := r.Sessions.Profile(user.ID).Consent(ctx)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	if !consent {
		r.send(ctx, chatID, r.msgs.QuestNoConsentReset, consentKeyboard())
		return
	}
	then()
}

// handleQuestSkip records the skip and moves on. The priority program-type
// question is never recorded, so it keeps being offered.
func (r *router) handleQuestSkip(ctx context.Context, user *database.User, chatID int64) {
	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil || st.Question == nil {
		return
	}
	ref := questionnaire.Find(st.Question.Section, st.Question.Question)
	if ref == nil {
		return
	}

	profile := r.Sessions.Profile(user.ID)
	ledger, err := profile.Shown(ctx)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	questionnaire.Skip(ledger, ref)
	if err := profile.SaveShown(ctx, ledger); err != nil {
		r.sendError(ctx, chatID)
		return
	}

	st.Question = nil
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		r.sendError(ctx, chatID)
		return
	}

	r.send(ctx, chatID, r.msgs.QuestSkipped, nil)
	if st.PendingHelp != nil {
		r.resumePendingHelp(ctx, user, st, chatID)
		return
	}
	r.askNextQuestion(ctx, user, chatID, false)
}

// handleQuestEdit re-opens an answered question for revision.
func (r *router) handleQuestEdit(ctx context.Context, user *database.User, chatID int64, param string) {
	sectionID, questionID, ok := strings.Cut(param, ":")
	if !ok {
		return
	}
	ref := questionnaire.Find(sectionID, questionID)
	if ref == nil {
		return
	}

	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}
	st.Question = &session.QuestionPointer{Section: sectionID, Question: questionID, Editing: true}
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		r.sendError(ctx, chatID)
		return
	}

	r.renderQuestion(ctx, chatID, ref, nil)
}

// handleQuestOption consumes a choice button press carrying a 1-based
// option index.
func (r *router) handleQuestOption(ctx context.Context, user *database.User, chatID int64, param string) {
	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil || st.Question == nil {
		return
	}
	ref := questionnaire.Find(st.Question.Section, st.Question.Question)
	if ref == nil || ref.Question.Type != questionnaire.TypeChoice {
		return
	}

	idx, err := strconv.Atoi(param)
	if err != nil || idx < 1 || idx > len(ref.Question.Options) {
		return
	}
	value, err := questionnaire.Submit(ref.Question, ref.Question.Options[idx-1])
	if err != nil {
		return
	}
	r.saveAnswer(ctx, user, st, chatID, ref, value)
}

// handleQuestMultiToggle flips one option of a multi-select question and
// redraws the keyboard in place.
func (r *router) handleQuestMultiToggle(ctx context.Context, user *database.User, cc callbackCtx, param string) {
	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil || st.Question == nil {
		return
	}
	ref := questionnaire.Find(st.Question.Section, st.Question.Question)
	if ref == nil || ref.Question.Type != questionnaire.TypeMultiple {
		return
	}

	idx, err := strconv.Atoi(param)
	if err != nil || idx < 1 || idx > len(ref.Question.Options) {
		return
	}

	found := false
	kept := st.Question.Picked[:0]
	for _, p := range st.Question.Picked {
		if p == idx {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	st.Question.Picked = kept
	if !found {
		st.Question.Picked = append(st.Question.Picked, idx)
	}
	if err := r.Sessions.SetState(ctx, user.ID, st); err != nil {
		r.sendError(ctx, cc.chatID)
		return
	}

	if cc.messageID != 0 {
		body := ref.Question.Prompt
		if err := r.Sender.Edit(ctx, cc.chatID, cc.messageID, body, questionKeyboard(ref.Question, st.Question.Picked)); err != nil {
			r.Logger.WarnContext(ctx, "Failed to redraw multi-select keyboard", "error", err)
		}
	}
}

// handleQuestMultiDone finalizes a button-driven multi-select answer.
func (r *router) handleQuestMultiDone(ctx context.Context, user *database.User, chatID int64) {
	st, err := r.Sessions.State(ctx, user.ID)
	if err != nil || st.Question == nil {
		return
	}
	ref := questionnaire.Find(st.Question.Section, st.Question.Question)
	if ref == nil || ref.Question.Type != questionnaire.TypeMultiple {
		return
	}

	if len(st.Question.Picked) == 0 {
		r.send(ctx, chatID, r.msgs.QuestInvalidMulti, questionKeyboard(ref.Question, nil))
		return
	}

	labels := make([]string, 0, len(st.Question.Picked))
	for _, idx := range st.Question.Picked {
		if idx >= 1 && idx <= len(ref.Question.Options) {
			labels = append(labels, ref.Question.Options[idx-1])
		}
	}
	r.saveAnswer(ctx, user, st, chatID, ref, session.Value{List: labels})
}

// renderSectionSummary lists a section's questions with their current
// answers and offers per-question edit buttons.
func (r *router) renderSectionSummary(ctx context.Context, user *database.User, chatID int64, sec *questionnaire.Section) {
	answers, err := r.Sessions.Profile(user.ID).Answers(ctx)
	if err != nil {
		r.sendError(ctx, chatID)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, r.msgs.QuestSectionHdrTpl+"\n", sec.Title)
	for i := range sec.Questions {
		q := &sec.Questions[i]
		answer := "—"
		if v, ok := answers.Get(sec.ID, q.ID); ok {
			answer = v.String()
		}
		fmt.Fprintf(&b, "\n%s\n→ %s\n", q.Prompt, answer)
	}

	r.send(ctx, chatID, b.String(), sectionEditKeyboard(sec))
}
