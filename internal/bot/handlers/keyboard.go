package handlers

import (
	"fmt"
	"strconv"

	"github.com/go-telegram/bot/models"

	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/config"
	"github.com/stepwork/stepbot/internal/questionnaire"
)

// mainMenuKeyboard builds the persistent reply keyboard. When a Point is
// selected, the AI-help button carries its name so the label doubles as a
// reminder of the active selection.
func mainMenuKeyboard(msgs *config.Messages, pointName string) *models.ReplyKeyboardMarkup {
	aiLabel := msgs.LabelAIHelp
	if pointName != "" {
		aiLabel = fmt.Sprintf(msgs.LabelAIHelpTpl, pointName)
	}

	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: msgs.LabelCategories}, {Text: msgs.LabelMyPosts}},
			{{Text: msgs.LabelQuestionnaire}, {Text: aiLabel}},
			{{Text: msgs.LabelSupport}, {Text: msgs.LabelSettings}},
		},
		ResizeKeyboard: true,
		IsPersistent:   true,
	}
}

// categoryPicker renders one button per child category. backData, when
// non-empty, adds a back row with that callback payload.
func categoryPicker(nodes []*category.Node, backData string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, n := range nodes {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         n.Name,
			CallbackData: callbackData("cat", strconv.FormatInt(n.ID, 10)),
		}})
	}
	if backData != "" {
		rows = append(rows, []models.InlineKeyboardButton{{Text: "⬅️ Назад", CallbackData: backData}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// pointActions is the inline keyboard attached to a leaf confirmation.
func pointActions(pointID int64) *models.InlineKeyboardMarkup {
	id := strconv.FormatInt(pointID, 10)
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🤖 Помощь ИИ", CallbackData: callbackData("ai_help", id)}},
			{
				{Text: "➡️ Следующая точка", CallbackData: callbackData("next_point", id)},
				{Text: "📋 Скопировать название", CallbackData: callbackData("copy_point", id)},
			},
			{{Text: "📝 Мои записи", CallbackData: "posts"}},
		},
	}
}

// aiResponseActions is attached to a delivered AI response.
func aiResponseActions(categoryID int64) *models.InlineKeyboardMarkup {
	id := strconv.FormatInt(categoryID, 10)
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🔄 Обновить", CallbackData: callbackData("ai_refresh", id)}},
		},
	}
}

// consentKeyboard asks for questionnaire consent.
func consentKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Да, начнём", CallbackData: callbackData("quest", "consent_yes")},
				{Text: "Позже", CallbackData: callbackData("quest", "consent_no")},
			},
		},
	}
}

// questionKeyboard renders answer buttons for a question: numbered options
// for choice, toggles plus a done button for multiple, and a skip row for
// everything.
func questionKeyboard(q *questionnaire.Question, picked []int) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	switch q.Type {
	case questionnaire.TypeChoice:
		for i, opt := range q.Options {
			rows = append(rows, []models.InlineKeyboardButton{{
				Text:         opt,
				CallbackData: callbackData("quest", "opt:"+strconv.Itoa(i+1)),
			}})
		}
	case questionnaire.TypeMultiple:
		pickedSet := make(map[int]bool, len(picked))
		for _, i := range picked {
			pickedSet[i] = true
		}
		for i, opt := range q.Options {
			label := opt
			if pickedSet[i+1] {
				label = "✅ " + opt
			}
			rows = append(rows, []models.InlineKeyboardButton{{
				Text:         label,
				CallbackData: callbackData("quest", "multi:"+strconv.Itoa(i+1)),
			}})
		}
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         "Готово",
			CallbackData: callbackData("quest", "multi_done"),
		}})
	}

	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         "Пропустить ➡️",
		CallbackData: callbackData("quest", "skip"),
	}})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// sectionListKeyboard lists questionnaire sections for browsing and editing.
func sectionListKeyboard() *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for i := range questionnaire.Sections {
		sec := &questionnaire.Sections[i]
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         sec.Title,
			CallbackData: callbackData("quest", "section:"+sec.ID),
		}})
	}
	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         "Продолжить заполнение",
		CallbackData: callbackData("quest", "next"),
	}})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// sectionEditKeyboard offers one edit button per question of a section.
func sectionEditKeyboard(sec *questionnaire.Section) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for i := range sec.Questions {
		q := &sec.Questions[i]
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         q.Prompt,
			CallbackData: callbackData("quest", "edit:"+sec.ID+":"+q.ID),
		}})
	}
	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         "⬅️ К разделам",
		CallbackData: callbackData("quest", "sections"),
	}})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// settingsKeyboard is the settings submenu: reminders and timezone.
func settingsKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "⏰ 09:00", CallbackData: callbackData("reminder", "09:00")},
				{Text: "⏰ 21:00", CallbackData: callbackData("reminder", "21:00")},
				{Text: "🔕 Выкл", CallbackData: callbackData("reminder", "off")},
			},
			{
				{Text: "UTC+2", CallbackData: callbackData("tz", "2")},
				{Text: "UTC+3", CallbackData: callbackData("tz", "3")},
				{Text: "UTC+5", CallbackData: callbackData("tz", "5")},
				{Text: "UTC+7", CallbackData: callbackData("tz", "7")},
			},
			{{Text: "ℹ️ Статус", CallbackData: "status"}},
		},
	}
}

// registrationStartKeyboard prompts an unknown user to register.
func registrationStartKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "📝 Зарегистрироваться", CallbackData: callbackData("registration", "start")}},
		},
	}
}

// problemOptions are the registration multi-select problem areas.
var problemOptions = []struct {
	Key   string
	Label string
}{
	{"narco", "Наркотики"},
	{"alco", "Алкоголь"},
	{"game", "Игры"},
	{"food", "Еда"},
	{"codep", "Созависимость"},
	{"other", "Другое"},
}

// problemsKeyboard renders the toggleable problem picker.
func problemsKeyboard(selected []string) *models.InlineKeyboardMarkup {
	selectedSet := make(map[string]bool, len(selected))
	for _, k := range selected {
		selectedSet[k] = true
	}

	var rows [][]models.InlineKeyboardButton
	for _, opt := range problemOptions {
		label := opt.Label
		if selectedSet[opt.Key] {
			label = "✅ " + opt.Label
		}
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         label,
			CallbackData: callbackData("registration", "problem:"+opt.Key),
		}})
	}
	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         "Готово",
		CallbackData: callbackData("registration", "done"),
	}})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// postListKeyboard renders one button per post.
func postListKeyboard(titles []string, ids []int64) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for i, id := range ids {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         titles[i],
			CallbackData: callbackData("post_view", strconv.FormatInt(id, 10)),
		}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// postActions is attached to a single viewed post.
func postActions(postID int64) *models.InlineKeyboardMarkup {
	id := strconv.FormatInt(postID, 10)
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✏️ Редактировать", CallbackData: callbackData("post_edit", id)},
				{Text: "📄 Экспорт", CallbackData: callbackData("post_export", id)},
			},
		},
	}
}
