package ai

import (
	"fmt"
	"strings"

	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/session"
)

// maxHistoryTurns bounds how many prior turns are replayed into the prompt.
const maxHistoryTurns = 8

// programVoices maps a recognizable fragment of the user's self-reported
// program to a role-appropriate system instruction. Matching is by
// substring, case-insensitive; an unset or unrecognized program falls back
// to the generic voice.
var programVoices = []struct {
	fragment    string
	instruction string
}{
	{"наркоман", "Ты опытный наставник программы «12 шагов Анонимных Наркоманов». Ты хорошо знаешь Базовый текст НА, традиции сообщества и язык выздоравливающих наркоманов."},
	{"алкогол", "Ты опытный наставник программы «Анонимные Алкоголики». Ты хорошо знаешь Большую книгу АА, двенадцать шагов и двенадцать традиций."},
	{"игрок", "Ты опытный наставник программы «Анонимные Игроки». Ты понимаешь специфику игровой зависимости и работу по шагам ГА."},
	{"переедающ", "Ты опытный наставник программы «Анонимные Переедающие». Ты понимаешь специфику пищевой зависимости и работу по шагам ОА."},
	{"вда", "Ты опытный наставник программы «Взрослые Дети Алкоголиков». Ты понимаешь специфику травмы детства и работу по программе ВДА."},
}

const genericVoice = "Ты опытный наставник двенадцатишаговой программы выздоровления. Ты говоришь тепло, поддерживающе и по существу."

const systemInstructionTail = " Отвечай на русском языке. Не давай медицинских назначений и не заменяй собой врача или психотерапевта."

func systemInstruction(program string) string {
	lowered := strings.ToLower(program)
	for _, voice := range programVoices {
		if strings.Contains(lowered, voice.fragment) {
			return voice.instruction + systemInstructionTail
		}
	}
	return genericVoice + systemInstructionTail
}

// profileFields names the questionnaire answers included in the prompt, in
// presentation order. Only non-empty fields are rendered.
var profileFields = []struct {
	section  string
	question string
	label    string
}{
	{"section1", "program_type", "Программа"},
	{"section1", "birth_date", "Дата рождения"},
	{"section1", "gender", "Пол"},
	{"section1", "city", "Город"},
	{"section2", "addiction_type", "Вид зависимости"},
	{"section2", "use_duration", "Стаж употребления"},
	{"section2", "last_use_date", "Последнее употребление"},
	{"section6", "motivation_level", "Мотивация"},
	{"section7", "strengths", "Сильные стороны"},
}

func profileSummary(answers session.Answers) string {
	var b strings.Builder
	for _, f := range profileFields {
		v, ok := answers.Get(f.section, f.question)
		if !ok || strings.TrimSpace(v.String()) == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.label, v.String())
	}
	return strings.TrimSpace(b.String())
}

const instructionBlock = `Подготовь ответ из четырёх частей:
1. Короткие выдержки из литературы программы по этой теме.
2. Примеры из опыта выздоравливающих.
3. Практические шаги, которые можно сделать уже сегодня.
4. Персональный совет с учётом анкеты собеседника.`

func categoryPathLine(path []*category.Node) string {
	parts := make([]string, 0, len(path))
	for _, n := range path {
		parts = append(parts, fmt.Sprintf("%s «%s»", category.LevelName(n.Depth, category.CaseNominative), n.Name))
	}
	return strings.Join(parts, " → ")
}

// BuildMessages assembles the full message list for one help request: the
// program-matched system instruction, up to the last eight history turns,
// and the final user prompt with the category path, the fixed four-part
// instruction, and the non-empty profile fields.
func BuildMessages(answers session.Answers, path []*category.Node, history []session.HistoryTurn) []Message {
	program := ""
	if v, ok := answers.Get("section1", "program_type"); ok {
		program = v.String()
	}

	messages := []Message{{Role: RoleSystem, Content: systemInstruction(program)}}

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, turn := range history {
		role := RoleUser
		if turn.Role == RoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: turn.Content})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Собеседник работает над темой: %s.\n\n", categoryPathLine(path))
	b.WriteString(instructionBlock)
	if summary := profileSummary(answers); summary != "" {
		b.WriteString("\n\nАнкета собеседника:\n")
		b.WriteString(summary)
	}

	messages = append(messages, Message{Role: RoleUser, Content: b.String()})
	return messages
}
