package ai_test

import (
	"strings"
	"testing"

	"github.com/stepwork/stepbot/internal/ai"
	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/database"
	"github.com/stepwork/stepbot/internal/session"
)

func promptTree() *category.Tree {
	return category.BuildTree([]database.Category{
		{ID: 1, Name: "Шаг 1"},
		{ID: 2, Name: "Признание бессилия", ParentID: 1},
		{ID: 3, Name: "Честность с собой", ParentID: 2},
	})
}

func TestBuildMessagesSystemVoice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		program  string
		fragment string
	}{
		{name: "NA program", program: "12 шагов НА (Анонимные Наркоманы)", fragment: "Анонимных Наркоманов"},
		{name: "AA program", program: "Анонимные Алкоголики (АА)", fragment: "Анонимные Алкоголики"},
		{name: "unknown program", program: "Другая программа", fragment: "двенадцатишаговой"},
		{name: "no program", program: "", fragment: "двенадцатишаговой"},
	}

	path := promptTree().Path(3)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			answers := make(session.Answers)
			if tc.program != "" {
				answers.Set("section1", "program_type", session.Value{Text: tc.program})
			}

			messages := ai.BuildMessages(answers, path, nil)
			if len(messages) != 2 {
				t.Fatalf("got %d messages, want system + user", len(messages))
			}
			if messages[0].Role != ai.RoleSystem {
				t.Fatalf("first message role = %q", messages[0].Role)
			}
			if !strings.Contains(messages[0].Content, tc.fragment) {
				t.Errorf("system instruction %q lacks %q", messages[0].Content, tc.fragment)
			}
		})
	}
}

func TestBuildMessagesHistoryWindow(t *testing.T) {
	t.Parallel()

	var history []session.HistoryTurn
	for i := 0; i < 10; i++ {
		role := ai.RoleUser
		if i%2 == 1 {
			role = ai.RoleAssistant
		}
		history = append(history, session.HistoryTurn{Role: role, Content: strings.Repeat("х", i+1)})
	}

	messages := ai.BuildMessages(make(session.Answers), promptTree().Path(3), history)

	// system + 8 history turns + final user prompt
	if len(messages) != 10 {
		t.Fatalf("got %d messages, want 10", len(messages))
	}
	if messages[1].Content != history[2].Content {
		t.Errorf("history window does not start at the third turn")
	}
	if messages[2].Role != ai.RoleAssistant {
		t.Errorf("assistant role lost in replay: %q", messages[2].Role)
	}
}

func TestBuildMessagesUserPrompt(t *testing.T) {
	t.Parallel()

	answers := make(session.Answers)
	answers.Set("section1", "city", session.Value{Text: "Казань"})
	answers.Set("section2", "addiction_type", session.Value{List: []string{"Алкоголь", "Игры"}})

	messages := ai.BuildMessages(answers, promptTree().Path(3), nil)
	prompt := messages[len(messages)-1]

	if prompt.Role != ai.RoleUser {
		t.Fatalf("final message role = %q", prompt.Role)
	}
	if !strings.Contains(prompt.Content, "Шаг «Шаг 1» → Глава «Признание бессилия» → Точка «Честность с собой»") {
		t.Errorf("prompt lacks the category path:\n%s", prompt.Content)
	}
	if !strings.Contains(prompt.Content, "Город: Казань") {
		t.Errorf("prompt lacks the city profile field:\n%s", prompt.Content)
	}
	if !strings.Contains(prompt.Content, "Вид зависимости: Алкоголь, Игры") {
		t.Errorf("prompt lacks the multi-select field:\n%s", prompt.Content)
	}
	if !strings.Contains(prompt.Content, "из четырёх частей") {
		t.Errorf("prompt lacks the response structure instruction:\n%s", prompt.Content)
	}
}
