// Package questionnaire_test tests question selection and answer coercion.
package questionnaire_test

import (
	"errors"
	"testing"

	"github.com/stepwork/stepbot/internal/questionnaire"
	"github.com/stepwork/stepbot/internal/session"
)

func answered(pairs ...[2]string) session.Answers {
	a := make(session.Answers)
	for _, p := range pairs {
		a.Set(p[0], p[1], session.Value{Text: "ответ"})
	}
	return a
}

func withProgram(a session.Answers) session.Answers {
	a.Set(questionnaire.PrioritySection, questionnaire.PriorityQuestion,
		session.Value{Text: questionnaire.ProgramOptions[0]})
	return a
}

func TestNextUnansweredPriorityQuestionFirst(t *testing.T) {
	t.Parallel()

	answers := answered([2]string{"section1", "birth_date"}, [2]string{"section2", "use_duration"})
	ledger := &session.ShownLedger{Last: "section2.use_duration"}

	// Even a recorded skip does not suppress the program question.
	ledger.RecordSkip(questionnaire.Key(questionnaire.PrioritySection, questionnaire.PriorityQuestion))

	ref := questionnaire.NextUnanswered(answers, ledger, false)
	if ref == nil {
		t.Fatal("got nil ref")
	}
	if ref.SectionID != questionnaire.PrioritySection || ref.QuestionID != questionnaire.PriorityQuestion {
		t.Errorf("got %s.%s, want the program question first", ref.SectionID, ref.QuestionID)
	}
	if ledger.Last != questionnaire.Key(questionnaire.PrioritySection, questionnaire.PriorityQuestion) {
		t.Errorf("marker = %q, want the program question", ledger.Last)
	}
}

func TestNextUnansweredScansAfterMarker(t *testing.T) {
	t.Parallel()

	answers := withProgram(answered())
	ledger := &session.ShownLedger{Last: "section1.birth_date"}

	ref := questionnaire.NextUnanswered(answers, ledger, false)
	if ref == nil {
		t.Fatal("got nil ref")
	}
	if ref.SectionID != "section1" || ref.QuestionID != "gender" {
		t.Errorf("got %s.%s, want section1.gender (strictly after marker)", ref.SectionID, ref.QuestionID)
	}
}

func TestNextUnansweredRepeatLast(t *testing.T) {
	t.Parallel()

	answers := withProgram(answered())
	ledger := &session.ShownLedger{Last: "section1.birth_date"}

	ref := questionnaire.NextUnanswered(answers, ledger, true)
	if ref == nil || ref.QuestionID != "birth_date" {
		t.Errorf("got %+v, want the marker question itself", ref)
	}
}

func TestNextUnansweredSkipsAnsweredAndSkipped(t *testing.T) {
	t.Parallel()

	answers := withProgram(answered([2]string{"section1", "birth_date"}))
	ledger := &session.ShownLedger{Last: "section1.program_type"}
	ledger.RecordSkip("section1.gender")

	ref := questionnaire.NextUnanswered(answers, ledger, false)
	if ref == nil || ref.QuestionID != "city" {
		t.Errorf("got %+v, want section1.city", ref)
	}
}

func TestNextUnansweredNoWrap(t *testing.T) {
	t.Parallel()

	// Marker on the very last question and nothing eligible after it:
	// the scan must not wrap to earlier unanswered questions.
	answers := withProgram(answered())
	last := questionnaire.Sections[len(questionnaire.Sections)-1]
	lastQ := last.Questions[len(last.Questions)-1]
	ledger := &session.ShownLedger{Last: questionnaire.Key(last.ID, lastQ.ID)}

	if ref := questionnaire.NextUnanswered(answers, ledger, false); ref != nil {
		t.Errorf("got %s.%s, want nil", ref.SectionID, ref.QuestionID)
	}
}

func TestNextUnansweredStaleMarkerResets(t *testing.T) {
	t.Parallel()

	answers := withProgram(answered())
	ledger := &session.ShownLedger{Last: "gone.question"}

	ref := questionnaire.NextUnanswered(answers, ledger, false)
	if ref == nil || ref.QuestionID != "birth_date" {
		t.Errorf("got %+v, want scan from the start", ref)
	}
}

func TestSkip(t *testing.T) {
	t.Parallel()

	ledger := &session.ShownLedger{}
	ref := questionnaire.Find("section1", "gender")
	questionnaire.Skip(ledger, ref)

	if !ledger.IsSkipped("section1.gender") {
		t.Error("skip not recorded")
	}
	if ledger.Last != "section1.gender" {
		t.Errorf("marker = %q, want the skipped question", ledger.Last)
	}

	// The program question moves the marker but is never recorded skipped.
	prio := questionnaire.Find(questionnaire.PrioritySection, questionnaire.PriorityQuestion)
	questionnaire.Skip(ledger, prio)
	if ledger.IsSkipped(questionnaire.Key(questionnaire.PrioritySection, questionnaire.PriorityQuestion)) {
		t.Error("program question recorded as skipped")
	}
}

func TestSubmitChoice(t *testing.T) {
	t.Parallel()

	q := &questionnaire.Question{
		ID: "q", Type: questionnaire.TypeChoice,
		Options: []string{"Хорошее", "Ровное", "Плохое"},
	}

	tests := []struct {
		name       string
		raw        string
		want       string
		wantErr    bool
		outOfRange bool
	}{
		{name: "one-based index", raw: "2", want: "Ровное"},
		{name: "label match", raw: "хорошее", want: "Хорошее"},
		{name: "index out of range", raw: "4", wantErr: true, outOfRange: true},
		{name: "zero index", raw: "0", wantErr: true, outOfRange: true},
		{name: "unknown label", raw: "отличное", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v, err := questionnaire.Submit(q, tc.raw)
			if tc.wantErr {
				if !errors.Is(err, questionnaire.ErrInvalidAnswer) {
					t.Errorf("err = %v, want ErrInvalidAnswer", err)
				}
				if got := errors.Is(err, questionnaire.ErrAnswerOutOfRange); got != tc.outOfRange {
					t.Errorf("ErrAnswerOutOfRange = %v, want %v", got, tc.outOfRange)
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if v.Text != tc.want {
				t.Errorf("got %q, want %q", v.Text, tc.want)
			}
		})
	}
}

func TestSubmitMultiple(t *testing.T) {
	t.Parallel()

	q := &questionnaire.Question{
		ID: "q", Type: questionnaire.TypeMultiple,
		Options: []string{"Стресс", "Скука", "Праздники"},
	}

	tests := []struct {
		name       string
		raw        string
		want       []string
		wantErr    bool
		outOfRange bool
	}{
		{name: "two indices", raw: "1,3", want: []string{"Стресс", "Праздники"}},
		{name: "duplicates collapse", raw: "2, 2, 1", want: []string{"Скука", "Стресс"}},
		{name: "out of range", raw: "1,4", wantErr: true, outOfRange: true},
		{name: "not a number", raw: "стресс", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v, err := questionnaire.Submit(q, tc.raw)
			if tc.wantErr {
				if !errors.Is(err, questionnaire.ErrInvalidAnswer) {
					t.Errorf("err = %v, want ErrInvalidAnswer", err)
				}
				if got := errors.Is(err, questionnaire.ErrAnswerOutOfRange); got != tc.outOfRange {
					t.Errorf("ErrAnswerOutOfRange = %v, want %v", got, tc.outOfRange)
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if len(v.List) != len(tc.want) {
				t.Fatalf("got %v, want %v", v.List, tc.want)
			}
			for i := range tc.want {
				if v.List[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", v.List, tc.want)
				}
			}
		})
	}
}

func TestSubmitDate(t *testing.T) {
	t.Parallel()

	q := &questionnaire.Question{ID: "q", Type: questionnaire.TypeDate}

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "15.03.1990", want: "1990-03-15"},
		{raw: "15/03/1990", want: "1990-03-15"},
		{raw: "1990-03-15", want: "1990-03-15"},
		{raw: "1990/03/15", want: "1990-03-15"},
		{raw: "весной 1990 года", want: "весной 1990 года"},
	}

	for _, tc := range tests {
		v, err := questionnaire.Submit(q, tc.raw)
		if err != nil {
			t.Fatalf("Submit(%q): %v", tc.raw, err)
		}
		if v.Text != tc.want {
			t.Errorf("Submit(%q) = %q, want %q", tc.raw, v.Text, tc.want)
		}
	}
}

func TestSubmitTextSanitizes(t *testing.T) {
	t.Parallel()

	q := &questionnaire.Question{ID: "q", Type: questionnaire.TypeText}

	v, err := questionnaire.Submit(q, "  Москва\r\nи   область  ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v.Text != "Москва\nи область" {
		t.Errorf("got %q", v.Text)
	}
}

func TestComputeProgress(t *testing.T) {
	t.Parallel()

	total := questionnaire.Total()
	if total == 0 {
		t.Fatal("empty questionnaire")
	}

	answers := withProgram(answered())
	if p := questionnaire.ComputeProgress(answers, false); p.Percent != 0 || p.Answered != 0 {
		t.Errorf("progress without consent = %+v, want zero", p)
	}

	p := questionnaire.ComputeProgress(answers, true)
	if p.Answered != 1 || p.Total != total || p.Completed {
		t.Errorf("progress with one answer = %+v", p)
	}

	// Answer everything; progress must report completion.
	full := make(session.Answers)
	for i := range questionnaire.Sections {
		sec := &questionnaire.Sections[i]
		for j := range sec.Questions {
			full.Set(sec.ID, sec.Questions[j].ID, session.Value{Text: "ответ"})
		}
	}
	p = questionnaire.ComputeProgress(full, true)
	if !p.Completed || p.Percent != 100 || p.Answered != total {
		t.Errorf("full progress = %+v", p)
	}
}
