package questionnaire

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/stepwork/stepbot/internal/session"
	"github.com/stepwork/stepbot/internal/text"
)

// ErrInvalidAnswer marks an answer that could not be coerced to the
// question's type.
var ErrInvalidAnswer = errors.New("answer does not match the question")

// ErrAnswerOutOfRange marks input that parses as an option index (or index
// set) outside the option list. It wraps ErrInvalidAnswer. Callers treat it
// as a failed answer attempt requiring re-entry, not as free text.
var ErrAnswerOutOfRange = fmt.Errorf("%w: index out of range", ErrInvalidAnswer)

// completedThreshold is the progress percentage at which the questionnaire
// counts as complete.
const completedThreshold = 80

// Progress summarizes questionnaire completion.
type Progress struct {
	Completed bool
	Percent   int
	Answered  int
	Total     int
}

// ComputeProgress counts answered questions over the whole structure.
// Without consent it reports zero progress, not an error.
func ComputeProgress(answers session.Answers, consent bool) Progress {
	total := Total()
	if !consent {
		return Progress{Total: total}
	}

	answered := 0
	for i := range Sections {
		sec := &Sections[i]
		for j := range sec.Questions {
			if _, ok := answers.Get(sec.ID, sec.Questions[j].ID); ok {
				answered++
			}
		}
	}

	percent := int(math.Round(100 * float64(answered) / float64(total)))
	return Progress{
		Completed: percent >= completedThreshold,
		Percent:   percent,
		Answered:  answered,
		Total:     total,
	}
}

// NextUnanswered selects the next question to offer. The program-type
// question is returned first while unanswered, regardless of skip history.
// Otherwise the scan walks the structure in order, skipping answered and
// skipped questions, starting strictly after the last-shown marker (no
// wrap). allowRepeatLast makes the last-shown question itself eligible
// again. On success the ledger's last-shown marker is updated in place; the
// caller persists the ledger.
func NextUnanswered(answers session.Answers, ledger *session.ShownLedger, allowRepeatLast bool) *Ref {
	if _, ok := answers.Get(PrioritySection, PriorityQuestion); !ok {
		ref := Find(PrioritySection, PriorityQuestion)
		ledger.Last = Key(PrioritySection, PriorityQuestion)
		return ref
	}

	// A marker pointing at a question that no longer exists means the
	// structure changed under the user; scan from the start.
	last := ledger.Last
	if last != "" && findByKey(last) == nil {
		last = ""
		ledger.Last = ""
	}

	passedLast := last == ""
	for i := range Sections {
		sec := &Sections[i]
		for j := range sec.Questions {
			q := &sec.Questions[j]
			key := Key(sec.ID, q.ID)

			if !passedLast {
				if key == last {
					passedLast = true
					if !allowRepeatLast {
						continue
					}
				} else {
					continue
				}
			}

			if _, ok := answers.Get(sec.ID, q.ID); ok {
				continue
			}
			if ledger.IsSkipped(key) {
				continue
			}

			ledger.Last = key
			return &Ref{SectionID: sec.ID, QuestionID: q.ID, Section: sec, Question: q}
		}
	}

	return nil
}

func findByKey(key string) *Ref {
	section, question, ok := strings.Cut(key, ".")
	if !ok {
		return nil
	}
	return Find(section, question)
}

// Skip records a skip for the question and moves the last-shown marker onto
// it so the anti-repeat rule does not re-show it immediately. The
// program-type question is never recorded as skipped, so it keeps being
// offered.
func Skip(ledger *session.ShownLedger, ref *Ref) {
	key := Key(ref.SectionID, ref.QuestionID)
	if !(ref.SectionID == PrioritySection && ref.QuestionID == PriorityQuestion) {
		ledger.RecordSkip(key)
	}
	ledger.Last = key
}

// Submit coerces raw answer text to the question's type. For choice and
// multiple questions an unrecognized answer returns ErrInvalidAnswer, and a
// numeric index outside the option list returns ErrAnswerOutOfRange; date
// questions fall back to storing the sanitized raw text.
func Submit(q *Question, raw string) (session.Value, error) {
	raw = strings.TrimSpace(raw)

	switch q.Type {
	case TypeChoice:
		return coerceChoice(q, raw)
	case TypeMultiple:
		return coerceMultiple(q, raw)
	case TypeDate:
		return session.Value{Text: coerceDate(raw)}, nil
	default:
		return session.Value{Text: text.Sanitize(raw)}, nil
	}
}

func coerceChoice(q *Question, raw string) (session.Value, error) {
	if idx, err := strconv.Atoi(raw); err == nil {
		if idx < 1 || idx > len(q.Options) {
			return session.Value{}, ErrAnswerOutOfRange
		}
		return session.Value{Text: q.Options[idx-1]}, nil
	}

	for _, opt := range q.Options {
		if strings.EqualFold(opt, raw) {
			return session.Value{Text: opt}, nil
		}
	}
	return session.Value{}, ErrInvalidAnswer
}

func coerceMultiple(q *Question, raw string) (session.Value, error) {
	var labels []string
	seen := make(map[int]bool)

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil {
			return session.Value{}, ErrInvalidAnswer
		}
		if idx < 1 || idx > len(q.Options) {
			return session.Value{}, ErrAnswerOutOfRange
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		labels = append(labels, q.Options[idx-1])
	}

	if len(labels) == 0 {
		return session.Value{}, ErrInvalidAnswer
	}
	return session.Value{List: labels}, nil
}

// dateLayouts are the accepted input shapes, normalized to YYYY-MM-DD.
var dateLayouts = []string{"02.01.2006", "02/01/2006", "2006-01-02", "2006/01/02"}

func coerceDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	// Dates are advisory: an unparseable value is kept as entered.
	return text.Sanitize(raw)
}
