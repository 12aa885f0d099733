package tasks_test

import (
	"testing"
	"time"

	"github.com/stepwork/stepbot/internal/bot/tasks"
)

func TestReminderDue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		nowUTC    time.Time
		offset    int
		hhmm      string
		wantDue   bool
		wantSince time.Time
	}{
		{
			name:      "morning reminder at UTC+3",
			nowUTC:    time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC),
			offset:    3,
			hhmm:      "09:00",
			wantDue:   true,
			wantSince: time.Date(2026, 8, 28, 21, 0, 0, 0, time.UTC),
		},
		{
			name:    "one minute early",
			nowUTC:  time.Date(2026, 8, 29, 5, 59, 0, 0, time.UTC),
			offset:  3,
			hhmm:    "09:00",
			wantDue: false,
		},
		{
			name:    "one minute late",
			nowUTC:  time.Date(2026, 8, 29, 6, 1, 0, 0, time.UTC),
			offset:  3,
			hhmm:    "09:00",
			wantDue: false,
		},
		{
			name:      "utc user",
			nowUTC:    time.Date(2026, 8, 29, 21, 0, 0, 0, time.UTC),
			offset:    0,
			hhmm:      "21:00",
			wantDue:   true,
			wantSince: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "offset crosses the date line forward",
			nowUTC:    time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC),
			offset:    7,
			hhmm:      "06:00",
			wantDue:   true,
			wantSince: time.Date(2026, 8, 29, 17, 0, 0, 0, time.UTC),
		},
		{
			name:      "negative offset",
			nowUTC:    time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC),
			offset:    -5,
			hhmm:      "09:00",
			wantDue:   true,
			wantSince: time.Date(2026, 8, 29, 5, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			due, since := tasks.ReminderDue(tc.nowUTC, tc.offset, tc.hhmm)
			if due != tc.wantDue {
				t.Fatalf("due = %v, want %v", due, tc.wantDue)
			}
			if !due {
				return
			}
			if !since.Equal(tc.wantSince) {
				t.Errorf("since = %v, want %v", since, tc.wantSince)
			}
		})
	}
}
