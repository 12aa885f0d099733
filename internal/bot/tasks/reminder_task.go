package tasks

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stepwork/stepbot/internal/session"
)

// reminderConcurrency bounds the per-user fan-out of one reminder tick.
// Each user's branch is independent; failures stay isolated per user.
const reminderConcurrency = 8

// ReminderDue reports whether a reminder set to hhmm fires at the given UTC
// instant for a user offset by whole hours from UTC, and returns the start
// of that user's local calendar day expressed in UTC for the
// already-posted-today check.
func ReminderDue(nowUTC time.Time, offsetHours int, hhmm string) (bool, time.Time) {
	local := nowUTC.Add(time.Duration(offsetHours) * time.Hour)
	if local.Format("15:04") != hhmm {
		return false, time.Time{}
	}

	y, m, d := local.Date()
	localMidnightUTC := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(-time.Duration(offsetHours) * time.Hour)
	return true, localMidnightUTC
}

// newReminderTask creates the once-a-minute batch that reminds users who
// configured a reminder time and have not posted yet today (their local
// day). The tick is idempotent per minute: a user whose local time does not
// match is skipped without state changes.
func newReminderTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "reminder")

	return func(ctx context.Context) error {
		userIDs, err := deps.Store.ListUserIDsWithMeta(ctx, session.ReminderMetaKey)
		if err != nil {
			return fmt.Errorf("failed to list users with reminders: %w", err)
		}
		if len(userIDs) == 0 {
			return nil
		}

		now := time.Now().UTC()

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(reminderConcurrency)

		for _, userID := range userIDs {
			g.Go(func() error {
				if err := remindUser(gCtx, deps, userID, now); err != nil {
					// Per-user failures are logged, never fatal for the batch.
					log.ErrorContext(gCtx, "Reminder failed for user", "user_id", userID, "error", err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		log.DebugContext(ctx, "Reminder tick finished", "candidates", len(userIDs))
		return nil
	}
}

func remindUser(ctx context.Context, deps TaskDeps, userID int64, nowUTC time.Time) error {
	profile := deps.Sessions.Profile(userID)

	hhmm, err := profile.ReminderTime(ctx)
	if err != nil {
		return err
	}
	if hhmm == "" {
		return nil
	}
	offset, err := profile.UTCOffset(ctx)
	if err != nil {
		return err
	}

	due, since := ReminderDue(nowUTC, offset, hhmm)
	if !due {
		return nil
	}

	posted, err := deps.Store.HasPostSince(ctx, userID, since)
	if err != nil {
		return err
	}
	if posted {
		return nil
	}

	user, err := deps.Store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.ChatID == 0 {
		return nil
	}

	return deps.Sender.Send(ctx, user.ChatID, deps.Config.Messages.ReminderText, nil)
}
