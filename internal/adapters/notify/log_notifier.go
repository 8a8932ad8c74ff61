// Package notify holds reminder delivery adapters
package notify

import (
	"context"
	"time"

	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// LogNotifier "delivers" reminders by logging them. It stands in until a
// real delivery channel exists.
type LogNotifier struct {
	logger *logger.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithComponent("notifier")}
}

func (n *LogNotifier) NotifyReminder(ctx context.Context, r ports.ReminderNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Infow("Reminder due",
		"note_id", r.NoteID.String(),
		"title", r.Title,
		"excerpt", r.Excerpt,
		"reminder_at", r.ReminderAt.Format(time.RFC3339),
	)
	return nil
}
