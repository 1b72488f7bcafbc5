// Package reminder runs the periodic pass that delivers due reminders.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dkrasnov/zadachnik/task"
	"github.com/dkrasnov/zadachnik/transport"
)

// DefaultInterval is how often a scan pass runs unless configured otherwise.
const DefaultInterval = time.Minute

// Scanner walks every user's collection on a fixed interval, sends
// notifications for reminders whose time has come, and clears them.
// Delivery is at-most-once: the reminder is cleared even when the send
// fails, so a broken channel drops the notification rather than repeating
// it every minute.
type Scanner struct {
	store    task.Store
	gw       transport.Gateway
	interval time.Duration
	log      *slog.Logger

	now func() time.Time
}

// New creates a scanner. A non-positive interval falls back to DefaultInterval.
func New(store task.Store, gw transport.Gateway, interval time.Duration, logger *slog.Logger) *Scanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scanner{
		store:    store,
		gw:       gw,
		interval: interval,
		log:      logger,
		now:      time.Now,
	}
}

// Run executes scan passes on the interval until ctx is canceled.
func (s *Scanner) Run(ctx context.Context) {
	s.log.Info("reminder scanner started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scanner stopped")
			return
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan runs one pass over all users. Per-user failures are logged and do
// not stop the pass.
func (s *Scanner) Scan(ctx context.Context) {
	users, err := s.store.Users()
	if err != nil {
		s.log.Error("scan: load user directory", "error", err)
		return
	}
	for _, u := range users {
		s.scanUser(ctx, u)
	}
}

func (s *Scanner) scanUser(ctx context.Context, u task.User) {
	tasks, err := s.store.List(u.ID)
	if err != nil {
		s.log.Error("scan: load tasks", "user", u.ID, "error", err)
		return
	}
	cleared := false
	for i := range tasks {
		if tasks[i].Reminder == "" {
			continue
		}
		when, err := task.ParseReminder(tasks[i].Reminder)
		if err != nil {
			s.log.Warn("scan: unparseable reminder", "user", u.ID, "task", tasks[i].Name, "value", tasks[i].Reminder)
			continue
		}
		if when.After(s.now()) {
			continue
		}
		if err := s.gw.Send(ctx, u.ID, notification(tasks[i])); err != nil {
			s.log.Error("scan: deliver reminder", "user", u.ID, "task", tasks[i].Name, "error", err)
		}
		tasks[i].Reminder = ""
		cleared = true
	}
	if !cleared {
		return
	}
	if err := s.store.Replace(u.ID, tasks); err != nil {
		s.log.Error("scan: persist cleared reminders", "user", u.ID, "error", err)
	}
}

// notification formats the reminder message sent to the user.
func notification(t task.Task) string {
	emoji, ok := task.PriorityEmoji[t.Priority]
	if !ok {
		emoji = "⚪"
	}
	var b strings.Builder
	b.WriteString("<b>⏰ Reminder!</b>\n\n")
	fmt.Fprintf(&b, "<b>Task:</b> %s\n", t.Name)
	fmt.Fprintf(&b, "<b>Description:</b> %s\n\n", t.Description)
	fmt.Fprintf(&b, "<b>Priority:</b> %s %s\n", emoji, t.Priority)
	fmt.Fprintf(&b, "<b>Category:</b> %s\n", t.Category)
	fmt.Fprintf(&b, "<b>Due:</b> %s\n\n", t.DueDate)
	b.WriteString("<b>Don't forget to finish it on time!</b>")
	return b.String()
}
