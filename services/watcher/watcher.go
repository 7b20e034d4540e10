// Package watcher periodically re-fetches every registered user's
// results and raises notifications for marks that were not in the
// previous snapshot.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"stdmark-backend/lib/marks"
	"stdmark-backend/services/scraper"
	"stdmark-backend/services/userstore"
	"stdmark-backend/services/userstore/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/watcher")

// Portal is the slice of the scraper client the watcher needs.
type Portal interface {
	FetchCollegesAndToken(ctx context.Context) ([]scraper.CollegeOption, string, error)
	FetchStudentData(ctx context.Context, collegeID, universityID, token string) (scraper.StudentData, error)
}

// Notifier delivers the "new marks appeared" message for one user.
// An error here aborts persisting the new snapshot so the same marks
// notify again on the next sweep instead of being lost.
type Notifier interface {
	NotifyNewMarks(ctx context.Context, userID int64, info marks.StudentInfo, fresh []marks.MarkRecord) error
}

type Options struct {
	// sweep interval, defaults to one hour
	IntervalSeconds int `json:"interval_seconds"`
}

type Watcher struct {
	store    *userstore.Store
	portal   Portal
	notifier Notifier
	interval time.Duration

	// per-user locks so a manual check and the sweep never fetch and
	// persist for the same user concurrently
	userLocks sync.Map
}

func NewWatcher(store *userstore.Store, portal Portal, notifier Notifier, opts Options) *Watcher {
	interval := time.Duration(opts.IntervalSeconds) * time.Second
	if opts.IntervalSeconds <= 0 {
		interval = time.Hour
	}
	return &Watcher{
		store:    store,
		portal:   portal,
		notifier: notifier,
		interval: interval,
	}
}

func (w *Watcher) lockUser(id int64) func() {
	mu, _ := w.userLocks.LoadOrStore(id, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// Run sweeps once immediately, then on every tick until the context
// is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	slog.InfoContext(ctx, "watcher started", "interval", w.interval)

	w.Sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "watcher stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep fetches one token for the whole pass, then checks every
// notifiable user. A failing user is logged and skipped, one broken
// registration must not starve the rest.
func (w *Watcher) Sweep(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Sweep")
	defer span.End()

	users, err := w.store.ListNotifiable(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list users")
		slog.ErrorContext(ctx, "sweep: failed to list users", "err", err)
		return
	}
	if len(users) == 0 {
		return
	}

	_, token, err := w.portal.FetchCollegesAndToken(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch token")
		slog.ErrorContext(ctx, "sweep: failed to fetch token", "err", err)
		return
	}

	notified := 0
	for _, user := range users {
		fresh, err := w.CheckUser(ctx, user, token)
		if err != nil {
			slog.WarnContext(ctx, "sweep: user check failed", "user", user.ID, "err", err)
			continue
		}
		if len(fresh) > 0 {
			notified++
		}
	}

	span.SetAttributes(
		attribute.Int("users", len(users)),
		attribute.Int("notified", notified),
	)
	slog.InfoContext(ctx, "sweep finished", "users", len(users), "notified", notified)
}

// CheckUser fetches one user's current results, diffs them against
// the stored snapshot and, when anything is new, notifies and then
// persists the fetched snapshot. Notification failure leaves the old
// snapshot in place so the next sweep retries. The snapshot is only
// written alongside a notification, marks that merely disappear
// upstream change nothing.
func (w *Watcher) CheckUser(ctx context.Context, user db.User, token string) ([]marks.MarkRecord, error) {
	ctx, span := tracer.Start(ctx, "CheckUser")
	defer span.End()
	span.SetAttributes(attribute.Int64("user", user.ID))

	unlock := w.lockUser(user.ID)
	defer unlock()

	// the caller's row may predate another check that already
	// notified and persisted for this user, the read must happen
	// under the lock or the diff re-reports those marks
	current, err := w.store.GetOrCreate(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	data, err := w.portal.FetchStudentData(ctx, current.CollegeID, current.UniversityID, token)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	old := userstore.MarksOf(ctx, current)
	// both sides are in canonical order, equal snapshots hash equal
	// and need neither a diff nor a write
	if marks.Hash(old) == marks.Hash(data.Marks) {
		return nil, nil
	}

	fresh := marks.FindNewMarks(old, data.Marks)
	if len(fresh) == 0 {
		return nil, nil
	}

	if w.notifier != nil {
		err := w.notifier.NotifyNewMarks(ctx, current.ID, data.Info, fresh)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("notify: %w", err)
		}
	}

	err = w.store.UpdateMarks(ctx, current.ID, data.Marks)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return fresh, nil
}

// FormatNewMarks renders the notification body, one line per fresh
// mark in the order the portal reported them.
func FormatNewMarks(info marks.StudentInfo, fresh []marks.MarkRecord) string {
	var b strings.Builder
	b.WriteString("🎉 ظهرت علامات جديدة")
	if info.Name != "" {
		b.WriteString(" للطالب " + info.Name)
	}
	b.WriteString(":\n")
	for _, m := range fresh {
		fmt.Fprintf(&b, "📚 %s: %s (%s) - %s\n", m.Subject, m.Mark, m.Status, m.Date)
	}
	return b.String()
}
