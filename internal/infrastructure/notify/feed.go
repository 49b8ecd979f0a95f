// Package notify keeps the short-lived toast feed shown to the user.
package notify

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/mvcmarket/marketplace/internal/api/metrics"
	"github.com/mvcmarket/marketplace/internal/core/domain"
)

const defaultTTL = 30 * time.Second

// Feed holds notifications until their TTL lapses.
type Feed struct {
	items *cache.Cache
	log   zerolog.Logger
	now   func() time.Time
}

func NewFeed(ttl time.Duration, log zerolog.Logger) *Feed {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Feed{
		items: cache.New(ttl, 2*ttl),
		log:   log,
		now:   time.Now,
	}
}

func (f *Feed) Notify(_ context.Context, n domain.Notification) {
	if n.ID == "" {
		n.ID = xid.New().String()
	}
	if n.At.IsZero() {
		n.At = f.now().UTC()
	}
	f.items.Set(n.ID, n, cache.DefaultExpiration)
	metrics.NotificationsTotal.WithLabelValues(string(n.Level)).Inc()

	ev := f.log.Info()
	if n.Level == domain.LevelError {
		ev = f.log.Warn()
	}
	ev.Str("notification_id", n.ID).
		Str("level", string(n.Level)).
		Str("title", n.Title).
		Str("description", n.Description).
		Msg("notification")
}

// Recent returns live notifications, newest first. limit <= 0 means all.
func (f *Feed) Recent(limit int) []domain.Notification {
	live := f.items.Items()
	out := make([]domain.Notification, 0, len(live))
	for _, item := range live {
		if n, ok := item.Object.(domain.Notification); ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.After(out[j].At)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Dismiss drops one notification; unknown ids are ignored.
func (f *Feed) Dismiss(id string) {
	f.items.Delete(id)
}
