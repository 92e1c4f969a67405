package ai

import (
	"sync"
	"time"
)

// Limiter enforces fixed per-minute and per-day request windows per
// user. Counters reset when their window rolls over; state is
// in-process only, matching the single-instance deployment.
type Limiter struct {
	mu        sync.Mutex
	perMinute int
	perDay    int
	minutes   map[int]*window
	days      map[int]*window
}

type window struct {
	start time.Time
	count int
}

func NewLimiter(perMinute, perDay int) *Limiter {
	return &Limiter{
		perMinute: perMinute,
		perDay:    perDay,
		minutes:   make(map[int]*window),
		days:      make(map[int]*window),
	}
}

// Allow consumes one request slot for the user. It only consumes when
// both windows have room, so a minute-limited request does not burn
// daily quota.
func (l *Limiter) Allow(userID int, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	minute := l.current(l.minutes, userID, now, time.Minute)
	day := l.current(l.days, userID, now, 24*time.Hour)

	if minute.count >= l.perMinute || day.count >= l.perDay {
		return false
	}
	minute.count++
	day.count++
	return true
}

func (l *Limiter) current(windows map[int]*window, userID int, now time.Time, span time.Duration) *window {
	w := windows[userID]
	if w == nil || now.Sub(w.start) >= span {
		w = &window{start: now}
		windows[userID] = w
	}
	return w
}
