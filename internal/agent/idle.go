package agent

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

// Lockable is the part of the session the idle watcher needs.
type Lockable interface {
	IsLoaded() bool
	Lock()
}

// IdleLocker locks its target once no Touch has happened for the configured
// period. A zero or negative period disables it.
type IdleLocker struct {
	after  time.Duration
	target Lockable
	log    logging.Logger
	now    func() time.Time
	last   atomic.Int64
}

func NewIdleLocker(target Lockable, after time.Duration, l logging.Logger) *IdleLocker {
	il := &IdleLocker{
		after:  after,
		target: target,
		log:    l.With("module", "idle_locker"),
		now:    time.Now,
	}
	il.Touch()
	return il
}

// Touch records activity.
func (il *IdleLocker) Touch() {
	il.last.Store(il.now().UnixNano())
}

// Idle returns the time since the last Touch.
func (il *IdleLocker) Idle() time.Duration {
	return il.now().Sub(time.Unix(0, il.last.Load()))
}

// check locks the target if it has been idle long enough. It reports whether
// it locked.
func (il *IdleLocker) check(ctx context.Context) bool {
	if il.after <= 0 || !il.target.IsLoaded() {
		return false
	}
	idle := il.Idle()
	if idle < il.after {
		return false
	}
	il.target.Lock()
	il.log.Info(ctx, "auto-locked idle vault", "idle", idle.String())
	return true
}

// Run polls until ctx is done.
func (il *IdleLocker) Run(ctx context.Context) {
	if il.after <= 0 {
		return
	}
	t := time.NewTicker(pollInterval(il.after))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			il.check(ctx)
		}
	}
}

func pollInterval(after time.Duration) time.Duration {
	d := after / 10
	switch {
	case d < 10*time.Millisecond:
		return 10 * time.Millisecond
	case d > 30*time.Second:
		return 30 * time.Second
	}
	return d
}
