package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/matchme/internal/broadcast"
	"github.com/oggyb/matchme/internal/config"
)

// Record is one user's presence state. A record whose Online flag is
// false is kept around so "last seen" stays answerable; records are
// only dropped on explicit disconnect.
type Record struct {
	UserID   uint64
	Online   bool
	LastSeen time.Time
}

// Tracker keeps in-memory presence state and sweeps stale entries in
// the background. State is ephemeral: a restart forgets everyone.
type Tracker struct {
	mu      sync.Mutex
	records map[uint64]*Record

	staleThreshold time.Duration
	sweepInterval  time.Duration

	broadcaster broadcast.Broadcaster
	logger      *slog.Logger
	now         func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewTracker(cfg *config.Config, b broadcast.Broadcaster, logger *slog.Logger) *Tracker {
	return &Tracker{
		records:        make(map[uint64]*Record),
		staleThreshold: cfg.Presence.StaleThreshold,
		sweepInterval:  cfg.Presence.SweepInterval,
		broadcaster:    b,
		logger:         logger,
		now:            time.Now,
	}
}

// Start launches the background sweeper. Call Stop to shut it down.
func (t *Tracker) Start() {
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})

	go func() {
		defer close(t.doneCh)
		ticker := time.NewTicker(t.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.sweep(context.Background())
			case <-t.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the sweeper and waits for it to exit.
func (t *Tracker) Stop() {
	if t.stopCh == nil {
		return
	}
	close(t.stopCh)
	<-t.doneCh
	t.stopCh = nil
}

// Heartbeat marks the user online and refreshes their last-seen time.
// An offline or unknown user coming online triggers a presence event;
// a heartbeat from someone already online is just a refresh.
func (t *Tracker) Heartbeat(ctx context.Context, userID uint64) {
	t.mu.Lock()
	rec, ok := t.records[userID]
	cameOnline := !ok || !rec.Online
	if !ok {
		rec = &Record{UserID: userID}
		t.records[userID] = rec
	}
	rec.Online = true
	rec.LastSeen = t.now()
	t.mu.Unlock()

	if cameOnline {
		t.publish(ctx, userID, true)
	}
}

// Disconnect drops the user's record entirely. An explicit goodbye
// means there is no point keeping a last-seen entry.
func (t *Tracker) Disconnect(ctx context.Context, userID uint64) {
	t.mu.Lock()
	rec, ok := t.records[userID]
	wasOnline := ok && rec.Online
	delete(t.records, userID)
	t.mu.Unlock()

	if wasOnline {
		t.publish(ctx, userID, false)
	}
}

// Status returns the user's presence record, reporting ok=false when
// the tracker has never heard from them (or they disconnected).
func (t *Tracker) Status(userID uint64) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[userID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Online reports whether the user is currently marked online.
func (t *Tracker) Online(userID uint64) bool {
	rec, ok := t.Status(userID)
	return ok && rec.Online
}

// Snapshot returns a copy of every presence record.
func (t *Tracker) Snapshot() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	return out
}

// sweep flips every online record that has gone silent past the stale
// threshold to offline, keeping the record for last-seen queries. Each
// flip is announced; one failed announcement does not stop the rest.
func (t *Tracker) sweep(ctx context.Context) {
	cutoff := t.now().Add(-t.staleThreshold)

	t.mu.Lock()
	var stale []uint64
	for id, rec := range t.records {
		if rec.Online && rec.LastSeen.Before(cutoff) {
			rec.Online = false
			stale = append(stale, id)
		}
	}
	t.mu.Unlock()

	for _, id := range stale {
		t.publish(ctx, id, false)
	}
}

func (t *Tracker) publish(ctx context.Context, userID uint64, online bool) {
	event := broadcast.NewEvent(broadcast.EventPresence, map[string]any{
		"user_id": userID,
		"online":  online,
	})
	if err := t.broadcaster.Publish(ctx, broadcast.PresenceChannel(), event); err != nil {
		t.logger.Error("failed to publish presence event",
			"user_id", userID, "online", online, "error", err)
	}
}
