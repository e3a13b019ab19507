package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"dlnabridge/internal/catalog"
	"dlnabridge/internal/observability"
)

const (
	dedupWindow        = 30 * time.Second
	seekThreshold       = 10 * time.Second
	activeStaleAfter    = 15 * time.Minute
	pausedStaleAfter    = 2 * time.Hour
	staleSweepEvery     = 5 * time.Minute
	resumePreferMinimum = 2 * time.Minute
	resumeDisagreement  = 1 * time.Minute
)

// Tracker is the PlaybackTracker: it owns every active Session and
// Progress record and is the sole writer of upstream telemetry.
type Tracker struct {
	logger  *slog.Logger
	catalog catalog.Client

	mu           sync.Mutex
	byItem       map[string]string // item_id -> session_id
	sessions     map[string]*Session
	progress     map[string]*Progress
}

func NewTracker(logger *slog.Logger, client catalog.Client) *Tracker {
	return &Tracker{
		logger:   logger,
		catalog:  client,
		byItem:   make(map[string]string),
		sessions: make(map[string]*Session),
		progress: make(map[string]*Progress),
	}
}

// Run drives the staleness sweep until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(staleSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

// Begin starts (or resumes, per the dedup rule) a session for itemID and
// returns the session and its Progress record. A reused session sends no
// Start telemetry; if its stored position differs from seekTicks by more
// than 10s it is moved with Seek and a progress report is sent at once.
func (t *Tracker) Begin(ctx context.Context, userID, itemID, userAgent, clientEndpoint string, seekTicks int64, playMethod string) (*Session, *Progress) {
	t.mu.Lock()
	if sid, ok := t.byItem[itemID]; ok {
		if sess, ok := t.sessions[sid]; ok {
			sess.mu.Lock()
			recent := time.Since(sess.LastProgressUpdate) <= dedupWindow
			sess.mu.Unlock()
			if recent {
				prog := t.progress[sid]
				t.mu.Unlock()
				if absDiff64(seekTicks, prog.CurrentTicks) > int64(seekThreshold.Seconds())*catalog.TicksPerSecond {
					t.Seek(sid, seekTicks)
					t.ReportProgress(ctx, sid, false, playMethod)
				}
				return sess, prog
			}
		}
		// Stale entry under the same item_id: evict before starting fresh.
		t.evictLocked(sid)
	}

	sid := uuid.Must(uuid.NewV4()).String()
	now := time.Now()
	sess := &Session{
		SessionID:            sid,
		ItemID:               itemID,
		UserID:               userID,
		StartTime:            now,
		LastProgressUpdate:    now,
		LastPositionTicks:    seekTicks,
		UserAgent:            userAgent,
		ClientEndpoint:       clientEndpoint,
		InitialPositionTicks: seekTicks,
	}
	prog := &Progress{CurrentTicks: seekTicks, LastUpdateTime: now}
	t.byItem[itemID] = sid
	t.sessions[sid] = sess
	t.progress[sid] = prog
	count := len(t.sessions)
	t.mu.Unlock()
	observability.ActiveSessions.Set(float64(count))

	if err := t.catalog.ReportStart(ctx, catalog.PlaybackStart{
		UserID:         userID,
		ItemID:         itemID,
		SessionID:      sid,
		PlayMethod:     playMethod,
		StartTimeTicks: seekTicks,
		PositionTicks:  seekTicks,
	}); err != nil {
		t.logger.Warn("playback: report start failed", "session", sid, "item", itemID, "error", err)
	}
	return sess, prog
}

// CurrentTicks returns sessionID's current position, or 0 if unknown.
func (t *Tracker) CurrentTicks(sessionID string) int64 {
	t.mu.Lock()
	prog, ok := t.progress[sessionID]
	t.mu.Unlock()
	if !ok {
		return 0
	}
	return prog.CurrentTicks
}

// Seek records an explicit position change for sessionID, per the
// invariant that current_ticks advances only on explicit seek or update.
func (t *Tracker) Seek(sessionID string, ticks int64) {
	t.mu.Lock()
	prog, ok := t.progress[sessionID]
	t.mu.Unlock()
	if !ok {
		return
	}
	now := time.Now()
	prog.CurrentTicks = ticks
	prog.HasBeenSeeked = true
	prog.LastSeekTime = now
	prog.LastUpdateTime = now
}

// Touch records that the copy loop is still alive for sessionID,
// updating total bytes streamed and the liveness timestamp.
func (t *Tracker) Touch(sessionID string, bytesDelta int64) {
	t.mu.Lock()
	sess := t.sessions[sessionID]
	prog := t.progress[sessionID]
	t.mu.Unlock()
	if sess == nil || prog == nil {
		return
	}
	sess.mu.Lock()
	sess.TotalBytesStreamed += bytesDelta
	sess.LastProgressUpdate = time.Now()
	sess.mu.Unlock()
	prog.TotalBytesStreamed += bytesDelta
	prog.LastUpdateTime = time.Now()
}

// ReportProgress sends a Progress telemetry call for sessionID, the
// 15s-cadence call made by the streaming copy loop.
func (t *Tracker) ReportProgress(ctx context.Context, sessionID string, isPaused bool, playMethod string) {
	t.mu.Lock()
	sess, sok := t.sessions[sessionID]
	prog, pok := t.progress[sessionID]
	t.mu.Unlock()
	if !sok || !pok {
		return
	}
	if err := t.catalog.ReportProgress(ctx, catalog.PlaybackProgress{
		UserID:        sess.UserID,
		ItemID:        sess.ItemID,
		SessionID:     sessionID,
		PlayMethod:    playMethod,
		PositionTicks: prog.CurrentTicks,
		IsPaused:      isPaused,
	}); err != nil {
		t.logger.Warn("playback: report progress failed", "session", sessionID, "error", err)
		return
	}
	prog.LastReportedPosition = prog.CurrentTicks
	prog.LastReportedTime = time.Now()
	prog.ReportCount++
}

// Pause marks sessionID paused without destroying it (the disconnect-vs-
// pause heuristic's "pause" branch).
func (t *Tracker) Pause(ctx context.Context, sessionID, playMethod string) {
	t.mu.Lock()
	sess := t.sessions[sessionID]
	t.mu.Unlock()
	if sess == nil {
		return
	}
	sess.mu.Lock()
	sess.IsPaused = true
	sess.mu.Unlock()
	t.ReportProgress(ctx, sessionID, true, playMethod)
}

// Stop destroys sessionID and reports Stop exactly once, even under
// concurrent pause+disconnect callers. completed marks a clean
// end-of-stream: the session position is advanced to totalTicks before
// the watched-completion check, since current_ticks otherwise only
// ever moves on an explicit seek.
func (t *Tracker) Stop(ctx context.Context, sessionID, playMethod string, totalTicks int64, completed bool) {
	t.mu.Lock()
	sess, sok := t.sessions[sessionID]
	prog, pok := t.progress[sessionID]
	t.mu.Unlock()
	if !sok || !pok {
		return
	}
	if !sess.markStopInFlight() {
		return
	}

	if completed && totalTicks > 0 {
		prog.CurrentTicks = totalTicks
	}

	if err := t.catalog.ReportStop(ctx, catalog.PlaybackStop{
		UserID:        sess.UserID,
		ItemID:        sess.ItemID,
		SessionID:     sessionID,
		PlayMethod:    playMethod,
		PositionTicks: prog.CurrentTicks,
		Failed:        false,
	}); err != nil {
		t.logger.Warn("playback: report stop failed", "session", sessionID, "error", err)
	}

	if totalTicks > 0 && prog.CurrentTicks >= watchedFraction(totalTicks) {
		if err := t.catalog.MarkPlayed(ctx, sess.UserID, sess.ItemID); err != nil {
			t.logger.Warn("playback: mark played failed", "session", sessionID, "error", err)
		}
	}

	t.mu.Lock()
	t.evictLocked(sessionID)
	count := len(t.sessions)
	t.mu.Unlock()
	observability.ActiveSessions.Set(float64(count))
}

func watchedFraction(totalTicks int64) int64 {
	return int64(float64(totalTicks) * 0.8)
}

// evictLocked removes sessionID from all three maps. Caller must hold t.mu.
func (t *Tracker) evictLocked(sessionID string) {
	sess, ok := t.sessions[sessionID]
	if !ok {
		return
	}
	if t.byItem[sess.ItemID] == sessionID {
		delete(t.byItem, sess.ItemID)
	}
	delete(t.sessions, sessionID)
	delete(t.progress, sessionID)
}

func (t *Tracker) sweep(ctx context.Context) {
	now := time.Now()
	var toStop []string
	t.mu.Lock()
	for sid, sess := range t.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.LastProgressUpdate)
		paused := sess.IsPaused
		sess.mu.Unlock()
		if (paused && idle > pausedStaleAfter) || (!paused && idle > activeStaleAfter) {
			toStop = append(toStop, sid)
		}
	}
	t.mu.Unlock()

	for _, sid := range toStop {
		t.logger.Info("playback: evicting stale session", "session", sid)
		t.Stop(ctx, sid, "", 0, false)
	}
}

func absDiff64(a, b int64) int64 {
	if a < b {
		return b - a
	}
	return a - b
}
