package quota

import (
	"context"
	"time"

	"geoscan/config"

	"go.uber.org/zap"
)

// Identity is who is asking to scan: an authenticated account or, failing
// that, the caller's IP address.
type Identity struct {
	AccountID string // empty for anonymous callers
	IP        string
}

// Anonymous reports whether the identity has no account attached.
func (i Identity) Anonymous() bool {
	return i.AccountID == ""
}

// Key is the storage key the identity's scan events are recorded under.
func (i Identity) Key() string {
	if i.AccountID != "" {
		return "acct:" + i.AccountID
	}
	return "ip:" + i.IP
}

// Decision is the structured outcome of a quota check. A denied scan is data,
// not an error: the caller turns it into a 429-style response with the
// metadata below.
type Decision struct {
	Allowed             bool      `json:"allowed"`
	Remaining           int       `json:"remaining"`
	Unlimited           bool      `json:"unlimited,omitempty"`
	CooldownSecondsLeft int       `json:"cooldown_seconds_left,omitempty"`
	ResetsAt            time.Time `json:"resets_at"`
	Reason              string    `json:"reason,omitempty"`
}

// ScanEvent is one recorded scan for quota accounting.
type ScanEvent struct {
	Identity   string
	Tool       string
	Payload    string
	DurationMS int64
	CreatedAt  time.Time
}

// Store is the persistence the manager needs: period counts, the most recent
// scan time, and appending new events.
type Store interface {
	CountScanEventsSince(ctx context.Context, identity, tool string, since time.Time) (int, error)
	LastScanEventAt(ctx context.Context, identity, tool string) (*time.Time, error)
	InsertScanEvent(ctx context.Context, event ScanEvent) error
}

// Manager decides whether an identity may run a scan and records completed
// ones. The check and the record are two separate round trips with no
// transaction between them, so two concurrent requests from the same identity
// can both pass the check before either records. That looseness is inherited
// and deliberate; the cap is a soft cap.
type Manager struct {
	cfg    *config.Config
	store  Store
	logger *zap.Logger
	admins map[string]bool
	now    func() time.Time
}

func NewManager(cfg *config.Config, store Store, logger *zap.Logger) *Manager {
	admins := make(map[string]bool, len(cfg.AdminAccountIDs))
	for _, id := range cfg.AdminAccountIDs {
		admins[id] = true
	}
	return &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger,
		admins: admins,
		now:    time.Now,
	}
}

// CanScan applies the per-tool policy: admin bypass first, then the period
// cap, then the cooldown window. It never mutates state.
func (m *Manager) CanScan(ctx context.Context, identity Identity, toolName string) (Decision, error) {
	tool, ok := m.cfg.Tools[toolName]
	if !ok || !tool.Enabled {
		return Decision{Reason: "tool not available"}, nil
	}

	if identity.AccountID != "" && m.admins[identity.AccountID] {
		return Decision{Allowed: true, Unlimited: true, Remaining: -1}, nil
	}

	cap, cooldown, reset := policyFor(tool, identity)
	now := m.now()
	periodStart := periodStartFor(reset, now)
	resetsAt := nextResetFor(reset, now)

	count, err := m.store.CountScanEventsSince(ctx, identity.Key(), toolName, periodStart)
	if err != nil {
		return Decision{}, err
	}

	if count >= cap {
		return Decision{
			Remaining: 0,
			ResetsAt:  resetsAt,
			Reason:    "scan limit reached",
		}, nil
	}

	last, err := m.store.LastScanEventAt(ctx, identity.Key(), toolName)
	if err != nil {
		return Decision{}, err
	}
	if last != nil {
		elapsed := now.Sub(*last)
		if elapsed < cooldown {
			secondsLeft := wholeMinuteSeconds(cooldown - elapsed)
			return Decision{
				Remaining:           cap - count,
				CooldownSecondsLeft: secondsLeft,
				ResetsAt:            resetsAt,
				Reason:              "cooldown active",
			}, nil
		}
	}

	return Decision{
		Allowed:   true,
		Remaining: cap - count,
		ResetsAt:  resetsAt,
	}, nil
}

// RecordScan appends a scan event asynchronously. It is fire-and-forget with
// respect to the caller's response: failures are logged, never surfaced.
func (m *Manager) RecordScan(identity Identity, toolName, payload string, duration time.Duration) {
	event := ScanEvent{
		Identity:   identity.Key(),
		Tool:       toolName,
		Payload:    payload,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  m.now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.store.InsertScanEvent(ctx, event); err != nil {
			m.logger.Error("Failed to record scan event",
				zap.String("identity", event.Identity),
				zap.String("tool", event.Tool),
				zap.Error(err))
		}
	}()
}

func policyFor(tool config.ToolLimits, identity Identity) (cap int, cooldown time.Duration, reset string) {
	if identity.Anonymous() {
		return tool.AnonymousCap, tool.AnonymousCooldown, tool.AnonymousReset
	}
	return tool.AuthenticatedCap, tool.AuthenticatedCooldown, tool.AuthenticatedReset
}

// periodStartFor computes the start of the current quota period in local time.
func periodStartFor(reset string, now time.Time) time.Time {
	switch reset {
	case "monthly":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default: // daily
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
}

func nextResetFor(reset string, now time.Time) time.Time {
	switch reset {
	case "monthly":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	}
}

// wholeMinuteSeconds rounds a remaining cooldown up to whole minutes, kept in
// seconds for the wire format.
func wholeMinuteSeconds(d time.Duration) int {
	minutes := int((d + time.Minute - 1) / time.Minute)
	return minutes * 60
}
