package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"airguard/backend/internal/audit/domain"
	auditrepo "airguard/backend/internal/audit/repository"
	"airguard/backend/internal/logutil"
)

// Event is one auth outcome to record.
type Event struct {
	OrgID     string
	UserID    string
	Action    string
	Outcome   string
	IP        string
	UserAgent string
	Metadata  string
}

// AuditLogger writes a single audit event. Used by the auth service.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, e Event)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo auditrepo.Repository
	now  func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, e Event) {
	if l == nil || l.repo == nil {
		return
	}
	ip := e.IP
	if ip == "" {
		ip = "unknown"
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     e.OrgID,
		UserID:    e.UserID,
		Action:    e.Action,
		Resource:  domain.ResourceAuth,
		Outcome:   e.Outcome,
		IP:        ip,
		UserAgent: e.UserAgent,
		Metadata:  e.Metadata,
		CreatedAt: l.now(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Warn().Err(err).
			Str("action", e.Action).
			Str("outcome", e.Outcome).
			Msg("audit: failed to log event")
	}
}
