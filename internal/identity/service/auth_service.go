package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"airguard/backend/internal/audit"
	auditdomain "airguard/backend/internal/audit/domain"
	"airguard/backend/internal/logutil"
	orgdomain "airguard/backend/internal/organization/domain"
	"airguard/backend/internal/security"
	sessiondomain "airguard/backend/internal/session/domain"
	"airguard/backend/internal/telemetry"
	userdomain "airguard/backend/internal/user/domain"
	userrepo "airguard/backend/internal/user/repository"
)

const tracerName = "airguard/backend/internal/identity/service"

// AuthResult is returned by Signup, Login and Refresh.
type AuthResult struct {
	User             userdomain.PublicUser
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Identity is the caller resolved from a valid access token.
type Identity struct {
	UserID string
	Email  string
	OrgID  string
}

// Profile is the authenticated user with their organization. Organization is nil if it no longer exists.
type Profile struct {
	User         userdomain.PublicUser
	Organization *orgdomain.Org
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	CreateWithOrganization(ctx context.Context, u *userdomain.User, o *orgdomain.Org) error
}

// OrgRepo is the minimal organization repository needed by the auth service.
type OrgRepo interface {
	GetOrganizationByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
	IsValid(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error)
	Delete(ctx context.Context, userID, tokenHash string) error
	Consume(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string, now time.Time) ([]*sessiondomain.Session, error)
}

// Option configures optional collaborators of AuthService.
type Option func(*AuthService)

// WithAuditLogger records every operation outcome through l.
func WithAuditLogger(l audit.AuditLogger) Option {
	return func(s *AuthService) { s.audit = l }
}

// WithEventEmitter publishes an AuthEvent per operation through e, asynchronously.
func WithEventEmitter(e telemetry.EventEmitter) Option {
	return func(s *AuthService) { s.events = e }
}

// WithMetrics counts operation outcomes on m.
func WithMetrics(m *telemetry.AuthMetrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// WithClock replaces the clock used for session bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// AuthService implements signup, login, logout, refresh rotation and access-token authentication.
type AuthService struct {
	users    UserRepo
	orgs     OrgRepo
	sessions SessionRepo
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	audit    audit.AuditLogger
	events   telemetry.EventEmitter
	metrics  *telemetry.AuthMetrics
	now      func() time.Time
	tracer   trace.Tracer

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	users UserRepo,
	orgs OrgRepo,
	sessions SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		users:    users,
		orgs:     orgs,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		now:      func() time.Time { return time.Now().UTC() },
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a user and their organization, then opens a session.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, client ClientInfo) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Signup")
	var u *userdomain.User
	defer func() {
		s.observe(ctx, span, auditdomain.ActionSignup, telemetry.EventSignup, u, client, err)
	}()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, storeErr(err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}
	hash, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}

	now := s.now()
	userID := uuid.New().String()
	org := &orgdomain.Org{
		ID:        uuid.New().String(),
		Name:      orgdomain.DefaultName(in.FullName, in.Company),
		OwnerID:   userID,
		CreatedAt: now,
	}
	candidate := &userdomain.User{
		ID:             userID,
		Email:          in.Email,
		PasswordHash:   hash,
		FullName:       in.FullName,
		Country:        in.Country,
		Phone:          in.Phone,
		Company:        in.Company,
		Industry:       in.Industry,
		OrganizationID: org.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if err := org.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.CreateWithOrganization(ctx, candidate, org); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return nil, ErrDuplicateEmail
		}
		return nil, storeErr(err)
	}
	u = candidate
	res, err = s.openSession(ctx, u, client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountCreated, err)
	}
	return res, nil
}

// Login verifies email and password and opens a new session. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput, client ClientInfo) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	var u *userdomain.User
	defer func() {
		s.observe(ctx, span, auditdomain.ActionLogin, telemetry.EventLogin, u, client, err)
	}()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	found, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, storeErr(err)
	}
	if found == nil {
		// Spend the same bcrypt work as a real comparison.
		s.hasher.Verify(s.placeholderHash(), []byte(in.Password))
		return nil, ErrInvalidCredentials
	}
	u = found
	if cerr := s.hasher.Compare(found.PasswordHash, []byte(in.Password)); cerr != nil {
		if errors.Is(cerr, security.ErrMalformedHash) {
			logger := logutil.GetOrDefault(ctx)
			logger.Error().Err(cerr).Str("user_id", found.ID).Msg("stored password hash is unusable")
		}
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, found, client)
}

// Logout ends the session of refreshToken. It never fails: an unknown session is a no-op and
// storage errors are logged. When userID is empty it is taken from refreshToken, if that still verifies.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string, client ClientInfo) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Logout")
	var err error
	defer func() {
		s.observe(ctx, span, auditdomain.ActionLogout, telemetry.EventLogout, &userdomain.User{ID: userID}, client, err)
	}()

	if refreshToken == "" {
		return
	}
	if userID == "" {
		payload, verr := s.tokens.ValidateRefresh(refreshToken)
		if verr != nil {
			return
		}
		userID = payload.UserID
	}
	if err = s.sessions.Delete(ctx, userID, security.HashRefreshToken(refreshToken)); err != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Warn().Err(err).Str("user_id", userID).Msg("auth: logout failed to delete session")
		err = storeErr(err)
	}
}

// Refresh rotates refreshToken: the presented session is consumed and a new pair is issued.
// A refresh token is accepted at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Refresh")
	var u *userdomain.User
	defer func() {
		s.observe(ctx, span, auditdomain.ActionRefresh, telemetry.EventRefresh, u, client, err)
	}()

	payload, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	u = &userdomain.User{ID: payload.UserID, OrganizationID: payload.OrgID}
	hash := security.HashRefreshToken(refreshToken)
	ok, err := s.sessions.IsValid(ctx, payload.UserID, hash, s.now())
	if err != nil {
		return nil, storeErr(err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	found, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if found == nil {
		return nil, ErrUserNotFound
	}
	u = found
	consumed, err := s.sessions.Consume(ctx, found.ID, hash, s.now())
	if err != nil {
		return nil, storeErr(err)
	}
	if !consumed {
		return nil, ErrSessionNotFound
	}
	return s.openSession(ctx, found, client)
}

// Authenticate resolves the caller of an access token. It does not touch storage.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	payload, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return &Identity{UserID: payload.UserID, Email: payload.Email, OrgID: payload.OrgID}, nil
}

// Profile returns the user and their organization.
func (s *AuthService) Profile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	p := &Profile{User: u.Public()}
	if u.OrganizationID == "" {
		return p, nil
	}
	org, err := s.orgs.GetOrganizationByID(ctx, u.OrganizationID)
	if err != nil {
		return nil, storeErr(err)
	}
	p.Organization = org
	return p, nil
}

// Sessions returns the unexpired sessions of userID, newest first.
func (s *AuthService) Sessions(ctx context.Context, userID string) ([]*sessiondomain.Session, error) {
	list, err := s.sessions.ListByUser(ctx, userID, s.now())
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

// openSession issues a token pair for u and persists the refresh session.
func (s *AuthService) openSession(ctx context.Context, u *userdomain.User, client ClientInfo) (*AuthResult, error) {
	payload := security.Payload{UserID: u.ID, Email: u.Email, OrgID: u.OrganizationID}
	access, accessExp, err := s.tokens.IssueAccess(payload)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(payload)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		TokenHash: security.HashRefreshToken(refresh),
		ExpiresAt: refreshExp,
		CreatedAt: s.now(),
		UserAgent: client.UserAgent,
		IPAddress: client.IP,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, storeErr(err)
	}
	return &AuthResult{
		User:             u.Public(),
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// observe ends span and records the outcome of an operation in the audit log, the event stream
// and the operation counter. u may be nil or partially populated.
func (s *AuthService) observe(ctx context.Context, span trace.Span, action, eventType string, u *userdomain.User, client ClientInfo, err error) {
	defer span.End()
	outcome := auditdomain.OutcomeSuccess
	why := reason(err)
	if err != nil {
		outcome = auditdomain.OutcomeFailure
		span.RecordError(err)
		span.SetStatus(codes.Error, why)
	}
	var userID, orgID string
	if u != nil {
		userID, orgID = u.ID, u.OrganizationID
	}

	if s.audit != nil {
		s.audit.LogEvent(ctx, audit.Event{
			OrgID:     orgID,
			UserID:    userID,
			Action:    action,
			Outcome:   outcome,
			IP:        client.IP,
			UserAgent: client.UserAgent,
			Metadata:  why,
		})
	}
	telemetry.EmitAsync(ctx, s.events, &telemetry.AuthEvent{
		EventType: eventType,
		Outcome:   outcome,
		Reason:    why,
		OrgID:     orgID,
		UserID:    userID,
		Source:    telemetry.SourceAuthService,
		IP:        client.IP,
		UserAgent: client.UserAgent,
		CreatedAt: s.now(),
	})
	s.metrics.Record(ctx, action, outcome)

	if err != nil && errors.Is(err, ErrStoreUnavailable) {
		logger := logutil.GetOrDefault(ctx)
		logger.Error().Err(err).Str("action", action).Msg("auth: store unavailable")
	}
}

// placeholderHash is a bcrypt hash at the hasher's cost, compared against when the email is unknown.
func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash([]byte(uuid.New().String()))
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
