package services

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/common/validation"
	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/learner/repository"
	"github.com/jgirmay/radlearn/internal/metrics"
	"github.com/jgirmay/radlearn/internal/storage"
)

// StatusMessages are shown while the login pause runs.
var StatusMessages = []string{
	"Verifying credentials...",
	"Loading profile...",
	"Preparing workspace...",
}

type AuthConfig struct {
	AdminAccessCode   string
	Delay             time.Duration
	AdminSessionTTL   time.Duration
	DefaultSessionTTL time.Duration
}

// DefaultAuthConfig gives admins 15 minutes and everyone else a day.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Delay:             1200 * time.Millisecond,
		AdminSessionTTL:   15 * time.Minute,
		DefaultSessionTTL: 24 * time.Hour,
	}
}

// AuthRequest is a login attempt. Role-specific fields are only checked for
// the role that needs them.
type AuthRequest struct {
	Email              string      `json:"email" validate:"required,email"`
	Name               string      `json:"name" validate:"max=120"`
	Role               models.Role `json:"role" validate:"required,oneof=student patient public officer admin"`
	RegistrationNumber string      `json:"regNumber"`
	Institution        string      `json:"institution"`
	LicenseID          string      `json:"licenseId"`
	AccessCode         string      `json:"accessCode"`
	// Client is an opaque descriptor of the caller, normally its User-Agent.
	Client string `json:"-"`
}

type AuthService struct {
	cfg     AuthConfig
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAuthService(cfg AuthConfig, log *zap.Logger, m *metrics.Metrics, now func() time.Time) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{cfg: cfg, log: log, metrics: m, now: now}
}

// Bind builds the session context for one client storage scope.
func (s *AuthService) Bind(store storage.Store) *SessionContext {
	sc := NewSessionContext(store, s.log, s.now)
	sc.Sessions.OnExpired = s.metrics.SessionEvictions.Inc
	return sc
}

// SessionTTL returns how long a session for role stays valid.
func (s *AuthService) SessionTTL(role models.Role) time.Duration {
	if role == models.RoleAdmin {
		return s.cfg.AdminSessionTTL
	}
	return s.cfg.DefaultSessionTTL
}

// Authenticate validates req, resolves the profile through the registry and
// installs it as the session of sc, replacing any previous one. Validation
// failures leave every store untouched.
func (s *AuthService) Authenticate(ctx context.Context, sc *SessionContext, req AuthRequest) (*models.Session, error) {
	req.Role, _ = models.ParseRole(string(req.Role))
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validate(req); err != nil {
		label := string(req.Role)
		if !req.Role.Valid() {
			label = "unknown"
		}
		s.metrics.ValidationFailures.WithLabelValues(label).Inc()
		return nil, err
	}

	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.SplitN(req.Email, "@", 2)[0]
	}

	profile, created, err := sc.Profiles.FindOrCreate(ctx, repository.Identity{
		Email: req.Email,
		Name:  name,
		Role:  req.Role,
		Fields: models.RoleFields{
			RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
			Institution:        strings.TrimSpace(req.Institution),
			LicenseID:          strings.TrimSpace(req.LicenseID),
		},
	})
	if err != nil {
		return nil, errors.Internal("failed to load profile", err.Error())
	}

	session, err := sc.Sessions.Save(ctx, profile, s.now().Add(s.SessionTTL(req.Role)))
	if err != nil {
		return nil, errors.Internal("failed to create session", err.Error())
	}

	action := models.ActionLogin
	if created {
		action = models.ActionRegister
	}
	s.recordActivity(ctx, sc, profile, action, req.Client)

	s.log.Info("learner authenticated",
		zap.String("lookup", repository.LookupKey(profile.Email)[:12]),
		zap.String("role", string(profile.Role)),
		zap.Bool("registered", created),
		zap.Time("expires_at", session.ExpiresAt()),
	)
	return session, nil
}

// CurrentSession returns the live session of sc, if any.
func (s *AuthService) CurrentSession(ctx context.Context, sc *SessionContext) (*models.Session, bool) {
	return sc.Sessions.Current(ctx)
}

// Logout records LOGOUT for the session's profile, when there is one, then
// deletes the envelope regardless.
func (s *AuthService) Logout(ctx context.Context, sc *SessionContext, client string) error {
	if session, ok := s.CurrentSession(ctx, sc); ok {
		s.recordActivity(ctx, sc, &session.Profile, models.ActionLogout, client)
	}
	if err := sc.Sessions.Clear(ctx); err != nil {
		return errors.Internal("failed to clear session", err.Error())
	}
	return nil
}

func (s *AuthService) validate(req AuthRequest) error {
	if errs := validation.Validate(req); len(errs) > 0 {
		return errors.Validation("invalid login request", validation.Summary(errs))
	}

	switch req.Role {
	case models.RoleAdmin:
		code := strings.TrimSpace(req.AccessCode)
		if s.cfg.AdminAccessCode == "" || subtle.ConstantTimeCompare([]byte(code), []byte(s.cfg.AdminAccessCode)) != 1 {
			return errors.Validation("Invalid admin access code", "accessCode")
		}
	case models.RoleStudent:
		if !validation.MinTrimmed(req.RegistrationNumber, 3) || !validation.MinTrimmed(req.Institution, 3) {
			return errors.Validation("Please provide a valid registration number and institution", "regNumber, institution")
		}
	case models.RoleOfficer:
		if !validation.MinTrimmed(req.LicenseID, 4) {
			return errors.Validation("Please provide a valid license ID", "licenseId")
		}
	}
	return nil
}

func (s *AuthService) pause(ctx context.Context) error {
	if s.cfg.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AuthService) recordActivity(ctx context.Context, sc *SessionContext, profile *models.UserProfile, action models.ActivityAction, client string) {
	s.metrics.AuthEvents.WithLabelValues(string(action), string(profile.Role)).Inc()
	if _, err := sc.Activity.Record(ctx, profile, action, client); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", string(action)), zap.Error(err))
	}
}
