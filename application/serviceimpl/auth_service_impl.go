package serviceimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
	"faceclock/domain/services"
	"faceclock/infrastructure/oauth"
	"faceclock/pkg/config"
	"faceclock/pkg/logger"
	"faceclock/pkg/observability"
	"faceclock/pkg/utils"
)

type AuthServiceImpl struct {
	personRepo   repositories.PersonRepository
	sessionRepo  repositories.SessionRepository
	auditRepo    repositories.AuditLogRepository
	sessionCache repositories.SessionCache
	googleOAuth  *oauth.GoogleOAuth

	jwtSecret string
	tokenTTL  time.Duration
	cacheTTL  time.Duration
}

func NewAuthService(
	personRepo repositories.PersonRepository,
	sessionRepo repositories.SessionRepository,
	auditRepo repositories.AuditLogRepository,
	sessionCache repositories.SessionCache,
	googleOAuth *oauth.GoogleOAuth,
	jwtSecret string,
	cfg config.SessionConfig,
) services.AuthService {
	return &AuthServiceImpl{
		personRepo:   personRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		sessionCache: sessionCache,
		googleOAuth:  googleOAuth,
		jwtSecret:    jwtSecret,
		tokenTTL:     cfg.TokenTTL,
		cacheTTL:     cfg.CacheTTL,
	}
}

// Login authenticates with email and password and opens a session
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResult, error) {
	person, err := s.personRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrInvalidCredentials
		}
		return nil, &services.PersistenceError{Op: "load person", Err: err}
	}

	// OAuth-only people have no password to check against.
	if person.Password == "" {
		return nil, services.ErrInvalidCredentials
	}
	if !utils.CheckPassword(password, person.Password) {
		logger.AuthError("login_failed", "Password check failed", services.ErrInvalidCredentials, map[string]interface{}{
			"email": email,
		})
		return nil, services.ErrInvalidCredentials
	}

	if !person.IsActive {
		return nil, services.ErrPersonDisabled
	}

	return s.issue(ctx, person, client)
}

// GetGoogleAuthURL returns the Google OAuth authorization URL
func (s *AuthServiceImpl) GetGoogleAuthURL(state string) string {
	return s.googleOAuth.GetAuthURL(state)
}

// HandleGoogleCallback exchanges the OAuth code and opens a session. People
// are enrolled by an admin; an unknown Google account is rejected, never
// auto-created.
func (s *AuthServiceImpl) HandleGoogleCallback(ctx context.Context, code string, client services.ClientInfo) (*services.AuthResult, error) {
	token, err := s.googleOAuth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, &services.UpstreamError{Service: "google oauth", Err: err}
	}

	userInfo, err := s.googleOAuth.GetUserInfo(ctx, token)
	if err != nil {
		return nil, &services.UpstreamError{Service: "google oauth", Err: err}
	}

	person, err := s.personRepo.GetByEmail(ctx, userInfo.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Auth("google_unknown", "Google account has no registered person", map[string]interface{}{
				"email": userInfo.Email,
			})
			return nil, services.ErrNotRegistered
		}
		return nil, &services.PersistenceError{Op: "load person", Err: err}
	}

	if !person.IsActive {
		return nil, services.ErrPersonDisabled
	}

	return s.issue(ctx, person, client)
}

// Validate checks signature and expiry first, then confirms the session is
// still active. The cache is a positive assertion only; a miss falls through
// to the durable store and repopulates.
func (s *AuthServiceImpl) Validate(ctx context.Context, token string) (*services.TokenPrincipal, error) {
	claims, err := utils.ValidateSessionToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	projection, err := s.sessionCache.Get(ctx, claims.SessionID)
	if err != nil {
		observability.CacheLookups.WithLabelValues("session", "error").Inc()
		logger.CacheWarn("session_read", "Session cache read failed, using durable store", err, map[string]interface{}{
			"session_id": claims.SessionID.String(),
		})
	} else if projection != nil {
		observability.CacheLookups.WithLabelValues("session", "hit").Inc()
		return &services.TokenPrincipal{
			SessionID: claims.SessionID,
			PersonID:  projection.PersonID,
			Role:      projection.Role,
			Name:      projection.Name,
		}, nil
	} else {
		observability.CacheLookups.WithLabelValues("session", "miss").Inc()
	}

	session, err := s.sessionRepo.GetActiveBySessionID(ctx, claims.SessionID)
	if err != nil {
		return nil, &services.PersistenceError{Op: "load session", Err: err}
	}
	if session == nil {
		return nil, services.ErrSessionNotFound
	}

	person, err := s.personRepo.GetByID(ctx, session.PersonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrSessionNotFound
		}
		return nil, &services.PersistenceError{Op: "load person", Err: err}
	}
	if !person.IsActive {
		return nil, services.ErrPersonDisabled
	}

	s.cacheProjection(ctx, session.SessionID, person, session.ExpiresAt)

	return &services.TokenPrincipal{
		SessionID: session.SessionID,
		PersonID:  person.ID,
		Role:      person.Role,
		Name:      person.Name,
	}, nil
}

// Refresh rotates the session identifier and returns a new token
func (s *AuthServiceImpl) Refresh(ctx context.Context, token string, client services.ClientInfo) (*services.AuthResult, error) {
	principal, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	newSessionID := uuid.New()
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)

	// The single UPDATE is the atomicity point: whichever concurrent
	// refresh matches the old identifier wins, the other sees zero rows.
	rows, err := s.sessionRepo.Rotate(ctx, principal.SessionID, newSessionID, expiresAt)
	if err != nil {
		return nil, &services.PersistenceError{Op: "rotate session", Err: err}
	}
	if rows == 0 {
		return nil, services.ErrSessionNotFound
	}

	if err := s.sessionCache.Invalidate(ctx, principal.SessionID); err != nil {
		logger.CacheWarn("session_evict", "Failed to evict rotated session projection", err, map[string]interface{}{
			"session_id": principal.SessionID.String(),
		})
	}

	projection := &models.SessionProjection{
		PersonID: principal.PersonID,
		Role:     principal.Role,
		Name:     principal.Name,
	}
	if ttl := s.projectionTTL(expiresAt); ttl > 0 {
		if err := s.sessionCache.Put(ctx, newSessionID, projection, ttl); err != nil {
			logger.CacheWarn("session_write", "Failed to cache session projection", err, map[string]interface{}{
				"session_id": newSessionID.String(),
			})
		}
	}

	newToken, err := utils.GenerateSessionToken(newSessionID, principal.PersonID, principal.Name, principal.Role, s.jwtSecret, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	observability.SessionsRotated.Inc()
	logger.Session("refreshed", "Session identifier rotated", map[string]interface{}{
		"person_id":      principal.PersonID.String(),
		"old_session_id": principal.SessionID.String(),
		"new_session_id": newSessionID.String(),
	})

	return &services.AuthResult{Token: newToken, ExpiresAt: expiresAt}, nil
}

// Revoke deactivates a single session
func (s *AuthServiceImpl) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessionRepo.Deactivate(ctx, sessionID); err != nil {
		return &services.PersistenceError{Op: "deactivate session", Err: err}
	}
	if err := s.sessionCache.Invalidate(ctx, sessionID); err != nil {
		logger.CacheWarn("session_evict", "Failed to evict revoked session projection", err, map[string]interface{}{
			"session_id": sessionID.String(),
		})
	}

	observability.SessionsRevoked.Inc()
	logger.Session("revoked", "Session revoked", map[string]interface{}{
		"session_id": sessionID.String(),
	})
	return nil
}

// RevokeAll deactivates every session of a person and returns the count.
// The audit entry records who triggered it.
func (s *AuthServiceImpl) RevokeAll(ctx context.Context, actorID, personID uuid.UUID) (int64, error) {
	sessions, err := s.sessionRepo.GetActiveByPerson(ctx, personID)
	if err != nil {
		return 0, &services.PersistenceError{Op: "list sessions", Err: err}
	}

	count, err := s.sessionRepo.DeactivateAllByPerson(ctx, personID)
	if err != nil {
		return 0, &services.PersistenceError{Op: "deactivate sessions", Err: err}
	}

	for _, session := range sessions {
		if err := s.sessionCache.Invalidate(ctx, session.SessionID); err != nil {
			logger.CacheWarn("session_evict", "Failed to evict session projection", err, map[string]interface{}{
				"session_id": session.SessionID.String(),
			})
		}
	}

	details, _ := json.Marshal(models.AuditDetails{Count: int(count)})
	auditEntry := &models.AuditLog{
		ActorID:  actorID,
		PersonID: &personID,
		Action:   models.AuditSessionsRevoked,
		Details:  string(details),
	}
	if err := s.auditRepo.Create(ctx, auditEntry); err != nil {
		logger.DB("audit_write", "Failed to write audit entry for session revocation", map[string]interface{}{
			"person_id": personID.String(),
			"error":     err.Error(),
		})
	}

	observability.SessionsRevoked.Add(float64(count))
	logger.Session("revoked_all", "All sessions revoked", map[string]interface{}{
		"actor_id":  actorID.String(),
		"person_id": personID.String(),
		"count":     count,
	})
	return count, nil
}

// Sessions lists a person's active sessions
func (s *AuthServiceImpl) Sessions(ctx context.Context, personID uuid.UUID) ([]models.Session, error) {
	sessions, err := s.sessionRepo.GetActiveByPerson(ctx, personID)
	if err != nil {
		return nil, &services.PersistenceError{Op: "list sessions", Err: err}
	}
	return sessions, nil
}

// CleanupExpired removes expired and inactive rows
func (s *AuthServiceImpl) CleanupExpired(ctx context.Context) (int64, error) {
	count, err := s.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, &services.PersistenceError{Op: "delete expired sessions", Err: err}
	}

	if count > 0 {
		logger.Session("cleanup", "Expired sessions removed", map[string]interface{}{
			"count": count,
		})
	}
	return count, nil
}

// issue opens a durable session, caches its projection and signs the token.
func (s *AuthServiceImpl) issue(ctx context.Context, person *models.Person, client services.ClientInfo) (*services.AuthResult, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)

	session := &models.Session{
		SessionID: uuid.New(),
		PersonID:  person.ID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		IsActive:  true,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, &services.PersistenceError{Op: "create session", Err: err}
	}

	s.cacheProjection(ctx, session.SessionID, person, expiresAt)

	token, err := utils.GenerateSessionToken(session.SessionID, person.ID, person.Name, person.Role, s.jwtSecret, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	observability.SessionsIssued.Inc()
	logger.Session("issued", "Session opened", map[string]interface{}{
		"person_id":  person.ID.String(),
		"session_id": session.SessionID.String(),
		"expires_at": expiresAt,
	})

	return &services.AuthResult{Token: token, ExpiresAt: expiresAt, Person: person}, nil
}

// cacheProjection stores the session projection, capping the TTL at the
// session expiry so the cache can never outlive the session.
func (s *AuthServiceImpl) cacheProjection(ctx context.Context, sessionID uuid.UUID, person *models.Person, expiresAt time.Time) {
	ttl := s.projectionTTL(expiresAt)
	if ttl <= 0 {
		return
	}

	projection := &models.SessionProjection{
		PersonID: person.ID,
		Role:     person.Role,
		Name:     person.Name,
	}
	if err := s.sessionCache.Put(ctx, sessionID, projection, ttl); err != nil {
		logger.CacheWarn("session_write", "Failed to cache session projection", err, map[string]interface{}{
			"session_id": sessionID.String(),
		})
	}
}

func (s *AuthServiceImpl) projectionTTL(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl > s.cacheTTL {
		ttl = s.cacheTTL
	}
	return ttl
}
