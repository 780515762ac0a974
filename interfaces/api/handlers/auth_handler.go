package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"faceclock/domain/dto"
	"faceclock/domain/services"
	"faceclock/pkg/logger"
	"faceclock/pkg/utils"
)

type AuthHandler struct {
	authService   services.AuthService
	personService services.PersonService
}

func NewAuthHandler(authService services.AuthService, personService services.PersonService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		personService: personService,
	}
}

// Login authenticates with email and password and returns a session token
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	result, err := h.authService.Login(c.Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Logged in successfully", dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Person:    dto.PersonToResponse(result.Person),
	})
}

// GoogleLogin redirects to Google OAuth
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	logger.Auth("LOGIN_START", "Person initiating Google OAuth login", map[string]interface{}{
		"ip":         c.IP(),
		"user_agent": c.Get("User-Agent"),
	})

	// Generate state for CSRF protection
	state, err := generateState()
	if err != nil {
		logger.AuthError("LOGIN_ERROR", "Failed to generate state", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate state", err)
	}

	// Store state in cookie for validation
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: "Lax",
	})

	// Get the redirect URL from query param (for frontend redirect after login)
	redirectURL := c.Query("redirect", "/")
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_redirect",
		Value:    redirectURL,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
	})

	// Redirect to Google
	authURL := h.authService.GetGoogleAuthURL(state)

	logger.Auth("LOGIN_REDIRECT", "Redirecting to Google OAuth", map[string]interface{}{
		"redirect_url": redirectURL,
		"state":        state[:10] + "...",
	})

	return c.Redirect(authURL)
}

// GoogleCallback handles the OAuth callback from Google
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	logger.Auth("CALLBACK_START", "Received OAuth callback from Google", map[string]interface{}{
		"ip":    c.IP(),
		"query": c.OriginalURL(),
	})

	// Verify state
	state := c.Query("state")
	storedState := c.Cookies("oauth_state")

	if state == "" || state != storedState {
		logger.AuthError("CALLBACK_ERROR", "Invalid state parameter", nil, map[string]interface{}{
			"state_match": state == storedState,
		})
		return c.Redirect("/?error=invalid_state")
	}

	// Clear state cookie
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	// Check for error from Google
	if errMsg := c.Query("error"); errMsg != "" {
		logger.AuthError("CALLBACK_ERROR", "Google returned error", nil, map[string]interface{}{
			"google_error": errMsg,
		})
		return c.Redirect(fmt.Sprintf("/?error=%s", errMsg))
	}

	// Get authorization code
	code := c.Query("code")
	if code == "" {
		logger.AuthError("CALLBACK_ERROR", "Missing authorization code", nil, nil)
		return c.Redirect("/?error=missing_code")
	}

	// Exchange code for a session; only already registered persons get in
	result, err := h.authService.HandleGoogleCallback(c.Context(), code, clientInfo(c))
	if err != nil {
		logger.AuthError("CALLBACK_ERROR", "Failed to exchange code", err, nil)
		return c.Redirect(fmt.Sprintf("/?error=auth_failed&message=%s", err.Error()))
	}

	logger.Auth("CALLBACK_SUCCESS", "Person authenticated successfully", map[string]interface{}{
		"person_id":    result.Person.ID.String(),
		"person_email": result.Person.Email,
	})

	// Get redirect URL
	redirectURL := c.Cookies("oauth_redirect", "/")
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_redirect",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	// Set auth token in cookie
	c.Cookie(&fiber.Cookie{
		Name:     "auth_token",
		Value:    result.Token,
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   false, // Set to true in production
		SameSite: "Lax",
	})

	// Redirect to frontend with token (for SPA)
	baseURL := os.Getenv("FRONTEND_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5173"
	}
	frontendURL := fmt.Sprintf("%s/auth/callback?token=%s&redirect=%s", baseURL, result.Token, redirectURL)

	logger.Auth("CALLBACK_REDIRECT", "Redirecting to frontend", map[string]interface{}{
		"redirect_url": redirectURL,
	})

	return c.Redirect(frontendURL)
}

// Refresh rotates the caller's session and returns a fresh token. The
// presented token stops working whether it came from the body or header.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		// Fall back to the Authorization header
		req.Token = utils.ExtractTokenFromHeader(c.Get("Authorization"))
	}
	if req.Token == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing token", nil)
	}

	result, err := h.authService.Refresh(c.Context(), req.Token, clientInfo(c))
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Token refreshed", dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Person:    dto.PersonToResponse(result.Person),
	})
}

// Me returns the authenticated person's profile
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	person, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	profile, err := h.personService.Get(c.Context(), person.ID)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Profile retrieved", dto.PersonToResponse(profile))
}

// Sessions lists the caller's active sessions with the current one marked
func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	person, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	sessions, err := h.authService.Sessions(c.Context(), person.ID)
	if err != nil {
		return err
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, *dto.SessionToResponse(&sessions[i], person.SessionID))
	}

	return utils.SuccessResponse(c, "Sessions retrieved", dto.SessionListResponse{Sessions: out})
}

// RevokeSession deactivates one of the caller's sessions by its ID
func (h *AuthHandler) RevokeSession(c *fiber.Ctx) error {
	person, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid session ID", err)
	}

	// Only the caller's own sessions are revocable here
	sessions, err := h.authService.Sessions(c.Context(), person.ID)
	if err != nil {
		return err
	}
	owned := false
	for i := range sessions {
		if sessions[i].SessionID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Session not found", services.ErrSessionNotFound)
	}

	if err := h.authService.Revoke(c.Context(), sessionID); err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Session revoked", nil)
}

// Logout revokes the current session and clears the auth cookie
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	person, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	if err := h.authService.Revoke(c.Context(), person.SessionID); err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return utils.SuccessResponse(c, "Logged out successfully", nil)
}

// LogoutAll revokes every session of the caller, including this one
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	person, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	count, err := h.authService.RevokeAll(c.Context(), person.ID, person.ID)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return utils.SuccessResponse(c, "Logged out everywhere", fiber.Map{
		"revoked_sessions": count,
	})
}

func clientInfo(c *fiber.Ctx) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
