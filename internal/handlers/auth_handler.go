package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"venuemap/internal/config"
	"venuemap/internal/logger"
	"venuemap/internal/middleware"
	"venuemap/internal/models"
	"venuemap/internal/repository"
	"venuemap/internal/services"
)

const (
	defaultTokenTTLSeconds = 86400
	defaultResetTTL        = 30 * time.Minute
)

type AuthHandler struct {
	users  repository.UserRepository
	venues repository.VenueRepository
	resets repository.PasswordResetRepository
	mailer services.EmailSender
	cfg    *config.Config
	v      *validator.Validate
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthHandler(
	users repository.UserRepository,
	venues repository.VenueRepository,
	resets repository.PasswordResetRepository,
	mailer services.EmailSender,
	cfg *config.Config,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:  users,
		venues: venues,
		resets: resets,
		mailer: mailer,
		cfg:    cfg,
		v:      models.NewValidator(),
		log:    logger.OrNop(log),
		now:    time.Now,
	}
}

// @Tags Auth
// @Summary Sign up
// @Description Creates an attendee or a venue owner. Venue owners get their venue in the same transaction.
// @Accept json
// @Produce json
// @Param body body models.SignupRequest true "Signup request"
// @Success 201 {object} models.LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if !h.validate(w, req) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "signup_failed", "Failed to create user")
		return
	}

	u := req.ToUser(uuid.NewString(), string(hash), h.now().UTC())
	var venue *models.Venue
	if u.IsVenueOwner() {
		venue = &models.Venue{Name: strings.TrimSpace(req.VenueName)}
	}

	if err := h.users.Create(r.Context(), u, venue); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			writeValidationErrors(w, models.FieldErrors{"email": {"has already been taken"}})
			return
		}
		h.log.Error("create user", zap.String("email", u.Email), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "signup_failed", "Failed to create user")
		return
	}

	h.writeSession(w, http.StatusCreated, u, venue)
}

// @Tags Auth
// @Summary Log in
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Login request"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if !h.validate(w, req) {
		return
	}

	u, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.log.Error("load user for login", zap.Error(err))
		}
		writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	venue, err := ownedVenue(r.Context(), h.venues, u)
	if err != nil {
		h.log.Error("load venue for login", zap.String("user_id", u.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "login_failed", "Failed to login")
		return
	}
	h.writeSession(w, http.StatusOK, u, venue)
}

// @Tags Auth
// @Summary Request a password reset
// @Description Always answers 200 so callers cannot probe which emails exist.
// @Accept json
// @Produce json
// @Param body body models.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if !h.validate(w, req) {
		return
	}

	resp := map[string]any{"ok": true}
	u, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.log.Error("load user for password reset", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	rawToken, tokenHash, err := generateResetToken()
	if err != nil {
		h.log.Error("generate reset token", zap.Error(err))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ttl := h.resetTTL()
	now := h.now().UTC()
	if err := h.resets.InvalidateForUser(r.Context(), u.ID, now); err != nil {
		h.log.Warn("invalidate previous reset tokens", zap.String("user_id", u.ID), zap.Error(err))
	}
	prt := &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := h.resets.Create(r.Context(), prt); err != nil {
		h.log.Error("store reset token", zap.String("user_id", u.ID), zap.Error(err))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	subject, body := services.PasswordResetEmail(u.FirstName, rawToken, ttl)
	if err := h.mailer.Send(r.Context(), u.Email, subject, body); err != nil {
		h.log.Error("send reset email", zap.String("user_id", u.ID), zap.Error(err))
	}

	if h.cfg.AuthReturnResetToken {
		resp["token"] = rawToken
		resp["expires_in_seconds"] = int64(ttl.Seconds())
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Tags Auth
// @Summary Reset password with a token
// @Accept json
// @Produce json
// @Param body body models.ResetPasswordRequest true "Reset password request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if !h.validate(w, req) {
		return
	}

	now := h.now().UTC()
	token, err := h.resets.GetValidByTokenHash(r.Context(), hashResetToken(req.Token), now)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.log.Error("load reset token", zap.Error(err))
		}
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
		return
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}
	if err := h.users.UpdatePasswordHash(r.Context(), token.UserID, string(pwHash)); err != nil {
		h.log.Error("update password", zap.String("user_id", token.UserID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}
	if err := h.resets.MarkUsed(r.Context(), token.ID, now); err != nil {
		h.log.Warn("mark reset token used", zap.String("token_id", token.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Password reset successful",
	})
}

func (h *AuthHandler) validate(w http.ResponseWriter, req any) bool {
	fields, err := models.Validate(h.v, req)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	if fields != nil {
		writeValidationErrors(w, fields)
		return false
	}
	return true
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, u *models.User, venue *models.Venue) {
	expiresIn := h.cfg.JWTExpiresInSeconds
	if expiresIn <= 0 {
		expiresIn = defaultTokenTTLSeconds
	}
	signed, err := middleware.IssueToken(h.cfg.JWTSecret, u.ID, u.Email, h.now().UTC(), time.Duration(expiresIn)*time.Second)
	if err != nil {
		h.log.Error("sign token", zap.String("user_id", u.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "login_failed", "Failed to login")
		return
	}
	writeJSON(w, status, models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   expiresIn,
		User:        models.NewUserResponse(u, venue),
	})
}

func (h *AuthHandler) resetTTL() time.Duration {
	if h.cfg.PasswordResetTTL > 0 {
		return h.cfg.PasswordResetTTL
	}
	return defaultResetTTL
}

// ownedVenue loads the venue of a venue owner. Attendees and owners without
// a venue yield nil.
func ownedVenue(ctx context.Context, venues repository.VenueRepository, u *models.User) (*models.Venue, error) {
	if !u.IsVenueOwner() {
		return nil, nil
	}
	v, err := venues.GetByUserID(ctx, u.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

func generateResetToken() (rawToken string, tokenHash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	rawToken = hex.EncodeToString(b)
	return rawToken, hashResetToken(rawToken), nil
}

func hashResetToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
