package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"venuemap/internal/logger"
	"venuemap/internal/middleware"
	"venuemap/internal/models"
	"venuemap/internal/repository"
)

// PhotoDiscarder removes stored photo objects after their rows are gone.
type PhotoDiscarder interface {
	Discard(ctx context.Context, keys []string)
}

type UserHandler struct {
	users  repository.UserRepository
	venues repository.VenueRepository
	photos PhotoDiscarder
	v      *validator.Validate
	log    *zap.Logger
}

func NewUserHandler(users repository.UserRepository, venues repository.VenueRepository, photos PhotoDiscarder, log *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		venues: venues,
		photos: photos,
		v:      models.NewValidator(),
		log:    logger.OrNop(log),
	}
}

// currentUser loads the authenticated user or writes the error response.
func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	return loadCurrentUser(w, r, h.users, h.log)
}

func loadCurrentUser(w http.ResponseWriter, r *http.Request, users repository.UserRepository, log *zap.Logger) (*models.User, bool) {
	id := middleware.UserIDFromContext(r.Context())
	if id == "" {
		writeJSONErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return nil, false
	}
	u, err := users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User no longer exists")
			return nil, false
		}
		log.Error("load current user", zap.String("user_id", id), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load user")
		return nil, false
	}
	return u, true
}

// @Tags Account
// @Summary Current user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	h.writeUser(w, r, u)
}

// @Tags Account
// @Summary Update current user
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.UpdateUserRequest true "Profile fields to change"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/me [put]
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	fields, err := models.Validate(h.v, req)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if fields != nil {
		writeValidationErrors(w, fields)
		return
	}

	req.Apply(u)
	if err := h.users.Update(r.Context(), u); err != nil {
		h.log.Error("update user", zap.String("user_id", u.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_user_failed", "Failed to update user")
		return
	}
	h.writeUser(w, r, u)
}

// @Tags Account
// @Summary Change password
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/me/password [put]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	fields, err := models.Validate(h.v, req)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if fields != nil {
		writeValidationErrors(w, fields)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)); err != nil {
		writeValidationErrors(w, models.FieldErrors{"old_password": {"is invalid"}})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusInternalServerError, "change_password_failed", "Failed to change password")
		return
	}
	if err := h.users.UpdatePasswordHash(r.Context(), u.ID, string(hash)); err != nil {
		h.log.Error("change password", zap.String("user_id", u.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "change_password_failed", "Failed to change password")
		return
	}
	writeJSONMessage(w, http.StatusOK, "Password changed")
}

// @Tags Account
// @Summary Delete current user
// @Description Deletes the account with its venue, events and photos.
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/me [delete]
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	keys, err := h.users.Delete(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User no longer exists")
			return
		}
		h.log.Error("delete user", zap.String("user_id", u.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "delete_user_failed", "Failed to delete user")
		return
	}
	h.photos.Discard(context.WithoutCancel(r.Context()), keys)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, u *models.User) {
	venue, err := ownedVenue(r.Context(), h.venues, u)
	if err != nil {
		h.log.Error("load venue for user", zap.String("user_id", u.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, models.NewUserResponse(u, venue))
}
