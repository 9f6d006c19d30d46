// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/internal/types"
	"github.com/bizledger/admin-service/pkg/accesscontrol"
)

type API struct {
	service  ServiceInterface
	guard    accesscontrol.GuardInterface
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(
	service ServiceInterface,
	guard accesscontrol.GuardInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *API {
	return &API{
		service:  service,
		guard:    guard,
		validate: validator.New(),
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/api/users/create", a.createUser)
	mux.Delete("/api/users/delete", a.deleteUser)
	mux.Post("/api/users/reset-password", a.resetPassword)
	mux.Post("/api/users/update-role", a.updateRole)
	mux.Get("/api/users/list-auth", a.listUsers)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.createUser")
	defer span.End()

	admin, err := a.guard.RequireAdmin(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, accesscontrol.BadRequest("invalid request body"))
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, accesscontrol.BadRequest("email, displayName and role are required"))
		return
	}

	result, err := a.service.CreateUser(ctx, admin, req)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, createUserResponse{
		Success:     true,
		Message:     "user created",
		UID:         result.User.UID,
		Email:       result.User.Email,
		DisplayName: result.User.DisplayName,
		Role:        result.User.Role,
	})
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.deleteUser")
	defer span.End()

	admin, err := a.guard.RequireAdmin(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var req DeleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, accesscontrol.BadRequest("invalid request body"))
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, accesscontrol.BadRequest("uid is required"))
		return
	}

	if err := a.service.DeleteUser(ctx, admin, req.UID); err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "user deleted",
	})
}

func (a *API) resetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.resetPassword")
	defer span.End()

	admin, err := a.guard.RequireAdmin(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, accesscontrol.BadRequest("invalid request body"))
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, accesscontrol.BadRequest("uid is required"))
		return
	}

	link, err := a.service.ResetPassword(ctx, admin, req.UID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, resetPasswordResponse{
		Success:   true,
		Message:   "password reset link created",
		ResetLink: link,
	})
}

func (a *API) updateRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.updateRole")
	defer span.End()

	admin, err := a.guard.RequireAdmin(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, accesscontrol.BadRequest("invalid request body"))
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, accesscontrol.BadRequest("uid and role are required"))
		return
	}

	message, err := a.service.UpdateRole(ctx, admin, req.UID, types.Role(req.Role))
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: message,
	})
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.listUsers")
	defer span.End()

	admin, err := a.guard.RequireAdmin(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}

	users, message, err := a.service.ListTenantUsers(ctx, admin)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, listUsersResponse{
		Success: true,
		Message: message,
		Users:   users,
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	message := err.Error()
	var classified *accesscontrol.Error
	if errors.As(err, &classified) {
		message = classified.Message
	}

	a.writeJSON(w, accesscontrol.HTTPStatus(err), errorResponse{
		Success: false,
		Message: message,
		Error:   string(accesscontrol.CodeOf(err)),
	})
}
