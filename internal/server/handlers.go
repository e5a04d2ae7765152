package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	schoolAuth "github.com/MrEthical07/schoolAuth"
	"github.com/MrEthical07/schoolAuth/middleware"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type accountSummary struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	SchoolID   string `json:"schoolId,omitempty"`
	SchoolCode string `json:"schoolCode,omitempty"`
	SchoolName string `json:"schoolName,omitempty"`
}

type loginResponse struct {
	Token                 string         `json:"token"`
	ExpiresAt             time.Time      `json:"expiresAt"`
	RequiresPasswordReset bool           `json:"requiresPasswordReset"`
	Account               accountSummary `json:"account"`
}

type meResponse struct {
	Account          accountSummary `json:"account"`
	SessionExpiresAt time.Time      `json:"sessionExpiresAt"`
	PasswordReset    bool           `json:"requiresPasswordReset"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type schoolContextResponse struct {
	School schoolAuth.TenantContext `json:"school"`
	Role   string                   `json:"role"`
}

type staffAreaResponse struct {
	School  schoolAuth.TenantContext `json:"school"`
	Role    string                   `json:"role"`
	Message string                   `json:"message"`
}

func summarize(a *schoolAuth.Account) accountSummary {
	return accountSummary{
		ID:         a.ID,
		Identifier: a.Identifier,
		Role:       a.Role.String(),
		Status:     a.Status.String(),
		SchoolID:   a.TenantID,
		SchoolCode: a.TenantCode,
		SchoolName: a.TenantName,
	}
}

func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", schoolAuth.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, w, &req); err != nil {
		middleware.WriteError(w, r, s.logger, err)
		return
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}

	res, err := s.engine.Login(r.Context(), identifier, req.Password)
	if err != nil {
		middleware.WriteError(w, r, s.logger, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, loginResponse{
		Token:                 res.Token,
		ExpiresAt:             res.ExpiresAt.UTC(),
		RequiresPasswordReset: res.RequiresPasswordReset,
		Account:               summarize(res.Account),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, s.logger, schoolAuth.ErrUnauthorized)
		return
	}
	out := meResponse{
		Account:       summarize(res.Account),
		PasswordReset: res.Account.RequiresPasswordReset,
	}
	if res.Claims != nil && res.Claims.ExpiresAt != nil {
		out.SessionExpiresAt = res.Claims.ExpiresAt.Time.UTC()
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, s.logger, schoolAuth.ErrUnauthorized)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, w, &req); err != nil {
		middleware.WriteError(w, r, s.logger, err)
		return
	}

	if err := s.engine.ChangePassword(r.Context(), res.Account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		middleware.WriteError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSchoolContext(w http.ResponseWriter, r *http.Request) {
	res, _ := middleware.AuthResultFromContext(r.Context())
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok || res == nil {
		middleware.WriteError(w, r, s.logger, fmt.Errorf("%w: school context missing", schoolAuth.ErrInternal))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, schoolContextResponse{School: *tc, Role: res.Account.Role.String()})
}

func (s *Server) handleStaffArea(w http.ResponseWriter, r *http.Request) {
	res, _ := middleware.AuthResultFromContext(r.Context())
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok || res == nil {
		middleware.WriteError(w, r, s.logger, fmt.Errorf("%w: school context missing", schoolAuth.ErrInternal))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, staffAreaResponse{
		School:  *tc,
		Role:    res.Account.Role.String(),
		Message: "welcome to the " + tc.Name + " staff area",
	})
}
