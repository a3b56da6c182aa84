package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onecard-labs/cardassist/internal/auth"
	apperrors "github.com/onecard-labs/cardassist/internal/errors"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	if err := s.auth.Register(r.Context(), req); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == "E500" {
			writeError(w, http.StatusBadRequest, appErr.UserMessage)
			return
		}

		writeError(w, http.StatusInternalServerError, s.errs.Handle(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	sess, err := s.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid phone number or PIN.")
			return
		}

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == "E500" {
			writeError(w, http.StatusBadRequest, appErr.UserMessage)
			return
		}

		writeError(w, http.StatusInternalServerError, s.errs.Handle(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, apperrors.NewSessionError().UserMessage)
		return
	}

	if err := s.auth.Logout(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, s.errs.Handle(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
