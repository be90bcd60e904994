// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"net/http"

	"github.com/tejzpr/sweety-vault/internal/auth"
	"go.uber.org/zap"
)

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	Session       *auth.Session `json:"session,omitempty"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.provider.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Info("sign up rejected", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("user signed in", zap.String("user_id", session.UserID))
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.provider.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleSignOut revokes the token and drops the user's workspace.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	if err := s.provider.SignOut(r.Context(), session.AccessToken); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.workspaces.Drop(session.UserID)
	s.logger.Info("user signed out", zap.String("user_id", session.UserID))
	w.WriteHeader(http.StatusNoContent)
}

// handleSession reports the caller's session. A missing or expired token is
// not an error here; the client shows its sign-in screen instead.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: ok, Session: session})
}
