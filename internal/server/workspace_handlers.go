// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"github.com/tejzpr/sweety-vault/internal/controller"
	"github.com/tejzpr/sweety-vault/internal/nickname"
	"github.com/tejzpr/sweety-vault/internal/vault"
	"go.uber.org/zap"
)

type inputRequest struct {
	Text  string `json:"text"`
	Style string `json:"style" validate:"omitempty,style"`
}

type generateRequest struct {
	Memory string `json:"memory" validate:"required"`
	Style  string `json:"style" validate:"omitempty,style"`
}

type selectionResponse struct {
	Label    string          `json:"label"`
	Selected bool            `json:"selected"`
	View     controller.View `json:"state"`
}

type generateResponse struct {
	Result *nickname.Result `json:"result"`
	View   controller.View  `json:"state"`
}

type saveResponse struct {
	Saved []vault.Record  `json:"saved"`
	View  controller.View `json:"state"`
}

type memoriesResponse struct {
	Records []vault.Record `json:"records"`
	Total   int            `json:"total"`
}

// workspace resolves the signed-in user's controller, writing an error
// response when it cannot.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (*controller.Controller, bool) {
	userID, _ := auth.UserIDFromContext(r.Context())
	ctrl, err := s.workspaces.Get(r.Context(), userID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return ctrl, true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}
	ctrl.SetInput(req.Text, nickname.Style(req.Style))
	writeJSON(w, http.StatusOK, ctrl.View())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}

	res, err := ctrl.SubmitMemory(r.Context(), req.Memory, nickname.Style(req.Style))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Result: res, View: ctrl.View()})
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	label := pathParam(r, "label")
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}

	selected, err := ctrl.ToggleSelection(label)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{Label: label, Selected: selected, View: ctrl.View()})
}

// handleConfirm saves the current selection.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}

	saved, err := ctrl.Confirm(r.Context())
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("save failed", zap.Error(err))
		}
		writeError(w, status, err.Error())
		return
	}
	if saved == nil {
		saved = []vault.Record{}
	}
	writeJSON(w, http.StatusCreated, saveResponse{Saved: saved, View: ctrl.View()})
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}

	if q, present := r.URL.Query()["q"]; present {
		ctrl.SetSearch(q[0])
	}
	records := ctrl.VisibleRecords()
	if records == nil {
		records = []vault.Record{}
	}
	writeJSON(w, http.StatusOK, memoriesResponse{Records: records, Total: ctrl.View().Total})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}
	ctrl.ToggleExpanded(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, ctrl.View())
}

func (s *Server) handleRequestDelete(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}
	ctrl.RequestDelete(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, ctrl.View())
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}
	ctrl.CancelDelete()
	writeJSON(w, http.StatusOK, ctrl.View())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}

	removed, err := ctrl.ConfirmDelete(r.Context(), id)
	if err != nil {
		s.logger.Error("delete failed", zap.String("id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, controller.ErrUnknownRecord.Error())
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

// pathParam returns a URL parameter with any percent-encoding removed.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
