// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"github.com/tejzpr/sweety-vault/internal/controller"
	"github.com/tejzpr/sweety-vault/internal/nickname"
	"github.com/tejzpr/sweety-vault/internal/vault"
	"github.com/tejzpr/sweety-vault/internal/workspace"
)

const maxBodyBytes = 64 << 10

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, workspace.ErrNoUser):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, controller.ErrBusy),
		errors.Is(err, vault.ErrSaveInFlight):
		return http.StatusConflict
	case errors.Is(err, controller.ErrNothingSelected),
		errors.Is(err, controller.ErrUnknownCandidate),
		errors.Is(err, nickname.ErrEmptyMemory):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrUnknownRecord):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// newValidator returns a validator that also understands nickname styles.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	styles := nickname.DefaultStyles()
	_ = v.RegisterValidation("style", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		for _, s := range styles.Styles() {
			if string(s) == name {
				return true
			}
		}
		return false
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "style":
			msgs = append(msgs, fmt.Sprintf("%s must be a known nickname style", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
