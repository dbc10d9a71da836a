package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/identity"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var validate = validator.New()

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// ErrorBody is the error payload of every endpoint.
type ErrorBody struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// statusFor maps an error category onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, authz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, authz.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, authz.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondWithDomainError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := authz.ReasonOf(err)
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	respondWithError(w, code, ErrorBody{Category: authz.CategoryOf(err), Message: msg})
}

// decodeJSON reads a JSON body into dst and runs struct validation.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return authz.InvalidInput("malformed request body: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return authz.InvalidInput("%s", validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

// requestIdentity returns the caller set by the JWT middleware.
func requestIdentity(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	id, ok := identity.Get(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrorBody{Category: "unauthenticated", Message: "no identity on request"})
		return nil, false
	}
	return id, true
}
