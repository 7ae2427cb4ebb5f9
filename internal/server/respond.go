package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/flowmap/pkg/errors"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func errorBody(code, message string) errorResponse {
	return errorResponse{Error: errorDetail{Code: code, Message: message}}
}

func errNotFound(format string, args ...any) error {
	return errors.New(errors.ErrCodeNotFound, format, args...)
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidDimensions,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidVersionName:
		return http.StatusBadRequest
	case errors.ErrCodeNoValidData:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeVersionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeStorage:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// writeError writes err as a JSON error body. Errors without a code are
// reported as INTERNAL_ERROR with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	message := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
		message = "internal error"
	}
	body := errorBody(string(code), message)
	body.Error.RequestID = middleware.GetReqID(r.Context())
	writeJSON(w, statusFor(code), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

// =============================================================================
// Request decoding
// =============================================================================

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates its struct tags.
// Unknown fields are rejected.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", maxErr.Limit)
		case stderrors.Is(err, io.EOF):
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body: %v", err)
	}
	if dec.More() {
		return errors.New(errors.ErrCodeInvalidInput, "request body must contain a single JSON object")
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError turns validator output into one INVALID_INPUT error
// listing each failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		field := strings.SplitN(fe.Namespace(), ".", 2)
		name := field[len(field)-1]
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s: failed %s=%s", name, fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s: failed %s", name, fe.Tag())
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s", strings.Join(msgs, "; "))
}
