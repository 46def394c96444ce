package webui

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apperrors "github.com/metaflame/pkg/errors"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	}
	s.writeJSON(w, status, errorResponse{
		Code:    apperrors.GetErrorCode(err),
		Message: apperrors.GetErrorMessage(err),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.Newf(apperrors.CodeInvalidInput, "request body exceeds %d bytes", maxErr.Limit)
		}
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid request body", err)
	}
	return nil
}

func queryFloat(r *http.Request, key string) (float32, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, apperrors.Newf(apperrors.CodeInvalidInput, "missing query parameter %q", key)
	}
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("invalid query parameter %q", key), err)
	}
	return float32(f), nil
}
