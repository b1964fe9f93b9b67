package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, "", data, nil, nil)
}

// respondMessage writes a success response carrying only a message.
func respondMessage(w http.ResponseWriter, reqID, msg string) {
	respondJSON(w, http.StatusOK, reqID, msg, nil, nil, nil)
}

// respondCreated writes a 201 response with the standard envelope.
func respondCreated(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusCreated, reqID, "", data, nil, nil)
}

// respondList writes a success response with pagination.
func respondList(w http.ResponseWriter, reqID string, data any, pg *model.Pagination) {
	respondJSON(w, http.StatusOK, reqID, "", data, pg, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, "", nil, nil, apiErr)
}

// respondErr maps a coded domain error onto the envelope. Unclassified
// failures are logged and reported as INTERNAL_ERROR without detail.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	reqID := RequestIDFromContext(r.Context())
	code := apperr.Code(err)
	status := apperr.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", code,
			"request_id", reqID,
			"error", err,
		)
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{
			Code:    model.ErrInternal,
			Message: "internal server error",
		})
		return
	}
	respondError(w, reqID, status, &model.APIError{
		Code:    model.ErrorCode(code),
		Message: err.Error(),
		Details: apperr.FieldErrors(err),
	})
}

func respondJSON(w http.ResponseWriter, status int, reqID, msg string, data any, pg *model.Pagination, apiErr *model.APIError) {
	resp := model.Response{
		RequestID:  reqID,
		Timestamp:  time.Now().UTC(),
		Message:    msg,
		Data:       data,
		Pagination: pg,
		Error:      apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// decodeJSON reads a JSON request body into v, writing a VALIDATION_FAILED
// response and reporting false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusBadRequest,
			model.NewValidationError("invalid JSON: "+err.Error()))
		return false
	}
	return true
}
