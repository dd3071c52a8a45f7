package api

import (
	"encoding/json"
	"net/http"

	"rafflehouse/domain/common"

	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusForKind maps a domain error kind to an HTTP status
func statusForKind(kind common.ErrorKind) int {
	switch kind {
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindInvalidInput:
		return http.StatusBadRequest
	case common.KindInvalidState, common.KindCapacityExceeded, common.KindConflict:
		return http.StatusConflict
	case common.KindExternalDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to write response body")
	}
}

// respondError writes a classified error. Unclassified errors are logged and hidden.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := common.KindOf(err)
	status := statusForKind(kind)

	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"kind":   kind,
			"error":  err,
		}).Error("Request failed")
	}

	respondJSON(w, status, ErrorResponse{
		Error:   string(kind),
		Message: common.MessageOf(err),
	})
}

// respondStatus writes an error that did not come from the domain
func respondStatus(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// decodeJSON reads a JSON body, rejecting unknown fields
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return common.InvalidInput("Invalid request body: %v", err)
	}
	return nil
}
