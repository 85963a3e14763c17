package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"kfolx-backend-go/internal/services"
)

const msgInternal = "Terjadi kesalahan. Silakan coba lagi nanti."

type ErrorResponse struct {
	Message string `json:"message"`
}

type ValidationResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError renders err. Anything that is not a ServiceError becomes a
// generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var serr services.ServiceError
	if !errors.As(err, &serr) {
		log.Printf("unhandled error: %v", err)
		WriteError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if len(serr.Fields) > 0 {
		WriteJSON(w, serr.Status, ValidationResponse{Message: serr.Message, Errors: serr.Fields})
		return
	}
	WriteError(w, serr.Status, serr.Message)
}
