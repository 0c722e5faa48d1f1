package middleware

import (
	"encoding/json"
	"net/http"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
)

// writeError responde com o mesmo envelope {code,category,message} dos handlers.
func writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}
