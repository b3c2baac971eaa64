package api

import (
	"encoding/json"
	"io"
	"net/http"
)

// writeJSON writes a JSON response to the response writer
func writeJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}

// writeError sends an error response with a coded JSON body
func writeError(w http.ResponseWriter, statusCode int, code ErrorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   string(code),
		Message: message,
	}

	_ = writeJSON(w, response)
}

// writeAPIError sends the response for a mapped *APIError
func writeAPIError(w http.ResponseWriter, apiErr *APIError) {
	writeError(w, apiErr.StatusCode, apiErr.Code, apiErr.Message)
}
