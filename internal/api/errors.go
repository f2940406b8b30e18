package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

type apiError struct {
	Code    string
	Message string
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

// toAPIError keeps 5xx messages generic. 4xx messages come from typed domain
// errors and validation, which are safe to show.
func toAPIError(status int, err error) apiError {
	raw := ""
	if err != nil {
		raw = err.Error()
	}
	low := strings.ToLower(raw)

	switch {
	case status == http.StatusBadGateway:
		return apiError{Code: "DR-GEN-5020", Message: "Answer generation failed. Retry shortly."}
	case status == http.StatusServiceUnavailable:
		return apiError{Code: "DR-API-5030", Message: raw}
	case status >= 500:
		switch {
		case strings.Contains(low, "relation") && strings.Contains(low, "does not exist"):
			return apiError{Code: "DR-DB-5001", Message: "Database schema is not initialized. Run migrations and retry."}
		case strings.Contains(low, "dial tcp"), strings.Contains(low, "connection refused"):
			return apiError{Code: "DR-DB-5002", Message: "Database connection is unavailable. Check local services and retry."}
		default:
			return apiError{Code: "DR-API-5000", Message: "Internal server error. Please retry or check service logs."}
		}
	case status == http.StatusBadRequest:
		if strings.HasPrefix(low, "invalid json") {
			return apiError{Code: "DR-API-4001", Message: "Malformed JSON request body."}
		}
		return apiError{Code: "DR-API-4001", Message: raw}
	case status == http.StatusNotFound:
		return apiError{Code: "DR-API-4004", Message: raw}
	case status == http.StatusConflict:
		return apiError{Code: "DR-API-4009", Message: raw}
	case status == http.StatusMethodNotAllowed:
		return apiError{Code: "DR-API-4005", Message: "This endpoint does not support the requested method."}
	case status == http.StatusRequestEntityTooLarge:
		return apiError{Code: "DR-API-4013", Message: raw}
	default:
		return apiError{Code: "DR-API-4000", Message: raw}
	}
}
