package api

import "encoding/json"

// the api wraps failures in {"message": ..., "errors": [...]}
func apiErrorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
