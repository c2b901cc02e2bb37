package handlers

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the standard error envelope returned by every handler in
// this package.
type ErrorResponse struct {
	Error      string    `json:"error"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

func parseInt(s string) (int, error) {
	var val int
	err := json.Unmarshal([]byte(s), &val)
	return val, err
}
