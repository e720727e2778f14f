package api

import "encoding/json"

// Envelope is the fixed body shape of every backend response:
// {success, data|error, message}.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorBody      `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// ListPage is the data of list endpoints.
type ListPage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
