package dto

import "time"

type BasicResponse struct {
	Ok        bool      `json:"ok"`
	Kind      string    `json:"kind,omitempty"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBasicResponse(ok bool, details string) BasicResponse {
	return BasicResponse{
		Ok:        ok,
		Details:   details,
		Timestamp: time.Now(),
	}
}

func NewErrorResponse(kind string, details string) BasicResponse {
	resp := NewBasicResponse(false, details)
	resp.Kind = kind
	return resp
}
