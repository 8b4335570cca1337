package models

// BasicResponse is the generic status payload used by simple endpoints
type BasicResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"` // "success" or "error"
}
