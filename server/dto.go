package server

import (
	"github.com/go-playground/validator/v10"

	"filesearch/session"
)

var validate = validator.New()

// SetKeyRequest carries the pasted API key. The key lives only in session
// memory and is never logged or persisted.
type SetKeyRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// SamplesRequest starts a store build from the local samples catalog.
type SamplesRequest struct {
	SamplesDir  string `json:"samples_dir"`
	DisplayName string `json:"display_name"`
}

// EmptyStoreRequest creates an empty store for ad-hoc uploads.
type EmptyStoreRequest struct {
	DisplayName string `json:"display_name"`
}

// BindStoreRequest switches the active store to an existing resource name.
// Blank names are handled by the flow layer as a not-found-class warning.
type BindStoreRequest struct {
	StoreName string `json:"store_name"`
}

// DeleteStoreRequest force-deletes a store.
type DeleteStoreRequest struct {
	StoreName string `json:"store_name"`
}

// AskRequest asks one grounded question. Question blank-checking is a flow
// precondition, not a transport validation, so history-unchanged semantics
// hold.
type AskRequest struct {
	Question       string `json:"question"`
	Model          string `json:"model"`
	MetadataFilter string `json:"metadata_filter"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type jobResponse struct {
	JobID     string `json:"job_id"`
	StoreName string `json:"store_name,omitempty"`
	Message   string `json:"message,omitempty"`
}

type storeResponse struct {
	StoreName string `json:"store_name"`
	Message   string `json:"message"`
}

type storeItem struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

type listStoresResponse struct {
	Stores []storeItem `json:"stores"`
}

type askResponse struct {
	Answer    string            `json:"answer,omitempty"`
	Grounding string            `json:"grounding,omitempty"`
	History   []session.Message `json:"history"`
	Note      string            `json:"note"`
}
