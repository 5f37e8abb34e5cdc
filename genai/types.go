package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Store is a named, remotely managed collection of indexed documents. Name is
// the service-assigned resource name (fileSearchStores/...); DisplayName is
// user-supplied and not unique.
type Store struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	CreateTime  string `json:"createTime,omitempty"`
	UpdateTime  string `json:"updateTime,omitempty"`
}

// File is an uploaded artifact (files/...) that can be imported into a store.
type File struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	URI         string `json:"uri,omitempty"`
	SizeBytes   string `json:"sizeBytes,omitempty"`
	State       string `json:"state,omitempty"`
}

// CustomMetadata attaches a key/value pair to an imported document. Exactly
// one of StringValue or NumericValue should be set.
type CustomMetadata struct {
	Key          string   `json:"key"`
	StringValue  string   `json:"stringValue,omitempty"`
	NumericValue *float64 `json:"numericValue,omitempty"`
}

// StringMeta builds a string-valued metadata entry.
func StringMeta(key, value string) CustomMetadata {
	return CustomMetadata{Key: key, StringValue: value}
}

// NumericMeta builds a numeric-valued metadata entry.
func NumericMeta(key string, value float64) CustomMetadata {
	return CustomMetadata{Key: key, NumericValue: &value}
}

// WhiteSpaceConfig controls whitespace-based chunking of an ingested file.
type WhiteSpaceConfig struct {
	MaxTokensPerChunk int `json:"maxTokensPerChunk,omitempty"`
	MaxOverlapTokens  int `json:"maxOverlapTokens,omitempty"`
}

// ChunkingConfig selects how a document is split into retrievable segments.
type ChunkingConfig struct {
	WhiteSpaceConfig *WhiteSpaceConfig `json:"whiteSpaceConfig,omitempty"`
}

// UploadConfig carries optional parameters for the combined
// upload-and-index call.
type UploadConfig struct {
	DisplayName    string          `json:"displayName,omitempty"`
	ChunkingConfig *ChunkingConfig `json:"chunkingConfig,omitempty"`
}

// OperationStatus is the error payload of a failed long-running operation.
type OperationStatus struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Operation is an opaque handle to an asynchronous unit of remote work. It is
// mutated only by re-fetching it via Client.GetOperation; Done reports the
// service's completion flag and Response becomes available once Done is set.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    *OperationStatus `json:"error,omitempty"`
}

// Err returns the operation's failure as an error, or nil.
func (o *Operation) Err() error {
	if o == nil || o.Error == nil {
		return nil
	}
	return fmt.Errorf("operation %s failed: %s", o.Name, o.Error.Message)
}

// Part is a single content segment. Only text parts are used here.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content is role-tagged message content.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// FileSearch binds generation to one or more stores, optionally narrowed by
// a server-side metadata filter expression (AIP-160 syntax, passed through
// verbatim).
type FileSearch struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
	MetadataFilter       string   `json:"metadataFilter,omitempty"`
}

// Tool declares a tool available to the model during generation.
type Tool struct {
	FileSearch *FileSearch `json:"fileSearch,omitempty"`
}

// GenerateContentRequest is the payload for models/*:generateContent.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// Candidate is one generated answer. GroundingMetadata is kept raw: its
// schema varies and callers only render it for display.
type Candidate struct {
	Content           *Content        `json:"content,omitempty"`
	FinishReason      string          `json:"finishReason,omitempty"`
	GroundingMetadata json.RawMessage `json:"groundingMetadata,omitempty"`
}

// GenerateContentResponse is the result of a generateContent call.
type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("genai: request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("genai: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is an APIError describing a missing
// resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 || apiErr.Status == "NOT_FOUND"
	}
	return false
}
