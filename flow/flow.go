// Package flow implements the user-facing flows of the demo: building a
// store from the local samples catalog, store lifecycle management,
// single-file upload-and-index, and grounded question answering. Flows
// borrow a session for the duration of one call and talk to the remote
// service through the Service interface; long-running flows stream
// incremental updates over a channel pair in issuance order.
package flow

import (
	"context"
	"errors"
	"io"

	"filesearch/genai"
)

// Precondition failures. Detected locally before any remote call and
// surfaced to the user as short warnings, never as crashes.
var (
	// ErrCredentialRequired means no API key has been set for the session.
	ErrCredentialRequired = errors.New("set your API key first")
	// ErrStoreRequired means no active store is selected (or a blank store
	// reference was supplied).
	ErrStoreRequired = errors.New("create or select a store first")
	// ErrNoFile means no file was supplied to the upload flow.
	ErrNoFile = errors.New("choose a file to upload")
	// ErrEmptyQuestion means the question text was blank.
	ErrEmptyQuestion = errors.New("type a question")
	// ErrStoreNotFound means an existing-store reference did not resolve.
	ErrStoreNotFound = errors.New("could not get store")
)

// Service is the remote store service consumed by all flows. *genai.Client
// satisfies it; tests substitute fakes.
type Service interface {
	CreateStore(ctx context.Context, displayName string) (*genai.Store, error)
	GetStore(ctx context.Context, name string) (*genai.Store, error)
	ListStores(ctx context.Context) ([]*genai.Store, error)
	DeleteStore(ctx context.Context, name string, force bool) error
	UploadFile(ctx context.Context, r io.Reader, displayName string) (*genai.File, error)
	ImportFile(ctx context.Context, storeName, fileName string, meta []genai.CustomMetadata) (*genai.Operation, error)
	UploadToStore(ctx context.Context, r io.Reader, storeName string, cfg *genai.UploadConfig) (*genai.Operation, error)
	GetOperation(ctx context.Context, name string) (*genai.Operation, error)
	GenerateContent(ctx context.Context, model string, req *genai.GenerateContentRequest) (*genai.GenerateContentResponse, error)
}

// Update is one incremental UI state of a long-running flow. Percent is the
// overall progress bar value; Line, when non-empty, is a new log line to
// append; Summary carries the rendered operation response on the final
// update of the upload flow.
type Update struct {
	StoreName string  `json:"store_name,omitempty"`
	Status    string  `json:"status"`
	Percent   float64 `json:"percent"`
	Line      string  `json:"line,omitempty"`
	Summary   string  `json:"summary,omitempty"`
	Final     bool    `json:"final,omitempty"`
}

// failNow returns an already-closed update channel and an error channel
// holding err: the flow never started and made no remote call.
func failNow(err error) (<-chan Update, <-chan error) {
	out := make(chan Update)
	close(out)
	errCh := make(chan error, 1)
	errCh <- err
	close(errCh)
	return out, errCh
}
