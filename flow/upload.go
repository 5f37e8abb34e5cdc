package flow

import (
	"context"
	"io"
	"strings"

	"filesearch/genai"
	"filesearch/logging"
	"filesearch/progress"
	"filesearch/session"
)

// Default whitespace chunking parameters applied when explicit chunking is
// requested with a missing value.
const (
	DefaultMaxTokensPerChunk = 200
	DefaultMaxOverlapTokens  = 20
)

// ChunkingParams are the user-facing chunking knobs. Both zero means the
// service's default chunking applies; either non-zero activates an explicit
// whitespace chunking config with the missing value defaulted.
type ChunkingParams struct {
	MaxTokens     int
	OverlapTokens int
}

// Config translates the params into the wire config, or nil for service
// defaults.
func (p ChunkingParams) Config() *genai.ChunkingConfig {
	if p.MaxTokens == 0 && p.OverlapTokens == 0 {
		return nil
	}
	maxTokens := p.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokensPerChunk
	}
	overlap := p.OverlapTokens
	if overlap == 0 {
		overlap = DefaultMaxOverlapTokens
	}
	return &genai.ChunkingConfig{
		WhiteSpaceConfig: &genai.WhiteSpaceConfig{
			MaxTokensPerChunk: maxTokens,
			MaxOverlapTokens:  overlap,
		},
	}
}

// UploaderOptions configure an Uploader.
type UploaderOptions struct {
	Poller *progress.Poller
	Logger logging.Logger
}

// Uploader ingests one user-supplied file into the session's active store
// via the combined upload-and-index call, streaming progress snapshots
// while the remote operation runs.
type Uploader struct {
	svc    Service
	poller *progress.Poller
	logger logging.Logger
}

// NewUploader constructs an Uploader with optional overrides.
func NewUploader(svc Service, optFns ...func(o *UploaderOptions)) *Uploader {
	opts := UploaderOptions{Poller: progress.New(svc), Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Uploader{svc: svc, poller: opts.Poller, logger: opts.Logger}
}

// Upload describes one file to ingest. File is the raw content; Name is the
// local file name shown in progress messages; DisplayName optionally
// overrides the name used for citations.
type Upload struct {
	File        io.Reader
	Name        string
	DisplayName string
	Chunking    ChunkingParams
}

// Run validates preconditions in order (credential, store, file), each
// failing with a distinct warning and zero progress, then uploads and
// indexes the file. The final update carries the operation response
// rendered as text ("Indexed." when the service returns no payload).
func (u *Uploader) Run(ctx context.Context, sess *session.Session, up Upload) (<-chan Update, <-chan error) {
	if !sess.HasCredential() {
		return failNow(ErrCredentialRequired)
	}
	storeName := sess.Store()
	if storeName == "" {
		return failNow(ErrStoreRequired)
	}
	if up.File == nil {
		return failNow(ErrNoFile)
	}

	out := make(chan Update, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		cfg := uploadConfig(up)
		out <- Update{StoreName: storeName, Status: "Uploading " + up.Name, Percent: 5,
			Line: "Uploading: " + up.Name}

		op, err := u.svc.UploadToStore(ctx, up.File, storeName, cfg)
		if err != nil {
			errCh <- err
			return
		}

		snaps, perr := u.poller.Watch(ctx, op, "Indexing "+up.Name)
		last := op
		for snap := range snaps {
			last = snap.Op
			out <- Update{StoreName: storeName, Status: snap.Status, Percent: snap.Percent}
		}
		if err := <-perr; err != nil {
			errCh <- err
			return
		}

		u.logger.Info("file indexed", "store", storeName, "file", up.Name)
		out <- Update{
			StoreName: storeName,
			Status:    "Finished",
			Percent:   100,
			Line:      "✅ File indexed into " + storeName,
			Summary:   renderOperationResponse(last),
			Final:     true,
		}
	}()

	return out, errCh
}

// uploadConfig builds the wire config, or nil when neither a display name
// nor explicit chunking was requested.
func uploadConfig(up Upload) *genai.UploadConfig {
	displayName := strings.TrimSpace(up.DisplayName)
	chunkCfg := up.Chunking.Config()
	if displayName == "" && chunkCfg == nil {
		return nil
	}
	return &genai.UploadConfig{DisplayName: displayName, ChunkingConfig: chunkCfg}
}
