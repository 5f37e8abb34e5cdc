package flow

import (
	"context"
	"fmt"
	"os"
	"strings"

	"filesearch/catalog"
	"filesearch/logging"
	"filesearch/progress"
	"filesearch/session"

	"filesearch/genai"
)

const (
	// DefaultSamplesDir is scanned for catalog documents when no directory
	// is supplied.
	DefaultSamplesDir = "samples"
	// DefaultSamplesStoreName names stores built from the samples catalog.
	DefaultSamplesStoreName = "file-search-samples"
)

// BuilderOptions configure a Builder.
type BuilderOptions struct {
	Poller  *progress.Poller
	Logger  logging.Logger
	Catalog []catalog.Descriptor
}

// Builder creates a new store and imports whatever catalog documents exist
// in a samples directory, attaching per-document metadata and streaming one
// update per poll tick plus one log line per document.
type Builder struct {
	svc     Service
	poller  *progress.Poller
	logger  logging.Logger
	catalog []catalog.Descriptor
}

// NewBuilder constructs a Builder with optional overrides.
func NewBuilder(svc Service, optFns ...func(o *BuilderOptions)) *Builder {
	opts := BuilderOptions{
		Poller:  progress.New(svc),
		Logger:  logging.NoOpLogger{},
		Catalog: catalog.Samples,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Builder{svc: svc, poller: opts.Poller, logger: opts.Logger, catalog: opts.Catalog}
}

// Run creates a store named displayName and indexes the present catalog
// documents from dir. The store is created even when the whole catalog is
// absent; that is a degraded success, not an error. Remote failures after
// store creation end the run via the error channel; the session keeps the
// already-created store reference.
func (b *Builder) Run(ctx context.Context, sess *session.Session, dir, displayName string) (<-chan Update, <-chan error) {
	if !sess.HasCredential() {
		return failNow(ErrCredentialRequired)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = DefaultSamplesStoreName
	}
	if strings.TrimSpace(dir) == "" {
		dir = DefaultSamplesDir
	}

	out := make(chan Update, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		store, err := b.svc.CreateStore(ctx, displayName)
		if err != nil {
			errCh <- err
			return
		}
		sess.SetStore(store.Name)
		b.logger.Info("store created", "store", store.Name, "display_name", displayName)

		present := len(catalogPresent(b.catalog, dir))
		total := present
		if total < 1 {
			total = 1
		}

		emit := func(u Update) {
			u.StoreName = store.Name
			out <- u
		}
		emit(Update{Status: "Preparing indexing", Percent: 1,
			Line: fmt.Sprintf("Creating store %s (display name %q) from %s", store.Name, displayName, dir)})

		done := 0
		for _, d := range b.catalog {
			path := d.Resolve(dir)
			if !d.Exists(dir) {
				emit(Update{Status: "Checking files", Percent: overall(done, total, 0),
					Line: "Missing: " + path})
				continue
			}

			emit(Update{Status: "Uploading " + d.Path, Percent: overall(done, total, 5),
				Line: "Uploading: " + d.Path})
			f, err := os.Open(path)
			if err != nil {
				errCh <- err
				return
			}
			uploaded, err := b.svc.UploadFile(ctx, f, d.Title)
			f.Close()
			if err != nil {
				errCh <- err
				return
			}

			op, err := b.svc.ImportFile(ctx, store.Name, uploaded.Name, documentMetadata(d, path))
			if err != nil {
				errCh <- err
				return
			}

			snaps, perr := b.poller.Watch(ctx, op, "Indexing "+d.Path)
			for snap := range snaps {
				emit(Update{Status: snap.Status, Percent: overall(done, total, snap.Percent)})
			}
			if err := <-perr; err != nil {
				errCh <- err
				return
			}

			done++
			b.logger.Info("document indexed", "store", store.Name, "path", d.Path)
			emit(Update{Status: "Indexed " + d.Path, Percent: overall(done, total, 0),
				Line: fmt.Sprintf("Indexed: %s (author=%s, year=%d)", d.Path, d.Author, d.Year)})
		}

		final := "✅ Store created and files indexed."
		if present == 0 {
			final = "⚠️ Store created. No classics found to index."
		}
		emit(Update{Status: "Finished", Percent: 100, Line: final, Final: true})
	}()

	return out, errCh
}

// overall folds one document's 0..100 step progress into the whole-run bar.
func overall(done, total int, step float64) float64 {
	return float64(done)/float64(total)*100 + step/float64(total)
}

func catalogPresent(descriptors []catalog.Descriptor, dir string) []catalog.Descriptor {
	var found []catalog.Descriptor
	for _, d := range descriptors {
		if d.Exists(dir) {
			found = append(found, d)
		}
	}
	return found
}

// documentMetadata builds the custom metadata attached to an imported
// catalog document: title, author and local path as strings, year numeric.
func documentMetadata(d catalog.Descriptor, path string) []genai.CustomMetadata {
	return []genai.CustomMetadata{
		genai.StringMeta("title", d.Title),
		genai.StringMeta("author", d.Author),
		genai.NumericMeta("year", float64(d.Year)),
		genai.StringMeta("local_path", path),
	}
}
