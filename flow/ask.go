package flow

import (
	"context"
	"strings"

	"filesearch/genai"
	"filesearch/logging"
	"filesearch/session"
)

// DefaultModel is used when the caller does not pick one.
const DefaultModel = "gemini-2.5-flash"

// AskerOptions configure an Asker.
type AskerOptions struct {
	Model  string
	Logger logging.Logger
}

// Asker answers a natural-language question with retrieval grounded in the
// session's active store. One synchronous generate call per question; on
// success the (user, assistant) pair is appended to the conversation
// history.
type Asker struct {
	svc    Service
	model  string
	logger logging.Logger
}

// NewAsker constructs an Asker with optional overrides.
func NewAsker(svc Service, optFns ...func(o *AskerOptions)) *Asker {
	opts := AskerOptions{Model: DefaultModel, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Asker{svc: svc, model: opts.Model, logger: opts.Logger}
}

// Answer is the outcome of one grounded question.
type Answer struct {
	Text      string
	Grounding string
	History   []session.Message
}

// Ask validates preconditions in order (credential, store, question) and on
// any failure returns the history untouched with no remote call. The
// metadata filter is passed through verbatim; blank means no filter. model
// may be blank to use the Asker default.
func (a *Asker) Ask(ctx context.Context, sess *session.Session, question, model, metadataFilter string) (*Answer, error) {
	if !sess.HasCredential() {
		return nil, ErrCredentialRequired
	}
	storeName := sess.Store()
	if storeName == "" {
		return nil, ErrStoreRequired
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if model == "" {
		model = a.model
	}

	req := &genai.GenerateContentRequest{
		Contents: []genai.Content{
			{Role: "user", Parts: []genai.Part{{Text: question}}},
		},
		Tools: []genai.Tool{
			{FileSearch: &genai.FileSearch{
				FileSearchStoreNames: []string{storeName},
				MetadataFilter:       strings.TrimSpace(metadataFilter),
			}},
		},
	}
	resp, err := a.svc.GenerateContent(ctx, model, req)
	if err != nil {
		return nil, err
	}

	answer := resp.Text()
	if answer == "" {
		answer = "No answer text."
	}
	sess.AppendExchange(question, answer)
	a.logger.Debug("question answered", "store", storeName, "model", model)

	return &Answer{
		Text:      answer,
		Grounding: renderGrounding(resp),
		History:   sess.History(),
	}, nil
}
