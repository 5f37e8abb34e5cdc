package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"filesearch/flow"
)

func (s *Server) createSession(c *fiber.Ctx) error {
	sess := s.sessions.Create()
	s.logger.Debug("session created", "session", sess.ID)
	return c.JSON(sessionResponse{SessionID: sess.ID})
}

func (s *Server) setKey(c *fiber.Ctx) error {
	sess, err := s.sessionFromParams(c)
	if err != nil {
		return fail(c, err)
	}
	var req SetKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, err)
	}
	if err := validate.Struct(req); err != nil || strings.TrimSpace(req.APIKey) == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(messageResponse{Message: "❌ API key required. Paste your Gemini key and click Set key."})
	}
	sess.SetCredential(req.APIKey)
	return c.JSON(messageResponse{Message: "✅ API key set for this session."})
}

func (s *Server) buildFromSamples(c *fiber.Ctx) error {
	sess, err := s.sessionFromParams(c)
	if err != nil {
		return fail(c, err)
	}
	var req SamplesRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, err)
	}
	if req.SamplesDir == "" {
		req.SamplesDir = s.cfg.SamplesDir
	}

	svc := s.service(sess)
	builder := flow.NewBuilder(svc, func(o *flow.BuilderOptions) {
		o.Poller = s.poller(svc)
		o.Logger = s.logger
	})

	// The build outlives this request, so it runs on a background context;
	// preconditions surface synchronously on the error channel before any
	// remote call and are reported as a direct warning instead of a job.
	out, errCh := builder.Run(context.Background(), sess, req.SamplesDir, req.DisplayName)
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fail(c, err)
		}
	default:
	}

	job := s.jobs.Start(func() (<-chan flow.Update, <-chan error) { return out, errCh })
	return c.JSON(jobResponse{JobID: job.ID})
}

func (s *Server) createEmptyStore(c *fiber.Ctx) error {
	sess, err := s.sessionFromParams(c)
	if err != nil {
		return fail(c, err)
	}
	var req EmptyStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, err)
	}
	name, err := flow.NewManager(s.service(sess)).CreateEmpty(c.Context(), sess, req.DisplayName)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(storeResponse{StoreName: name, Message: "✅ Created empty store for uploads: " + name})
}

func (s *Server) bindStore(c *fiber.Ctx) error {
	sess, err := s.sessionFromParams(c)
	if err != nil {
		return fail(c, err)
	}
	var req BindStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, err)
	}
	name, err := flow.NewManager(s.service(sess)).BindExisting(c.Context(), sess, req.StoreName)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(storeResponse{StoreName: name, Message: "✅ Using existing store: " + name})
}

func (s *Server) listStores(c *fiber.Ctx) error {
	sess, err := s.sessionFromParams(c)
	if err != nil {
		return fail(c, err)
	}
	stores, err := flow.NewManager(s.service(sess)).List(c.Context(), sess)
	if err != nil {
		return fail(c, err)
	}
	items := make([]storeItem, 0, len(stores))
	for _, st := range stores {
		items = append(items, storeItem{Name: st.Name, DisplayName: st.DisplayName})
	}
	return c.JSON(listStoresResponse{Stores: items})
}

func (s *Server) deleteStore(c *fiber.Ctx) error {
	sess, err := s.sessionFromParams(c)
	if err != nil {
		return fail(c, err)
	}
	var req DeleteStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, err)
	}
	if err := flow.NewManager(s.service(sess)).Delete(c.Context(), sess, req.StoreName); err != nil {
		return fail(c, err)
	}
	return c.JSON(messageResponse{Message: "🗑️ Deleted: " + req.StoreName})
}

func (s *Server) upload(c *fiber.Ctx) error {
	sess, err := s.sessionFromParams(c)
	if err != nil {
		return fail(c, err)
	}

	up := flow.Upload{
		DisplayName: c.FormValue("display_name"),
		Chunking: flow.ChunkingParams{
			MaxTokens:     formInt(c, "max_tokens"),
			OverlapTokens: formInt(c, "overlap_tokens"),
		},
	}
	// A missing file is a flow precondition (after credential and store),
	// so it must not short-circuit here.
	if header, err := c.FormFile("file"); err == nil {
		f, err := header.Open()
		if err != nil {
			return fail(c, err)
		}
		defer f.Close()
		up.File = f
		up.Name = header.Filename
	}

	svc := s.service(sess)
	uploader := flow.NewUploader(svc, func(o *flow.UploaderOptions) {
		o.Poller = s.poller(svc)
		o.Logger = s.logger
	})
	out, errCh := uploader.Run(c.Context(), sess, up)
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fail(c, err)
		}
	default:
	}

	// The multipart body is only readable during this request, so the flow
	// is drained here and the job buffer replays it to the websocket.
	job := s.jobs.Start(func() (<-chan flow.Update, <-chan error) { return out, errCh })
	waitDone(job)
	if done, err := job.state(); done && err != nil {
		return fail(c, err)
	}
	return c.JSON(jobResponse{JobID: job.ID, StoreName: sess.Store()})
}

func (s *Server) ask(c *fiber.Ctx) error {
	sess, err := s.sessionFromParams(c)
	if err != nil {
		return fail(c, err)
	}
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, err)
	}
	asker := flow.NewAsker(s.service(sess), func(o *flow.AskerOptions) {
		o.Model = s.cfg.DefaultModel
		o.Logger = s.logger
	})
	answer, err := asker.Ask(c.Context(), sess, req.Question, req.Model, req.MetadataFilter)
	if err != nil {
		status, msg := userMessage(err)
		return c.Status(status).JSON(askResponse{History: sess.History(), Note: msg})
	}
	return c.JSON(askResponse{
		Answer:    answer.Text,
		Grounding: answer.Grounding,
		History:   answer.History,
		Note:      "✅ Done.",
	})
}

func (s *Server) clearHistory(c *fiber.Ctx) error {
	sess, err := s.sessionFromParams(c)
	if err != nil {
		return fail(c, err)
	}
	sess.ClearHistory()
	return c.JSON(messageResponse{Message: "History cleared."})
}

func formInt(c *fiber.Ctx, key string) int {
	v, err := strconv.Atoi(c.FormValue(key))
	if err != nil {
		return 0
	}
	return v
}

// waitDone blocks until the job finishes. Upload jobs are short-lived
// relative to the request (the body stream bounds them), so the handler
// waits rather than racing the multipart reader.
func waitDone(job *Job) {
	_, live, done, _, cancel := job.subscribe()
	if done {
		return
	}
	defer cancel()
	for range live {
	}
}
