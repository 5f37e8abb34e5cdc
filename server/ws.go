package server

import (
	"github.com/gofiber/websocket/v2"

	"filesearch/flow"
)

// wsMessage is the envelope streamed to job subscribers: buffered and live
// updates in issuance order, then exactly one terminal done/error message.
type wsMessage struct {
	Type    string       `json:"type"` // "update", "done", "error"
	Update  *flow.Update `json:"update,omitempty"`
	Message string       `json:"message,omitempty"`
}

// streamJob replays a job's update history to the peer and follows the live
// stream until the job finishes, then closes the connection.
func (s *Server) streamJob(c *websocket.Conn) {
	defer c.Close()

	job, ok := s.jobs.Get(c.Params("id"))
	if !ok {
		_ = c.WriteJSON(wsMessage{Type: "error", Message: "unknown job"})
		return
	}

	history, live, done, err, cancel := job.subscribe()
	defer cancel()

	for i := range history {
		if werr := c.WriteJSON(wsMessage{Type: "update", Update: &history[i]}); werr != nil {
			return
		}
	}
	if !done {
		for u := range live {
			u := u
			if werr := c.WriteJSON(wsMessage{Type: "update", Update: &u}); werr != nil {
				return
			}
		}
		done, err = job.state()
	}

	if err != nil {
		_, msg := userMessage(err)
		_ = c.WriteJSON(wsMessage{Type: "error", Message: msg})
		return
	}
	_ = c.WriteJSON(wsMessage{Type: "done"})
}
