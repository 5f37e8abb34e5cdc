package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// UploadFile uploads raw bytes to the Files API and returns the file handle.
// The file is not searchable until imported into a store via ImportFile.
func (c *Client) UploadFile(ctx context.Context, r io.Reader, displayName string) (*File, error) {
	meta := struct {
		File struct {
			DisplayName string `json:"displayName,omitempty"`
		} `json:"file"`
	}{}
	meta.File.DisplayName = displayName

	var out struct {
		File File `json:"file"`
	}
	u := fmt.Sprintf("%s/upload/%s/files", c.baseURL, apiVersion)
	if err := c.doMultipart(ctx, u, meta, r, &out); err != nil {
		return nil, err
	}
	return &out.File, nil
}

// UploadToStore uploads raw bytes directly into a file search store and
// indexes them in a single call. cfg may be nil to accept the service's
// default display name and chunking. The returned Operation must be polled
// until done.
func (c *Client) UploadToStore(ctx context.Context, r io.Reader, storeName string, cfg *UploadConfig) (*Operation, error) {
	var meta any
	if cfg != nil {
		meta = cfg
	} else {
		meta = struct{}{}
	}
	var out Operation
	u := fmt.Sprintf("%s/upload/%s/%s:uploadToFileSearchStore", c.baseURL, apiVersion, storeName)
	if err := c.doMultipart(ctx, u, meta, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doMultipart performs a multipart media upload: a JSON metadata part
// followed by the raw media part, per the upload protocol.
func (c *Client) doMultipart(ctx context.Context, url string, meta any, media io.Reader, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return err
	}
	if err := writeJSON(metaPart, meta); err != nil {
		return fmt.Errorf("genai: encode upload metadata: %w", err)
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", "application/octet-stream")
	mediaPart, err := w.CreatePart(mediaHeader)
	if err != nil {
		return err
	}
	if _, err := io.Copy(mediaPart, media); err != nil {
		return fmt.Errorf("genai: read upload media: %w", err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+w.Boundary())
	req.Header.Set("X-Goog-Upload-Protocol", "multipart")
	return c.send(req, out)
}

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
