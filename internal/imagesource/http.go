package imagesource

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
)

// maxImageResponse caps the body read from a remote image endpoint.
const maxImageResponse = 32 * 1024 * 1024

// HTTPSource fetches each frame with a POST to a remote endpoint answering
// {"image": "<base64>"}.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource returns a source polling url. A nil client uses a client
// with a 5 second timeout.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{url: url, client: client}
}

// HasNextImage always reports true; a remote endpoint is never exhausted.
func (s *HTTPSource) HasNextImage() bool { return true }

// NextImage requests and decodes one frame.
func (s *HTTPSource) NextImage(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image endpoint returned %s", resp.Status)
	}

	var payload struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxImageResponse)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode image response: %w", err)
	}
	if payload.Image == "" {
		return nil, ErrNoImage
	}
	raw, err := base64.StdEncoding.DecodeString(payload.Image)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
