package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/heavyhaul/backend/internal/models"
)

// HTTPAdapter talks to a standalone extraction service exposing POST /extract.
type HTTPAdapter struct {
	BaseURL string
	Client  *http.Client
}

type extractRequest struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

func (h HTTPAdapter) ExtractFromText(ctx context.Context, text string) ([]models.ParsedItem, error) {
	return h.extract(ctx, extractRequest{Text: text})
}

func (h HTTPAdapter) ExtractFromImage(ctx context.Context, dataURL string) ([]models.ParsedItem, error) {
	return h.extract(ctx, extractRequest{Image: dataURL})
}

func (h HTTPAdapter) extract(ctx context.Context, payload extractRequest) ([]models.ParsedItem, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 30 * time.Second}
	}
	b, _ := json.Marshal(payload)

	url := strings.TrimRight(h.BaseURL, "/") + "/extract"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("extract service error: %s", resp.Status)
	}

	var r itemsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode extract response: %w", err)
	}
	if r.Items == nil {
		r.Items = []models.ParsedItem{}
	}
	return r.Items, nil
}
