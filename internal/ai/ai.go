package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/heavyhaul/backend/internal/models"
)

// Extractor pulls cargo items out of unstructured content.
type Extractor interface {
	ExtractFromText(ctx context.Context, text string) ([]models.ParsedItem, error)
	ExtractFromImage(ctx context.Context, dataURL string) ([]models.ParsedItem, error)
}

var ErrEmptyResponse = errors.New("empty ai response")

type itemsEnvelope struct {
	Items []models.ParsedItem `json:"items"`
}

// decodeItems accepts {"items": [...]} or a bare array, optionally wrapped
// in a markdown code fence.
func decodeItems(content string) ([]models.ParsedItem, error) {
	content = stripFence(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}
	if strings.HasPrefix(content, "[") {
		var items []models.ParsedItem
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		return items, nil
	}
	var env itemsEnvelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if env.Items == nil {
		env.Items = []models.ParsedItem{}
	}
	return env.Items, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
