package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/utils"
)

const extractPrompt = `Extract every cargo item from the content below.
Reply with JSON only, shaped as {"items": [{"id": "", "sku": "", "description": "", "quantity": 1, "length": 0, "width": 0, "height": 0, "weight": 0, "stackable": false}]}.
Lengths, widths and heights are inches. Weight is pounds per unit. Use 0 for anything not stated.`

const columnsPrompt = `Map these spreadsheet headers to cargo fields.
Fields: description, sku, quantity, length, width, height, weight, stackable.
Reply with JSON only, an object from field name to zero-based column index. Omit fields with no matching column.
Headers: `

// OpenAIExtractor calls an OpenAI-compatible chat completions endpoint.
type OpenAIExtractor struct {
	BaseURL   string
	Model     string
	APIKey    string
	MaxTokens int
	Client    *http.Client
}

var (
	cacheMu    sync.Mutex
	cacheStore = map[uint64]cacheEntry{}
	cacheTTL   = 5 * time.Minute
	cacheMax   = 512
)

type cacheEntry struct {
	value string
	exp   time.Time
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", r.RetryAfter)
	}
	return "rate limited"
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

func (a OpenAIExtractor) ExtractFromText(ctx context.Context, text string) ([]models.ParsedItem, error) {
	answer, err := a.complete(ctx, "text:"+text, chatMessage{
		Role:    "user",
		Content: extractPrompt + "\n\n" + text,
	})
	if err != nil {
		return nil, err
	}
	return decodeItems(answer)
}

func (a OpenAIExtractor) ExtractFromImage(ctx context.Context, dataURL string) ([]models.ParsedItem, error) {
	answer, err := a.complete(ctx, "image:"+dataURL, chatMessage{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: extractPrompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		},
	})
	if err != nil {
		return nil, err
	}
	return decodeItems(answer)
}

func (a OpenAIExtractor) MapColumns(ctx context.Context, headers []string) (map[string]int, error) {
	list, _ := json.Marshal(headers)
	answer, err := a.complete(ctx, "columns:"+string(list), chatMessage{
		Role:    "user",
		Content: columnsPrompt + string(list),
	})
	if err != nil {
		return nil, err
	}
	raw := map[string]json.Number{}
	if err := json.Unmarshal([]byte(stripFence(answer)), &raw); err != nil {
		return nil, fmt.Errorf("decode column mapping: %w", err)
	}
	out := make(map[string]int, len(raw))
	for field, n := range raw {
		idx, err := strconv.Atoi(n.String())
		if err != nil || idx < 0 || idx >= len(headers) {
			continue
		}
		out[strings.ToLower(field)] = idx
	}
	return out, nil
}

func (a OpenAIExtractor) complete(ctx context.Context, cacheKey string, message chatMessage) (string, error) {
	if strings.TrimSpace(a.BaseURL) == "" {
		return "", fmt.Errorf("AI_BASE_URL is not set")
	}
	if strings.TrimSpace(a.Model) == "" {
		return "", fmt.Errorf("AI_MODEL is not set")
	}

	key := utils.HashStringToUint64(a.Model + "\x00" + cacheKey)
	if v, ok := cacheGet(key); ok {
		return v, nil
	}

	payload := struct {
		Model          string            `json:"model"`
		Temperature    float64           `json:"temperature"`
		MaxTokens      int               `json:"max_tokens,omitempty"`
		ResponseFormat map[string]string `json:"response_format"`
		Messages       []chatMessage     `json:"messages"`
	}{
		Model:          a.Model,
		MaxTokens:      a.MaxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages:       []chatMessage{message},
	}

	b, _ := json.Marshal(payload)
	url := strings.TrimRight(a.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(a.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+a.APIKey)
	}

	client := a.Client
	if client == nil {
		timeout := 45 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
				timeout = remaining
			}
		}
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("ai request timed out: %w", context.DeadlineExceeded)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("ai request timed out: %w", context.DeadlineExceeded)
		}
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if resp.StatusCode == http.StatusTooManyRequests {
			d := parseRetryAfterHeader(resp.Header.Get("Retry-After"))
			if d == 0 {
				d = extractRetryAfter(errBody)
			}
			return "", RateLimitError{RetryAfter: d}
		}
		return "", fmt.Errorf("ai http error: %s: %v", resp.Status, errBody)
	}

	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	answer := res.Choices[0].Message.Content
	cacheSet(key, answer)
	return answer, nil
}

func cacheGet(key uint64) (string, bool) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if e, ok := cacheStore[key]; ok {
		if time.Now().Before(e.exp) {
			return e.value, true
		}
		delete(cacheStore, key)
	}
	return "", false
}

// cacheSet drops expired entries before inserting and, when the cache is
// still full, the entry closest to expiry.
func cacheSet(key uint64, value string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	now := time.Now()
	if _, ok := cacheStore[key]; !ok && len(cacheStore) >= cacheMax {
		var (
			oldest    uint64
			oldestExp time.Time
		)
		for k, e := range cacheStore {
			if !now.Before(e.exp) {
				delete(cacheStore, k)
				continue
			}
			if oldestExp.IsZero() || e.exp.Before(oldestExp) {
				oldest, oldestExp = k, e.exp
			}
		}
		if len(cacheStore) >= cacheMax {
			delete(cacheStore, oldest)
		}
	}
	cacheStore[key] = cacheEntry{
		value: value,
		exp:   now.Add(cacheTTL),
	}
}

func parseRetryAfterHeader(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func extractRetryAfter(errBody map[string]any) time.Duration {
	errObj, ok := errBody["error"].(map[string]any)
	if !ok {
		return 0
	}
	details, ok := errObj["details"].([]any)
	if !ok {
		return 0
	}
	for _, d := range details {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := m["@type"].(string); ok && strings.Contains(t, "RetryInfo") {
			if s, ok := m["retryDelay"].(string); ok {
				if dur, err := time.ParseDuration(s); err == nil {
					return dur
				}
			}
		}
	}
	return 0
}
