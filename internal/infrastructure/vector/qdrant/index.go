package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

const defaultTopK = 5

// Index searches document chunks over Qdrant's HTTP API. It embeds the query
// text itself, so the retrieval core only ever deals in text.
type Index struct {
	client   *Client
	embedder ports.Embedder
}

func NewIndex(client *Client, embedder ports.Embedder) *Index {
	return &Index{client: client, embedder: embedder}
}

func (i *Index) Search(ctx context.Context, q domain.SemanticQuery) ([]domain.SemanticHit, error) {
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultSemanticTimeout
	}
	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vector, err := i.embedder.EmbedQuery(searchCtx, q.Text)
	if err != nil {
		return nil, classifySearchError("embed query", searchCtx, err)
	}

	topK := q.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	hits, err := i.client.searchPoints(searchCtx, q.Collection, vector, topK, q.Filters)
	if err != nil {
		// An absent collection means "nothing indexed yet", not a fault.
		if errors.Is(err, errCollectionMissing) {
			return []domain.SemanticHit{}, nil
		}
		return nil, classifySearchError("semantic search", searchCtx, err)
	}
	return hits, nil
}

func classifySearchError(operation string, ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrQueryTimeout, operation, err)
	}
	return domain.WrapError(domain.ErrQueryFailure, operation, err)
}

var errCollectionMissing = errors.New("collection missing")

// Client is a minimal Qdrant HTTP client shared by the search index and the
// indexer. Collections are addressed per call; one client serves all corpora.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) searchPoints(
	ctx context.Context,
	collection string,
	vector []float32,
	limit int,
	filters map[string]string,
) ([]domain.SemanticHit, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if len(filters) > 0 {
		must := make([]map[string]any, 0, len(filters))
		for key, value := range filters {
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			})
		}
		reqBody["filter"] = map[string]any{"must": must}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.SemanticHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.SemanticHit{
			Text:     getStringPayload(r.Payload, "text"),
			Source:   getStringPayload(r.Payload, "source"),
			Section:  getStringPayload(r.Payload, "section"),
			Page:     getIntPayload(r.Payload, "page"),
			Distance: cosineDistance(r.Score),
		})
	}
	return out, nil
}

// cosineDistance converts Qdrant's cosine similarity score into the
// dissimilarity the retrieval core ranks by. Scores above 1 (float noise)
// clamp to zero distance.
func cosineDistance(score float64) float64 {
	d := 1 - score
	if d < 0 {
		return 0
	}
	return d
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
