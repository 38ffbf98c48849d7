package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// InferenceClient extracts features by calling an NLP inference service that
// serves one classification pipeline per task under <baseURL>/<task>.
type InferenceClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewInferenceClient(baseURL string, logger *slog.Logger) *InferenceClient {
	return &InferenceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type inferenceRequest struct {
	Text string `json:"text"`
}

// classification is the pysentimiento-style analyzer output.
type classification struct {
	Output string             `json:"output"`
	Probas map[string]float64 `json:"probas"`
}

type nerResponse struct {
	Tokens []Token `json:"tokens"`
}

// Extract runs the emotion, sentiment, NER, hate and irony tasks. Hate and
// irony are optional: a failure there is logged and the field left nil.
func (c *InferenceClient) Extract(ctx context.Context, text string) (*FeatureRecord, error) {
	var emo classification
	if err := c.call(ctx, "emotion", text, &emo); err != nil {
		return nil, fmt.Errorf("emotion: %w", err)
	}

	var sent classification
	if err := c.call(ctx, "sentiment", text, &sent); err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}

	var ner nerResponse
	if err := c.call(ctx, "ner", text, &ner); err != nil {
		return nil, fmt.Errorf("ner: %w", err)
	}

	rec := &FeatureRecord{
		Emotion:   renameEmotions(emo.Probas),
		Sentiment: sent.Probas,
		Entities:  MergeEntities(text, ner.Tokens),
	}

	var hate classification
	if err := c.call(ctx, "hate_speech", text, &hate); err != nil {
		c.logger.Warn("hate speech inference failed", "error", err)
	} else {
		rec.Hate = &HateScores{
			Hateful:    hate.Probas["hateful"],
			Targeted:   hate.Probas["targeted"],
			Aggressive: hate.Probas["aggressive"],
		}
	}

	var irony classification
	if err := c.call(ctx, "irony", text, &irony); err != nil {
		c.logger.Warn("irony inference failed", "error", err)
	} else {
		rec.Irony = &IronyScores{
			Ironic:    irony.Probas["ironic"],
			NotIronic: firstOf(irony.Probas, "not ironic", "not_ironic"),
		}
	}

	rec.Normalize()
	return rec, nil
}

func (c *InferenceClient) call(ctx context.Context, task, text string, out any) error {
	body, err := json.Marshal(inferenceRequest{Text: text})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+task, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference error %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// renameEmotions maps the classifier's catch-all "others" label to neutral.
func renameEmotions(probas map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(probas))
	for k, v := range probas {
		if k == "others" {
			k = NeutralEmotion
		}
		out[k] += v
	}
	return out
}

func firstOf(m map[string]float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return 0
}
