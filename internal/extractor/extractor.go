package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// Extractor turns one raw user message into a FeatureRecord.
type Extractor interface {
	Extract(ctx context.Context, text string) (*FeatureRecord, error)
}

// LLMExtractor asks an OpenAI model for the feature record using a strict
// JSON schema response format.
type LLMExtractor struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewLLMExtractor(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *LLMExtractor {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &LLMExtractor{client: &client, model: model, logger: logger}
}

// llmFeatures is the wire shape the model fills in. Maps are not allowed in
// strict schemas, so emotions travel as a list.
type llmFeatures struct {
	Emotions []struct {
		Label       string  `json:"label" jsonschema:"required"`
		Probability float64 `json:"probability" jsonschema:"required"`
	} `json:"emotions" jsonschema:"required"`
	Sentiment struct {
		Positive float64 `json:"positive" jsonschema:"required"`
		Negative float64 `json:"negative" jsonschema:"required"`
		Neutral  float64 `json:"neutral" jsonschema:"required"`
	} `json:"sentiment" jsonschema:"required"`
	Hate     HateScores  `json:"hate" jsonschema:"required"`
	Irony    IronyScores `json:"irony" jsonschema:"required"`
	Entities struct {
		People []string `json:"people" jsonschema:"required"`
		Places []string `json:"places" jsonschema:"required"`
		Orgs   []string `json:"orgs" jsonschema:"required"`
		Others []string `json:"others" jsonschema:"required"`
	} `json:"entities" jsonschema:"required"`
}

var featureSchema = generateSchema[llmFeatures]()

// Extract classifies text and returns the normalised record.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (*FeatureRecord, error) {
	if e.model == "" {
		return nil, errors.New("llm extractor: model is empty")
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "FeatureRecord",
			Schema:      featureSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Per-message linguistic features"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           e.model,
		MaxOutputTokens: openai.Int(1024),
		Instructions:    openai.String(systemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(fmt.Sprintf(extractionUserPrompt, text), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	e.logger.Debug("extracting features", "text_len", len(text))

	resp, err := e.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("llm extraction: %w", err)
	}

	var out llmFeatures
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		e.logger.Error("failed to parse extraction response", "error", err)
		return nil, fmt.Errorf("parse extraction: %w", err)
	}

	return out.record(), nil
}

func (f llmFeatures) record() *FeatureRecord {
	rec := &FeatureRecord{
		Emotion: make(map[string]float64, len(f.Emotions)),
		Sentiment: map[string]float64{
			Positive: f.Sentiment.Positive,
			Negative: f.Sentiment.Negative,
			Neutral:  f.Sentiment.Neutral,
		},
		Entities: map[Category][]string{
			People: f.Entities.People,
			Places: f.Entities.Places,
			Orgs:   f.Entities.Orgs,
			Others: f.Entities.Others,
		},
	}
	for _, em := range f.Emotions {
		label := strings.ToLower(strings.TrimSpace(em.Label))
		if label == "" {
			continue
		}
		if label == "others" {
			label = NeutralEmotion
		}
		rec.Emotion[label] += em.Probability
	}
	hate, irony := f.Hate, f.Irony
	rec.Hate = &hate
	rec.Irony = &irony
	rec.Normalize()
	return rec
}

// decodeModelJSON unmarshals a model response, tolerating text around the
// JSON object.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("unmarshal extracted JSON: %w", err)
	}
	return nil
}
