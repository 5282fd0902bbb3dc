// Package services contains the business logic of the civic report application.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"civicreport/internal/config"
	"civicreport/internal/models"
	"civicreport/internal/observability"
	contextutils "civicreport/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// predictionSchema is what a model response must look like before its top
// label is trusted. Anything else is treated as a classification failure.
const predictionSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["label", "score"],
		"properties": {
			"label": {"type": "string"},
			"score": {"type": "number"}
		}
	}
}`

// prediction is a single model label with its confidence.
type prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifierService calls the inference API for both classification concerns:
// waste labels for submitted photos and suggested categories for issue
// descriptions. Every failure is contained into a sentinel string; callers
// never see an error from classification.
type ClassifierService struct {
	config     *config.ClassifierConfig
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClassifierService creates a classifier against the configured inference API.
func NewClassifierService(cfg *config.ClassifierConfig, logger *observability.Logger) *ClassifierService {
	return &ClassifierService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout.Std(),
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
		logger: logger,
	}
}

// ClassifyImage returns the top label for the photo, "Not Specified" when no
// photo was attached, or "Error in Classification" when the model call fails.
func (s *ClassifierService) ClassifyImage(ctx context.Context, image []byte) string {
	ctx, span := observability.TraceClassifierFunction(ctx, "classify_image", observability.AttributeModel(s.config.ImageModel))
	defer span.End()

	if len(image) == 0 {
		return models.ClassificationNotSpecified
	}

	label, err := s.inferTopLabel(ctx, s.config.ImageModel, "application/octet-stream", bytes.NewReader(image))
	if err != nil {
		s.logger.Warn(ctx, "Image classification failed", map[string]interface{}{
			"model": s.config.ImageModel,
			"error": err.Error(),
		})
		return models.ClassificationError
	}
	return label
}

// SuggestCategory returns the model's top label for the description, or
// "Error in Classification" when the call fails.
func (s *ClassifierService) SuggestCategory(ctx context.Context, description string) string {
	ctx, span := observability.TraceClassifierFunction(ctx, "suggest_category", observability.AttributeModel(s.config.TextModel))
	defer span.End()

	body, err := json.Marshal(map[string]string{"inputs": description})
	if err != nil {
		s.logger.Warn(ctx, "Text classification request encoding failed", map[string]interface{}{"error": err.Error()})
		return models.ClassificationError
	}

	label, err := s.inferTopLabel(ctx, s.config.TextModel, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.Warn(ctx, "Text classification failed", map[string]interface{}{
			"model": s.config.TextModel,
			"error": err.Error(),
		})
		return models.ClassificationError
	}
	return label
}

// inferTopLabel makes a single model call and returns the best-scoring label.
// There is no retry: a cold model or transient failure is a failed
// classification, not a reason to block the submission.
func (s *ClassifierService) inferTopLabel(ctx context.Context, model, contentType string, body io.Reader) (result0 string, err error) {
	url := fmt.Sprintf("%s/models/%s", s.config.Endpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to create inference request")
	}
	req.Header.Set("Content-Type", contentType)
	if s.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrClassifierUnavailable, "inference request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", contextutils.WrapErrorf(contextutils.ErrClassifierRequestFailed, "inference API returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to read inference response")
	}

	predictions, err := decodePredictions(raw)
	if err != nil {
		return "", err
	}

	best := predictions[0]
	for _, p := range predictions[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best.Label, nil
}

// decodePredictions validates and decodes a model response. Text models wrap
// their predictions in an extra array level; that level is peeled off before
// validation.
func decodePredictions(raw []byte) ([]prediction, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil || len(outer) == 0 {
		return nil, contextutils.WrapErrorf(contextutils.ErrClassifierResponseInvalid, "inference response is not a non-empty array")
	}
	list := raw
	if len(outer[0]) > 0 && outer[0][0] == '[' {
		list = outer[0]
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(predictionSchema),
		gojsonschema.NewBytesLoader(list),
	)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to validate inference response")
	}
	if !result.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrClassifierResponseInvalid, "inference response failed schema validation: %v", result.Errors())
	}

	var predictions []prediction
	if err := json.Unmarshal(list, &predictions); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrClassifierResponseInvalid, "failed to decode predictions: %w", err)
	}
	return predictions, nil
}
