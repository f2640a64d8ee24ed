// Package product implements the product image analysis and purchase
// recommendation passthroughs over GPT-4o.
package product

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/seein-app/seein-backend/internal/openai"
)

const (
	visionPrompt = `이 이미지 속 문구를 바탕으로 상품명과 브랜드를 추출해서 한국어로 JSON 형태로 알려줘. ` +
		`상품에 대한 간단한 요약 설명도 덧붙여줘. ` +
		`예시: {"상품명": "진라면", "브랜드": "오뚜기", "요약": "매운맛 라면입니다."}`

	recommendPromptFormat = `당신은 소비 조언 전문가입니다. 아래 상품에 대해 사용자가 구매를 고민하고 있습니다. ` +
		`건강, 가격, 유사 제품과 비교 등 다양한 관점에서 분석해 간단한 한국어로 구매 추천 여부를 알려주세요.
추천 여부는 "추천: 살 것 같음" 또는 "추천: 사지 말 것 같음" 중 하나로 시작하고, 이유는 짧게 설명해 주세요.

상품 정보:
- 상품명: %s
- 브랜드: %s
- 요약: %s
`
)

// Completer is the part of the OpenAI client this service uses.
type Completer interface {
	ChatCompletion(ctx context.Context, request openai.ChatRequest) (string, error)
}

// Info holds the structured product fields extracted by the vision stage.
type Info struct {
	Name    string `json:"name"`
	Brand   string `json:"brand"`
	Summary string `json:"summary"`
}

// CombinedResult is the outcome of the two stage analyze-and-recommend
// pipeline. Parse failures are reported in-band rather than as errors.
type CombinedResult struct {
	Success        bool   `json:"success"`
	Product        *Info  `json:"product,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	Error          string `json:"error,omitempty"`
	Raw            string `json:"raw,omitempty"`
	ParsedAttempt  string `json:"parsed_attempt,omitempty"`
}

// Service chains vision extraction and text recommendation calls.
type Service struct {
	logger *slog.Logger
	ai     Completer
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, ai Completer) *Service {
	return &Service{logger: logger, ai: ai}
}

// AnalyzeImage re-encodes the upload to JPEG, sends it through the vision
// prompt once and returns the raw model output.
func (s *Service) AnalyzeImage(ctx context.Context, imageData []byte) (string, error) {
	dataURL, err := jpegDataURL(imageData)
	if err != nil {
		return "", err
	}
	return s.ai.ChatCompletion(ctx, openai.ChatRequest{
		Model: openai.ModelGPT4o,
		Messages: []openai.Message{{
			Role: "user",
			Content: []openai.ContentPart{
				{Type: "text", Text: visionPrompt},
				{Type: "image_url", ImageURL: &openai.ImageURL{URL: dataURL, Detail: "high"}},
			},
		}},
		MaxTokens: 800,
	})
}

// Recommend issues a single text completion with the advisor prompt.
func (s *Service) Recommend(ctx context.Context, name, brand, summary string) (string, error) {
	prompt := fmt.Sprintf(recommendPromptFormat, name, brand, summary)
	reply, err := s.ai.ChatCompletion(ctx, openai.ChatRequest{
		Model:     openai.ModelGPT4o,
		Messages:  []openai.Message{{Role: "user", Content: prompt}},
		MaxTokens: 500,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// AnalyzeAndRecommend runs the vision extraction, parses its JSON output and
// feeds the fields into the recommendation prompt. A vision response that
// cannot be parsed yields a structured failure payload, not an error.
func (s *Service) AnalyzeAndRecommend(ctx context.Context, imageData []byte) (*CombinedResult, error) {
	raw, err := s.AnalyzeImage(ctx, imageData)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	cleaned := stripCodeFences(raw)

	var fields struct {
		Name    string `json:"상품명"`
		Brand   string `json:"브랜드"`
		Summary string `json:"요약"`
	}
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		s.logger.Warn("vision output not parseable", slog.Any("error", err))
		return &CombinedResult{
			Success:       false,
			Error:         "failed to parse product fields",
			Raw:           raw,
			ParsedAttempt: cleaned,
		}, nil
	}
	if fields.Name == "" || fields.Brand == "" {
		return &CombinedResult{
			Success: false,
			Error:   "product name or brand missing",
			Raw:     cleaned,
		}, nil
	}

	recommendation, err := s.Recommend(ctx, fields.Name, fields.Brand, fields.Summary)
	if err != nil {
		return nil, err
	}
	return &CombinedResult{
		Success: true,
		Product: &Info{
			Name:    fields.Name,
			Brand:   fields.Brand,
			Summary: fields.Summary,
		},
		Recommendation: recommendation,
	}, nil
}

var fenceReplacer = strings.NewReplacer("```json", "", "```", "")

func stripCodeFences(s string) string {
	return strings.TrimSpace(fenceReplacer.Replace(s))
}

// jpegDataURL decodes PNG/JPEG/GIF bytes and re-encodes them as a base64
// JPEG data URL, the canonical shape the vision API receives.
func jpegDataURL(imageData []byte) (string, error) {
	decoded, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("product: decode image: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, decoded, &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("product: encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
