// Package receipt implements the OCR plus extraction pipeline for receipt
// images: CLOVA OCR text recognition followed by a schema constrained GPT
// completion.
package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/seein-app/seein-backend/internal/clova"
	"github.com/seein-app/seein-backend/internal/openai"
)

const systemPrompt = "You are a highly accurate assistant specialized in extracting structured information from receipt texts. Always respond in JSON format."

const extractionPromptFormat = `다음은 영수증에서 OCR로 추출된 텍스트입니다.
이 텍스트에서 다음 정보를 추출하여 **반드시 JSON 형식으로** 반환해주세요.
정보를 찾을 수 없는 경우 해당 필드는 **null**로 처리해주세요.

필요한 정보는 다음과 같습니다:
- **상점명 (store_name)**: 영수증 발행 상점의 이름
- **거래 날짜 (transaction_date)**: 거래가 발생한 날짜 (YYYY-MM-DD 형식)
- **거래 시간 (transaction_time)**: 거래가 발생한 시간 (HH:MM 형식)
- **총 결제 금액 (total_amount)**: 최종 결제된 금액 (숫자만, 소수점 가능)
- **결제 항목 (items)**: 구매한 각 항목의 목록. 각 항목은 다음을 포함합니다:
    - **이름 (name)**: 상품 또는 서비스의 이름
    - **가격 (price)**: 해당 항목의 단가 또는 총 가격 (숫자만)
    - **수량 (quantity)**: 해당 항목의 수량 (숫자만). 수량이 불분명하면 1로 가정.
- **결제 수단 (payment_method)**: 사용된 결제 방식 (예: 신용카드, 현금, 페이, 상품권 등)

예시 JSON 형식:
{
    "store_name": "ABC 마트",
    "transaction_date": "2024-07-20",
    "transaction_time": "15:30",
    "total_amount": 25500.0,
    "items": [
        {"name": "바나나", "price": 3000.0, "quantity": 2},
        {"name": "사과", "price": 5000.0, "quantity": 1}
    ],
    "payment_method": "신용카드"
}

영수증 텍스트:
%s`

// Item is one purchased line on the receipt.
type Item struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *float64 `json:"quantity"`
}

// Info is the structured receipt extraction. Fields the model could not find
// are null.
type Info struct {
	StoreName       *string  `json:"store_name"`
	TransactionDate *string  `json:"transaction_date"`
	TransactionTime *string  `json:"transaction_time"`
	TotalAmount     *float64 `json:"total_amount"`
	Items           []Item   `json:"items"`
	PaymentMethod   *string  `json:"payment_method"`
}

// Recognizer is the part of the CLOVA client this service uses.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, format string) (*clova.Response, error)
}

// Completer is the part of the OpenAI client this service uses.
type Completer interface {
	ChatCompletion(ctx context.Context, request openai.ChatRequest) (string, error)
}

// Service chains OCR recognition and GPT extraction.
type Service struct {
	logger *slog.Logger
	ocr    Recognizer
	ai     Completer
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, ocr Recognizer, ai Completer) *Service {
	return &Service{logger: logger, ocr: ocr, ai: ai}
}

// Analyze runs the linear three step pipeline: OCR the image, join the
// recognized text in document order, then extract the receipt fields with a
// JSON constrained completion. No step is retried.
func (s *Service) Analyze(ctx context.Context, image []byte, format string) (*Info, error) {
	ocrResult, err := s.ocr.Recognize(ctx, image, format)
	if err != nil {
		return nil, fmt.Errorf("receipt: ocr stage: %w", err)
	}
	text := ocrResult.JoinedText()

	content, err := s.ai.ChatCompletion(ctx, openai.ChatRequest{
		Model: openai.ModelGPT4o,
		Messages: []openai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(extractionPromptFormat, text)},
		},
		ResponseFormat: &openai.ResponseFormat{Type: "json_object"},
		MaxTokens:      1500,
	})
	if err != nil {
		return nil, fmt.Errorf("receipt: extraction stage: %w", err)
	}

	info := &Info{}
	if err := json.Unmarshal([]byte(content), info); err != nil {
		s.logger.Warn("extraction output not parseable", slog.Any("error", err))
		return nil, fmt.Errorf("receipt: parse extraction response: %w", err)
	}
	return info, nil
}
