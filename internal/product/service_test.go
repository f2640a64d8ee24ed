package product

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seein-app/seein-backend/internal/openai"
)

type stubCompleter struct {
	replies  []string
	err      error
	requests []openai.ChatRequest
}

func (s *stubCompleter) ChatCompletion(ctx context.Context, request openai.ChatRequest) (string, error) {
	s.requests = append(s.requests, request)
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestAnalyzeImageSendsJPEGDataURL(t *testing.T) {
	stub := &stubCompleter{replies: []string{`{"상품명":"진라면","브랜드":"오뚜기","요약":"라면"}`}}
	svc := NewService(testLogger(), stub)

	raw, err := svc.AnalyzeImage(context.Background(), pngBytes(t))
	require.NoError(t, err)
	require.Contains(t, raw, "진라면")

	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	require.Equal(t, openai.ModelGPT4o, req.Model)
	parts, ok := req.Messages[0].Content.([]openai.ContentPart)
	require.True(t, ok)
	require.Len(t, parts, 2)
	require.Equal(t, "image_url", parts[1].Type)
	require.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestAnalyzeImageRejectsNonImage(t *testing.T) {
	svc := NewService(testLogger(), &stubCompleter{replies: []string{"unused"}})

	_, err := svc.AnalyzeImage(context.Background(), []byte("definitely not an image"))
	require.Error(t, err)
}

func TestAnalyzeAndRecommendStripsFences(t *testing.T) {
	stub := &stubCompleter{replies: []string{
		"```json\n{\"상품명\": \"진라면\", \"브랜드\": \"오뚜기\", \"요약\": \"매운맛 라면\"}\n```",
		"추천: 살 것 같음. 가격 대비 괜찮습니다.",
	}}
	svc := NewService(testLogger(), stub)

	result, err := svc.AnalyzeAndRecommend(context.Background(), pngBytes(t))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "진라면", result.Product.Name)
	require.Equal(t, "오뚜기", result.Product.Brand)
	require.Contains(t, result.Recommendation, "추천: 살 것 같음")
	require.Len(t, stub.requests, 2)
}

func TestAnalyzeAndRecommendParseFailureIsPayload(t *testing.T) {
	stub := &stubCompleter{replies: []string{"이미지에서 상품을 찾을 수 없습니다."}}
	svc := NewService(testLogger(), stub)

	result, err := svc.AnalyzeAndRecommend(context.Background(), pngBytes(t))
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "failed to parse product fields", result.Error)
	require.NotEmpty(t, result.Raw)
	// Only the vision call ran.
	require.Len(t, stub.requests, 1)
}

func TestAnalyzeAndRecommendMissingFields(t *testing.T) {
	stub := &stubCompleter{replies: []string{`{"요약": "뭔가 음식"}`}}
	svc := NewService(testLogger(), stub)

	result, err := svc.AnalyzeAndRecommend(context.Background(), pngBytes(t))
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "product name or brand missing", result.Error)
}

func TestAnalyzeAndRecommendUpstreamError(t *testing.T) {
	stub := &stubCompleter{err: errors.New("upstream down")}
	svc := NewService(testLogger(), stub)

	_, err := svc.AnalyzeAndRecommend(context.Background(), pngBytes(t))
	require.Error(t, err)
}

func TestRecommendTrimsReply(t *testing.T) {
	stub := &stubCompleter{replies: []string{"\n  추천: 사지 말 것 같음. 대체품이 저렴합니다.  \n"}}
	svc := NewService(testLogger(), stub)

	reply, err := svc.Recommend(context.Background(), "진라면", "오뚜기", "라면")
	require.NoError(t, err)
	require.Equal(t, "추천: 사지 말 것 같음. 대체품이 저렴합니다.", reply)

	req := stub.requests[0]
	prompt, ok := req.Messages[0].Content.(string)
	require.True(t, ok)
	require.Contains(t, prompt, "진라면")
	require.Contains(t, prompt, "오뚜기")
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripCodeFences(in); got != want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
