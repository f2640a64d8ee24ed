package receipt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/seein-app/seein-backend/internal/clova"
	"github.com/seein-app/seein-backend/internal/openai"
	"github.com/seein-app/seein-backend/internal/receipt"
	_ "github.com/seein-app/seein-backend/testing"
)

type stubRecognizer struct {
	payload string
	err     error
	format  string
}

func (s *stubRecognizer) Recognize(ctx context.Context, image []byte, format string) (*clova.Response, error) {
	s.format = format
	if s.err != nil {
		return nil, s.err
	}
	var resp clova.Response
	if err := json.Unmarshal([]byte(s.payload), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type stubCompleter struct {
	reply string
}

func (s *stubCompleter) ChatCompletion(ctx context.Context, request openai.ChatRequest) (string, error) {
	return s.reply, nil
}

func newReceiptRouter(t *testing.T, ocr receipt.Recognizer, ai receipt.Completer) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := receipt.NewHandler(logger, receipt.NewService(logger, ocr, ai))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func receiptUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAnalyzeReceiptEndpoint(t *testing.T) {
	ocr := &stubRecognizer{payload: `{"images": [{"fields": [{"inferText": "ABC 마트"}]}]}`}
	ai := &stubCompleter{reply: `{"store_name": "ABC 마트", "total_amount": 25500.0, "items": []}`}
	router := newReceiptRouter(t, ocr, ai)

	body, contentType := receiptUpload(t, "receipt.JPEG")
	req := httptest.NewRequest(http.MethodPost, "/analyze-receipt/", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	// Uppercase extension maps to the lowercase API format.
	require.Equal(t, "jpg", ocr.format)

	var info receipt.Info
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &info))
	require.Equal(t, "ABC 마트", *info.StoreName)
	require.Equal(t, 25500.0, *info.TotalAmount)
}

func TestAnalyzeReceiptRejectsUnsupportedFormat(t *testing.T) {
	router := newReceiptRouter(t, &stubRecognizer{}, &stubCompleter{})

	body, contentType := receiptUpload(t, "receipt.gif")
	req := httptest.NewRequest(http.MethodPost, "/analyze-receipt/", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, res.Body.String(), "unsupported image format")
}

func TestAnalyzeReceiptRequiresUpload(t *testing.T) {
	router := newReceiptRouter(t, &stubRecognizer{}, &stubCompleter{})

	req := httptest.NewRequest(http.MethodPost, "/analyze-receipt/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestAnalyzeReceiptUpstreamFailure(t *testing.T) {
	ocr := &stubRecognizer{err: errors.New("ocr timeout")}
	router := newReceiptRouter(t, ocr, &stubCompleter{})

	body, contentType := receiptUpload(t, "receipt.png")
	req := httptest.NewRequest(http.MethodPost, "/analyze-receipt/", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusInternalServerError, res.Code)
	require.Contains(t, res.Body.String(), `"success":false`)
}
