package stt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/seein-app/seein-backend/internal/auth"
	"github.com/seein-app/seein-backend/internal/shared"
	"github.com/seein-app/seein-backend/internal/stt"
	_ "github.com/seein-app/seein-backend/testing"
)

type stubTranscriber struct {
	text string
}

func (s *stubTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	return s.text, nil
}

func newSTTRouter(t *testing.T) (chi.Router, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := auth.NewTokenIssuer("test-secret", time.Hour, 0)
	service := stt.NewService(&stubTranscriber{text: "transcribed speech"})
	handler := stt.NewHandler(logger, service, auth.RequireBearer(issuer), nil)

	token, err := issuer.Issue("speaker@example.com")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/stt", handler.MountRoutes)
	return r, token
}

func audioUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake audio bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestSupportedFormatsIsPublic(t *testing.T) {
	router, _ := newSTTRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/stt/supported-formats", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var payload struct {
		SupportedFormats []string `json:"supported_formats"`
		MaxFileSize      string   `json:"max_file_size"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Contains(t, payload.SupportedFormats, ".wav")
	require.Equal(t, "10MB", payload.MaxFileSize)
}

func TestTranscribeRequiresAuth(t *testing.T) {
	router, _ := newSTTRouter(t)

	body, contentType := audioUpload(t, "memo.wav")
	req := httptest.NewRequest(http.MethodPost, "/stt/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestTranscribeReturnsSubject(t *testing.T) {
	router, token := newSTTRouter(t)

	body, contentType := audioUpload(t, "memo.wav")
	req := httptest.NewRequest(http.MethodPost, "/stt/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var payload struct {
		Transcription string `json:"transcription"`
		Filename      string `json:"filename"`
		User          string `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Equal(t, "transcribed speech", payload.Transcription)
	require.Equal(t, "memo.wav", payload.Filename)
	require.Equal(t, "speaker@example.com", payload.User)
}

func TestTranscribeOversizedBodyGetsSizeMessage(t *testing.T) {
	router, token := newSTTRouter(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "huge.wav")
	require.NoError(t, err)
	_, err = part.Write(make([]byte, 12<<20))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/stt/transcribe", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, res.Body.String(), "10MB limit")
}

func TestQuotaRunsAfterAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := auth.NewTokenIssuer("test-secret", time.Hour, 0)
	service := stt.NewService(&stubTranscriber{text: "ok"})

	var subjects []string
	quotaMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subjects = append(subjects, shared.SubjectFromContext(r.Context()))
			next.ServeHTTP(w, r)
		})
	}
	handler := stt.NewHandler(logger, service, auth.RequireBearer(issuer), quotaMW)

	r := chi.NewRouter()
	r.Route("/stt", handler.MountRoutes)

	token, err := issuer.Issue("speaker@example.com")
	require.NoError(t, err)

	body, contentType := audioUpload(t, "memo.wav")
	req := httptest.NewRequest(http.MethodPost, "/stt/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	// The subject is already in context when the quota sees the request.
	require.Equal(t, []string{"speaker@example.com"}, subjects)

	// The free metadata route never touches the quota.
	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/stt/supported-formats", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, subjects, 1)
}

func TestTranscribeRejectsWrongExtension(t *testing.T) {
	router, token := newSTTRouter(t)

	body, contentType := audioUpload(t, "clip.mp4")
	req := httptest.NewRequest(http.MethodPost, "/stt/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, res.Body.String(), "unsupported file format")
}
