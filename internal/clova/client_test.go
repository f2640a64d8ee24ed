package clova

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "ocr-secret", r.Header.Get("X-OCR-SECRET"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var message requestMessage
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("message")), &message))
		require.Equal(t, "V2", message.Version)
		require.NotEmpty(t, message.RequestID)
		require.NotZero(t, message.Timestamp)
		require.Len(t, message.Images, 1)
		require.Equal(t, "jpg", message.Images[0].Format)
		require.Equal(t, "receipt_image", message.Images[0].Name)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "receipt_image.jpg", header.Filename)

		_, _ = w.Write([]byte(`{"images": [{"fields": [{"inferText": "ABC"}, {"inferText": "마트"}]}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "ocr-secret", 5*time.Second)
	resp, err := client.Recognize(context.Background(), []byte("image bytes"), "jpg")
	require.NoError(t, err)
	require.Equal(t, "ABC 마트", resp.JoinedText())
}

func TestRecognizeStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "invalid secret"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong", 5*time.Second)
	_, err := client.Recognize(context.Background(), []byte("image"), "jpg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestRecognizeEmptyImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"images": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "ocr-secret", 5*time.Second)
	_, err := client.Recognize(context.Background(), []byte("image"), "jpg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no images")
}

func TestJoinedTextEmptyResponse(t *testing.T) {
	var resp Response
	require.Equal(t, "", (&resp).JoinedText())
}
