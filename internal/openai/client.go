// Package openai wraps the hosted OpenAI endpoints this backend depends on:
// chat completions (gpt-4o text and vision) and Whisper transcription.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	// ModelGPT4o handles both text and vision prompts.
	ModelGPT4o = "gpt-4o"
	// ModelWhisper1 is the speech to text model.
	ModelWhisper1 = "whisper-1"
)

// Client wraps interactions with the OpenAI API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	observe    func(provider string, err error)
}

// NewClient constructs a new client. baseURL should include the version
// prefix, e.g. https://api.openai.com/v1.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetObserver registers a callback invoked after every outbound call, keyed
// by the provider name "openai".
func (c *Client) SetObserver(fn func(provider string, err error)) {
	c.observe = fn
}

func (c *Client) report(err error) {
	if c.observe != nil {
		c.observe("openai", err)
	}
}

// Message is one chat turn. Content is either a plain string or a slice of
// ContentPart for multimodal prompts.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is one element of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image reference, typically a base64 data URL.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ResponseFormat constrains model output, e.g. {"type": "json_object"}.
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is a chat completion call.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletion performs one chat completion call and returns the first
// choice's message content.
func (c *Client) ChatCompletion(ctx context.Context, request ChatRequest) (string, error) {
	content, err := c.chatCompletion(ctx, request)
	c.report(err)
	return content, err
}

func (c *Client) chatCompletion(ctx context.Context, request ChatRequest) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat/completions", c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai: chat completion returned status %d: %s", resp.StatusCode, truncate(body))
	}
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("openai: decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai: chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends audio bytes to the Whisper transcription endpoint and
// returns the transcript. The filename extension tells the API the container
// format; the audio is passed through unconverted.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	text, err := c.transcribe(ctx, filename, audio)
	c.report(err)
	return text, err
}

func (c *Client) transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", ModelWhisper1); err != nil {
		return "", err
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/audio/transcriptions", c.baseURL), body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: transcription: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai: transcription returned status %d: %s", resp.StatusCode, truncate(respBody))
	}
	var parsed transcriptionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("openai: decode transcription response: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

func truncate(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
