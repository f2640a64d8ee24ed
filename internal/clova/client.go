// Package clova wraps the Naver CLOVA OCR API.
package clova

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

	"github.com/google/uuid"
)

// Client wraps interactions with the CLOVA OCR invoke endpoint.
type Client struct {
	endpoint   string
	secret     string
	httpClient *http.Client
	observe    func(provider string, err error)
}

// NewClient constructs a new client for the given invoke URL and secret key.
func NewClient(endpoint, secret string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		secret:   secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetObserver registers a callback invoked after every outbound call, keyed
// by the provider name "clova".
func (c *Client) SetObserver(fn func(provider string, err error)) {
	c.observe = fn
}

func (c *Client) report(err error) {
	if c.observe != nil {
		c.observe("clova", err)
	}
}

type requestImage struct {
	Format string `json:"format"`
	Name   string `json:"name"`
}

type requestMessage struct {
	Images    []requestImage `json:"images"`
	RequestID string         `json:"requestId"`
	Version   string         `json:"version"`
	Timestamp int64          `json:"timestamp"`
}

// Response is the OCR API response, reduced to the fields this backend reads.
type Response struct {
	Images []struct {
		Fields []struct {
			InferText string `json:"inferText"`
		} `json:"fields"`
	} `json:"images"`
}

// JoinedText concatenates every recognized text field in document order,
// separated by single spaces.
func (r *Response) JoinedText() string {
	var texts []string
	for _, image := range r.Images {
		for _, field := range image.Fields {
			texts = append(texts, field.InferText)
		}
	}
	return strings.Join(texts, " ")
}

// Recognize submits image bytes for OCR. format is the image container name
// the API expects, e.g. "jpg" or "png".
func (c *Client) Recognize(ctx context.Context, image []byte, format string) (*Response, error) {
	resp, err := c.recognize(ctx, image, format)
	c.report(err)
	return resp, err
}

func (c *Client) recognize(ctx context.Context, image []byte, format string) (*Response, error) {
	message := requestMessage{
		Images:    []requestImage{{Format: format, Name: "receipt_image"}},
		RequestID: uuid.NewString(),
		Version:   "V2",
		Timestamp: time.Now().UnixMilli(),
	}
	messageJSON, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("message", string(messageJSON)); err != nil {
		return nil, err
	}
	part, err := writer.CreateFormFile("file", "receipt_image."+format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-OCR-SECRET", c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clova: ocr request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("clova: ocr returned status %d: %s", resp.StatusCode, truncate(respBody))
	}
	var parsed Response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("clova: decode ocr response: %w", err)
	}
	if len(parsed.Images) == 0 {
		return nil, fmt.Errorf("clova: ocr response contains no images")
	}
	return &parsed, nil
}

func truncate(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
