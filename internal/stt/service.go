// Package stt implements the speech to text passthrough over Whisper.
package stt

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

// MaxUploadBytes is the audio upload size cap.
const MaxUploadBytes = 10 << 20

// allowedExtensions enumerates the audio containers accepted for upload.
// Whisper understands all of them directly, so uploads are passed through
// without local transcoding.
var allowedExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".m4a":  {},
	".ogg":  {},
	".webm": {},
}

var (
	// ErrUnsupportedFormat indicates an upload with a disallowed extension.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrTooLarge indicates an upload exceeding MaxUploadBytes.
	ErrTooLarge = errors.New("audio file exceeds the 10MB limit")
)

// Transcriber is the part of the OpenAI client this service uses.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Service validates uploads and forwards them to the transcription API.
type Service struct {
	ai Transcriber
}

// NewService constructs a Service.
func NewService(ai Transcriber) *Service {
	return &Service{ai: ai}
}

// SupportedExtensions lists the allowed audio extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Transcribe checks extension and size then returns the Whisper transcript.
func (s *Service) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrUnsupportedFormat
	}
	if len(audio) > MaxUploadBytes {
		return "", ErrTooLarge
	}
	return s.ai.Transcribe(ctx, filename, audio)
}
