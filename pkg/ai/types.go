package ai

import (
	"context"
	"encoding/base64"
	"errors"
)

// ErrEmptyCompletion is returned when the provider answers without any text.
var ErrEmptyCompletion = errors.New("model returned no completion")

// PartType distinguishes the segments of a multi-modal user message.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Image is an inline image payload.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURI encodes the image as a base64 data URI.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Part is one text or image segment of the user message.
type Part struct {
	Type  PartType
	Text  string
	Image *Image
}

// TextPart builds a text segment.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ImagePart builds an image segment.
func ImagePart(image Image) Part {
	return Part{Type: PartImage, Image: &image}
}

// Prompt is a provider-agnostic request made of one system instruction and
// one user message.
type Prompt struct {
	System string
	Parts  []Part
}

// ImageCount reports how many image segments the user message carries.
func (p Prompt) ImageCount() int {
	count := 0
	for _, part := range p.Parts {
		if part.Type == PartImage && part.Image != nil {
			count++
		}
	}
	return count
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the single text completion produced by the model.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Completer describes a hosted multi-modal reasoning model.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
	Model() string
}
