// Package gemini asks a Gemini model to identify produce in a photo.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"google.golang.org/genai"
)

const (
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 15 * time.Second

	prompt = `Identify the single food item in this photo.
Answer with JSON: {"label": short common name in English, "state": "fresh" or "rotten", "confidence": number between 0 and 1}.
Use an empty label when no food item is visible.`
)

var errAPIKeyRequired = errors.New("gemini api key is required")

// Generator is the subset of the genai models service used here.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client wraps a Gemini model for image labelling.
type Client struct {
	gen     Generator
	model   string
	timeout time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if m := strings.TrimSpace(model); m != "" {
			c.model = m
		}
	}
}

// WithTimeout bounds every call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithGenerator replaces the genai backend, e.g. in tests.
func WithGenerator(gen Generator) Option {
	return func(c *Client) {
		if gen != nil {
			c.gen = gen
		}
	}
}

// NewClient builds a Gemini client for the Gemini API backend.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{model: defaultModel, timeout: defaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.gen != nil {
		return c, nil
	}

	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gemini client")
	}
	c.gen = gc.Models
	return c, nil
}

// Answer is the model's label for one image.
type Answer struct {
	Label      string  `json:"label"`
	State      string  `json:"state"`
	Confidence float64 `json:"confidence"`
}

var answerSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"label":      {Type: genai.TypeString},
		"state":      {Type: genai.TypeString, Enum: []string{"fresh", "rotten"}},
		"confidence": {Type: genai.TypeNumber},
	},
	Required: []string{"label", "state"},
}

// Describe asks the model what the image shows.
func (c *Client) Describe(ctx context.Context, image []byte, mimeType string) (*Answer, error) {
	if c == nil || c.gen == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gemini client not configured")
	}
	if len(image) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   answerSchema,
	}

	resp, err := c.gen.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamTimeout, err, "gemini timed out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gemini generate content")
	}
	if resp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gemini returned no response")
	}

	text := strings.TrimSpace(resp.Text())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")

	var ans Answer
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &ans); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gemini answer")
	}
	ans.Label = strings.TrimSpace(ans.Label)
	ans.State = strings.ToLower(strings.TrimSpace(ans.State))
	if ans.Confidence < 0 || ans.Confidence > 1 {
		ans.Confidence = 0
	}
	return &ans, nil
}
