package classification

import (
	"context"

	"github.com/lastbite-ai/lastbite-backend/pkg/gemini"
	"github.com/lastbite-ai/lastbite-backend/pkg/vision"
)

// Source names reported with each judgment.
const (
	SourceModel  = "model"
	SourceGemini = "gemini"
)

// Judgment is a gateway's answer for one image.
type Judgment struct {
	Label      string
	State      string
	Confidence float64
	Source     string
}

// Gateway classifies image bytes.
type Gateway interface {
	Name() string
	Classify(ctx context.Context, img Image) (*Judgment, error)
}

// Predictor is the model server client.
type Predictor interface {
	Predict(ctx context.Context, image []byte, contentType string) (*vision.Prediction, error)
}

// ModelGateway classifies through the fruit model server.
type ModelGateway struct {
	client Predictor
}

// NewModelGateway wraps a model server client.
func NewModelGateway(client Predictor) *ModelGateway {
	return &ModelGateway{client: client}
}

func (g *ModelGateway) Name() string { return SourceModel }

func (g *ModelGateway) Classify(ctx context.Context, img Image) (*Judgment, error) {
	pred, err := g.client.Predict(ctx, img.Data, img.ContentType)
	if err != nil {
		return nil, err
	}
	return &Judgment{Label: pred.Fruit, State: pred.State, Confidence: pred.Confidence, Source: SourceModel}, nil
}

// Describer is the Gemini client.
type Describer interface {
	Describe(ctx context.Context, image []byte, mimeType string) (*gemini.Answer, error)
}

// GeminiGateway classifies through a Gemini model.
type GeminiGateway struct {
	client Describer
}

// NewGeminiGateway wraps a Gemini client.
func NewGeminiGateway(client Describer) *GeminiGateway {
	return &GeminiGateway{client: client}
}

func (g *GeminiGateway) Name() string { return SourceGemini }

func (g *GeminiGateway) Classify(ctx context.Context, img Image) (*Judgment, error) {
	ans, err := g.client.Describe(ctx, img.Data, img.ContentType)
	if err != nil {
		return nil, err
	}
	return &Judgment{Label: ans.Label, State: ans.State, Confidence: ans.Confidence, Source: SourceGemini}, nil
}
