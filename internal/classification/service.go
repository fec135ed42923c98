// Package classification labels produce photos and enriches the label with the matching catalog entry.
package classification

import (
	"context"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lastbite-ai/lastbite-backend/internal/expiry"
	product "github.com/lastbite-ai/lastbite-backend/internal/products"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
)

// DefaultThreshold is the confidence under which the secondary gateway is consulted.
const DefaultThreshold = 0.6

// Image is an uploaded photo. ContentType is sniffed from Data.
type Image struct {
	Data        []byte
	ContentType string
}

// Match is the catalog entry for a label, with the expiry presented to the caller.
type Match struct {
	product.Product
	ExpiryDate     dates.Date  `json:"expiry_date"`
	OriginalExpiry *dates.Date `json:"original_expiry,omitempty"`
}

// Result is the enriched classification of one image.
type Result struct {
	Label        string  `json:"label"`
	State        string  `json:"state"`
	Confidence   float64 `json:"confidence"`
	Source       string  `json:"source"`
	FallbackUsed bool    `json:"fallback_used"`
	Match        *Match  `json:"match"`
}

// NameLookup finds catalog entries by name.
type NameLookup interface {
	FindByName(ctx context.Context, name string) (*product.Product, error)
}

// Observer receives per-gateway outcomes, e.g. for metrics.
type Observer interface {
	ObserveClassification(source, outcome string, duration time.Duration)
}

// Outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeLow      = "low_confidence"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// Config wires a Service.
type Config struct {
	Primary   Gateway
	Secondary Gateway
	Catalog   NameLookup
	Threshold float64
	Observer  Observer
	Logger    *logger.Logger
	Clock     dates.Clock
}

// Service runs the primary gateway, falls back to the secondary one on low confidence or failure,
// then enriches the winning label.
type Service struct {
	primary   Gateway
	secondary Gateway
	catalog   NameLookup
	threshold float64
	observer  Observer
	logg      *logger.Logger
	clock     dates.Clock
}

// NewService validates cfg and builds the service. Secondary and Observer are optional.
func NewService(cfg Config) (*Service, error) {
	if cfg.Primary == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "primary classification gateway required")
	}
	if cfg.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog required")
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "threshold must be within [0,1]")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Clock == nil {
		cfg.Clock = dates.Today
	}
	return &Service{
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		catalog:   cfg.Catalog,
		threshold: cfg.Threshold,
		observer:  cfg.Observer,
		logg:      cfg.Logger,
		clock:     cfg.Clock,
	}, nil
}

// Classify labels the image. A missing image and a payload that is not an image are validation
// errors; gateway failures keep their codes (dependency or timeout).
func (s *Service) Classify(ctx context.Context, img Image) (*Result, error) {
	if len(img.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no image uploaded")
	}
	detected := mimetype.Detect(img.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image could not be decoded").
			WithDetails(map[string]any{"detected_type": detected.String()})
	}
	img.ContentType = detected.String()

	judgment, fallbackUsed, err := s.judge(ctx, img)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Label:        judgment.Label,
		State:        judgment.State,
		Confidence:   judgment.Confidence,
		Source:       judgment.Source,
		FallbackUsed: fallbackUsed,
	}
	if judgment.Label == "" {
		return result, nil
	}

	p, err := s.catalog.FindByName(ctx, judgment.Label)
	if err != nil {
		return nil, err
	}
	if p != nil {
		presented := expiry.Present(p.ExpiryDate, judgment.State, s.clock())
		result.Match = &Match{Product: *p, ExpiryDate: presented.ExpiryDate, OriginalExpiry: presented.OriginalExpiry}
	}
	return result, nil
}

func (s *Service) judge(ctx context.Context, img Image) (*Judgment, bool, error) {
	primary, primaryErr := s.run(ctx, s.primary, img)
	if primaryErr == nil && primary.Confidence >= s.threshold {
		return primary, false, nil
	}
	if s.secondary == nil {
		if primaryErr != nil {
			return nil, false, primaryErr
		}
		return primary, false, nil
	}

	if primaryErr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "gateway", s.primary.Name()), "classify.primary_failed")
	}
	secondary, secondaryErr := s.run(ctx, s.secondary, img)
	switch {
	case secondaryErr == nil && secondary.Label != "":
		return secondary, true, nil
	case primaryErr != nil && secondaryErr != nil:
		return nil, false, primaryErr
	case primaryErr != nil:
		// The secondary answered but saw nothing; report that.
		return secondary, true, nil
	default:
		if secondaryErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "gateway", s.secondary.Name()), "classify.secondary_failed")
		}
		return primary, false, nil
	}
}

func (s *Service) run(ctx context.Context, g Gateway, img Image) (*Judgment, error) {
	start := time.Now()
	j, err := g.Classify(ctx, img)
	if err == nil && j == nil {
		err = pkgerrors.New(pkgerrors.CodeDependency, "classifier returned no judgment").
			WithDetails(map[string]any{"source": g.Name()})
	}
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
	case j.Confidence < s.threshold:
		outcome = OutcomeLow
	}
	if g == s.secondary && err == nil {
		outcome = OutcomeFallback
	}
	if s.observer != nil {
		s.observer.ObserveClassification(g.Name(), outcome, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	j.Label = strings.TrimSpace(j.Label)
	j.State = strings.ToLower(strings.TrimSpace(j.State))
	if j.Source == "" {
		j.Source = g.Name()
	}
	return j, nil
}
