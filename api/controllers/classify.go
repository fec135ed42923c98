package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lastbite-ai/lastbite-backend/api/responses"
	"github.com/lastbite-ai/lastbite-backend/internal/classification"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
)

// ImageField is the multipart field carrying the photo.
const ImageField = "image"

// Classifier labels an uploaded photo.
type Classifier interface {
	Classify(ctx context.Context, img classification.Image) (*classification.Result, error)
}

// Classify reads the multipart image upload and returns the enriched label.
func Classify(svc Classifier, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	maxBytes := int64(maxUploadMB) << 20
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, uploadError(err, maxUploadMB))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile(ImageField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "no image uploaded").
				WithDetails(map[string]any{"field": ImageField}))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, uploadError(err, maxUploadMB))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"filename": header.Filename, "size_bytes": len(data)})
		}
		result, err := svc.Classify(ctx, classification.Image{Data: data, ContentType: header.Header.Get("Content-Type")})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func uploadError(err error, maxUploadMB int) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("image exceeds %d MB", maxUploadMB))
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload")
}
