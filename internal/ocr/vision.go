package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"
)

const documentTextDetection = "DOCUMENT_TEXT_DETECTION"

// VisionExtractor runs document text detection on invoice images and PDFs.
type VisionExtractor struct {
	service  *vision.Service
	logger   *slog.Logger
	maxPages int
}

// NewVisionExtractor authenticates and creates a Vision API client.
func NewVisionExtractor(ctx context.Context, config Config, logger *slog.Logger) (*VisionExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts, err := clientOptions(ctx, config)
	if err != nil {
		return nil, err
	}

	return NewVisionExtractorWithOptions(ctx, config.MaxPDFPages, logger, opts...)
}

// NewVisionExtractorWithOptions creates an extractor from raw client options.
func NewVisionExtractorWithOptions(ctx context.Context, maxPages int, logger *slog.Logger, opts ...option.ClientOption) (*VisionExtractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPages <= 0 || maxPages > MaxInlinePDFPages {
		maxPages = MaxInlinePDFPages
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create vision service: %w", err)
	}

	return &VisionExtractor{service: svc, logger: logger, maxPages: maxPages}, nil
}

func clientOptions(ctx context.Context, config Config) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	switch {
	case config.APIKey != "":
		opts = append(opts, option.WithAPIKey(config.APIKey))
	case config.ServiceAccountPath != "":
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, vision.CloudVisionScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, jwtConfig.TokenSource(ctx))))
	default:
		tokenSource, err := google.DefaultTokenSource(ctx, vision.CloudVisionScope)
		if err != nil {
			return nil, fmt.Errorf("no Vision credentials configured: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	}

	return opts, nil
}

// Extract returns the full text of doc. A service error or an empty result is
// reported as common.ErrOCRFailure.
func (v *VisionExtractor) Extract(ctx context.Context, doc model.Document) (model.OCRPayload, error) {
	v.logger.Info("Sending document to Google Cloud Vision",
		"name", doc.Name,
		"media_type", doc.MediaType,
		"bytes", len(doc.Content))

	var (
		text string
		err  error
	)
	switch doc.MediaType {
	case model.MediaTypePDF:
		text, err = v.annotateFile(ctx, doc)
	case model.MediaTypePNG, model.MediaTypeJPEG:
		text, err = v.annotateImage(ctx, doc)
	default:
		return model.OCRPayload{}, fmt.Errorf("%w: vision cannot read media type %q", common.ErrOCRFailure, doc.MediaType)
	}
	if err != nil {
		return model.OCRPayload{}, err
	}

	if strings.TrimSpace(text) == "" {
		return model.OCRPayload{}, fmt.Errorf("%w: no text found in %s", common.ErrOCRFailure, doc.Name)
	}

	v.logger.Info("Vision extracted text", "name", doc.Name, "chars", len(text))
	return model.NewOCRPayload(text), nil
}

func (v *VisionExtractor) annotateImage(ctx context.Context, doc model.Document) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(doc.Content)},
			Features: []*vision.Feature{{Type: documentTextDetection}},
		}},
	}

	resp, err := v.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: vision request failed: %w", common.ErrOCRFailure, err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("%w: vision returned no responses", common.ErrOCRFailure)
	}

	return imageText(resp.Responses[0])
}

func (v *VisionExtractor) annotateFile(ctx context.Context, doc model.Document) (string, error) {
	// Without explicit pages Vision reads the first MaxInlinePDFPages, which
	// also works for shorter files. Explicit pages must exist in the file.
	var pages []int64
	if v.maxPages < MaxInlinePDFPages {
		pages = make([]int64, v.maxPages)
		for i := range pages {
			pages[i] = int64(i + 1)
		}
	}

	req := &vision.BatchAnnotateFilesRequest{
		Requests: []*vision.AnnotateFileRequest{{
			InputConfig: &vision.InputConfig{
				Content:  base64.StdEncoding.EncodeToString(doc.Content),
				MimeType: model.MediaTypePDF,
			},
			Features: []*vision.Feature{{Type: documentTextDetection}},
			Pages:    pages,
		}},
	}

	resp, err := v.service.Files.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: vision request failed: %w", common.ErrOCRFailure, err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("%w: vision returned no responses", common.ErrOCRFailure)
	}

	file := resp.Responses[0]
	if file.Error != nil && file.Error.Message != "" {
		return "", fmt.Errorf("%w: vision API error: %s", common.ErrOCRFailure, file.Error.Message)
	}

	texts := make([]string, 0, len(file.Responses))
	for _, page := range file.Responses {
		text, err := imageText(page)
		if err != nil {
			return "", err
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	return strings.Join(texts, "\n"), nil
}

func imageText(resp *vision.AnnotateImageResponse) (string, error) {
	if resp == nil {
		return "", nil
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return "", fmt.Errorf("%w: vision API error: %s", common.ErrOCRFailure, resp.Error.Message)
	}
	if resp.FullTextAnnotation == nil {
		return "", nil
	}
	return resp.FullTextAnnotation.Text, nil
}
