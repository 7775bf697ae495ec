package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestVision(t *testing.T, handler http.HandlerFunc) *VisionExtractor {
	t.Helper()
	return newTestVisionWithPages(t, 3, handler)
}

func newTestVisionWithPages(t *testing.T, maxPages int, handler http.HandlerFunc) *VisionExtractor {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	extractor, err := NewVisionExtractorWithOptions(context.Background(), maxPages,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return extractor
}

func TestVisionExtractor_Image(t *testing.T) {
	content := []byte("fake png bytes")

	extractor := newTestVision(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)

		var req struct {
			Requests []struct {
				Image struct {
					Content string `json:"content"`
				} `json:"image"`
				Features []struct {
					Type string `json:"type"`
				} `json:"features"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 1)
		assert.Equal(t, base64.StdEncoding.EncodeToString(content), req.Requests[0].Image.Content)
		assert.Equal(t, "DOCUMENT_TEXT_DETECTION", req.Requests[0].Features[0].Type)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"responses":[{"fullTextAnnotation":{"text":"2x Tomatoes 5kg\nBleach"}}]}`)
	})

	payload, err := extractor.Extract(context.Background(), model.Document{Name: "inv.png", MediaType: model.MediaTypePNG, Content: content})
	require.NoError(t, err)
	assert.Equal(t, model.NewOCRPayload("2x Tomatoes 5kg\nBleach"), payload)
}

func TestVisionExtractor_PDF(t *testing.T) {
	extractor := newTestVision(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/files:annotate", r.URL.Path)

		var req struct {
			Requests []struct {
				InputConfig struct {
					MimeType string `json:"mimeType"`
				} `json:"inputConfig"`
				Pages []int64 `json:"pages"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 1)
		assert.Equal(t, "application/pdf", req.Requests[0].InputConfig.MimeType)
		assert.Equal(t, []int64{1, 2, 3}, req.Requests[0].Pages)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"responses":[{"responses":[
			{"fullTextAnnotation":{"text":"page one"}},
			{},
			{"fullTextAnnotation":{"text":"page two"}}
		]}]}`)
	})

	payload, err := extractor.Extract(context.Background(), model.Document{Name: "inv.pdf", MediaType: model.MediaTypePDF, Content: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "page one\npage two", payload.TextBlocks[0].Text)
}

func TestVisionExtractor_PDFDefaultPagesLeftToVision(t *testing.T) {
	for _, maxPages := range []int{0, MaxInlinePDFPages, 12} {
		extractor := newTestVisionWithPages(t, maxPages, func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Requests []struct {
					Pages []int64 `json:"pages"`
				} `json:"requests"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Requests, 1)
			assert.Empty(t, req.Requests[0].Pages)

			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"responses":[{"responses":[{"fullTextAnnotation":{"text":"only page"}}]}]}`)
		})

		payload, err := extractor.Extract(context.Background(), model.Document{Name: "short.pdf", MediaType: model.MediaTypePDF, Content: []byte("%PDF")})
		require.NoError(t, err)
		assert.Equal(t, "only page", payload.TextBlocks[0].Text)
	}
}

func TestVisionExtractor_Failures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "no text", status: http.StatusOK, body: `{"responses":[{}]}`},
		{name: "blank text", status: http.StatusOK, body: `{"responses":[{"fullTextAnnotation":{"text":"  \n"}}]}`},
		{name: "service reported error", status: http.StatusOK, body: `{"responses":[{"error":{"code":3,"message":"Bad image data."}}]}`},
		{name: "empty response list", status: http.StatusOK, body: `{"responses":[]}`},
		{name: "http failure", status: http.StatusForbidden, body: `{"error":{"code":403,"message":"denied"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := newTestVision(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := extractor.Extract(context.Background(), model.Document{Name: "inv.jpg", MediaType: model.MediaTypeJPEG, Content: []byte("x")})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrOCRFailure)
		})
	}
}

func TestTextFileExtractor(t *testing.T) {
	payload, err := TextFileExtractor{}.Extract(context.Background(), model.Document{Name: "inv.txt", Content: []byte("Силікон 5шт\n")})
	require.NoError(t, err)
	assert.Equal(t, "Силікон 5шт\n", payload.TextBlocks[0].Text)

	_, err = TextFileExtractor{}.Extract(context.Background(), model.Document{Name: "inv.txt", Content: []byte(" \n\t")})
	assert.ErrorIs(t, err, common.ErrOCRFailure)

	_, err = TextFileExtractor{}.Extract(context.Background(), model.Document{Name: "inv.txt", Content: []byte{0xff, 0xfe}})
	assert.ErrorIs(t, err, common.ErrOCRFailure)
}

type stubExtractor struct{ text string }

func (s stubExtractor) Extract(_ context.Context, _ model.Document) (model.OCRPayload, error) {
	return model.NewOCRPayload(s.text), nil
}

func TestRouter(t *testing.T) {
	ctx := context.Background()

	router := NewRouter(stubExtractor{text: "from vision"})
	payload, err := router.Extract(ctx, model.Document{MediaType: model.MediaTypePDF})
	require.NoError(t, err)
	assert.Equal(t, "from vision", payload.TextBlocks[0].Text)

	payload, err = router.Extract(ctx, model.Document{MediaType: model.MediaTypeText, Content: []byte("typed")})
	require.NoError(t, err)
	assert.Equal(t, "typed", payload.TextBlocks[0].Text)

	_, err = router.Extract(ctx, model.Document{MediaType: "application/zip"})
	assert.ErrorIs(t, err, common.ErrOCRFailure)

	textOnly := NewRouter(nil)
	_, err = textOnly.Extract(ctx, model.Document{MediaType: model.MediaTypePNG})
	assert.ErrorIs(t, err, common.ErrOCRFailure)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.APIKey = "k"
	cfg.ServiceAccountPath = "/tmp/sa.json"
	assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)

	cfg = Config{}
	assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)

	cfg = Config{MaxPDFPages: MaxInlinePDFPages + 1}
	assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)
}
