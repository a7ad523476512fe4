package textextract

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	vision "google.golang.org/api/vision/v1"
)

// VisionOCRClient performs document OCR through the Cloud Vision API.
// Construct once at process start and pass by reference; it holds no
// request state.
type VisionOCRClient struct {
	svc *vision.Service
}

// NewVisionOCRClient creates a Vision-backed OCR client using Application
// Default Credentials.
func NewVisionOCRClient(ctx context.Context) (*VisionOCRClient, error) {
	svc, err := vision.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return &VisionOCRClient{svc: svc}, nil
}

// Recognize runs full-document text detection on the given bytes. PDFs go
// through the file annotation endpoint, images through image annotation.
func (c *VisionOCRClient) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	if mimeType == "application/pdf" || mimeType == "image/tiff" {
		return c.recognizeFile(ctx, data, mimeType)
	}
	return c.recognizeImage(ctx, data)
}

func (c *VisionOCRClient) recognizeImage(ctx context.Context, data []byte) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(data)},
				Features: []*vision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
			},
		},
	}

	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("vision image annotate: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("vision returned no responses")
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return "", fmt.Errorf("vision image annotate: %s", r.Error.Message)
	}
	if r.FullTextAnnotation == nil {
		return "", nil
	}
	return r.FullTextAnnotation.Text, nil
}

func (c *VisionOCRClient) recognizeFile(ctx context.Context, data []byte, mimeType string) (string, error) {
	req := &vision.BatchAnnotateFilesRequest{
		Requests: []*vision.AnnotateFileRequest{
			{
				InputConfig: &vision.InputConfig{
					Content:  base64.StdEncoding.EncodeToString(data),
					MimeType: mimeType,
				},
				Features: []*vision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
			},
		},
	}

	resp, err := c.svc.Files.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("vision file annotate: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("vision returned no responses")
	}

	var pages []string
	for _, fileResp := range resp.Responses {
		if fileResp.Error != nil {
			return "", fmt.Errorf("vision file annotate: %s", fileResp.Error.Message)
		}
		for _, pageResp := range fileResp.Responses {
			if pageResp.FullTextAnnotation != nil {
				pages = append(pages, pageResp.FullTextAnnotation.Text)
			}
		}
	}
	return strings.Join(pages, "\n"), nil
}
