package ocr

import (
	"context"
	"fmt"
	"os"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"
)

// DocAI recognizes text through a Google Document AI OCR processor.
// Authentication uses the GOOGLE_APPLICATION_CREDENTIALS environment
// variable. The zero value is not usable; construct with NewDocAI.
type DocAI struct {
	cfg *Config
}

// NewDocAI validates the processor configuration and returns an engine.
func NewDocAI(cfg *Config) (*DocAI, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil Document AI config")
	}
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("Document AI config must set project_id, location and processor_id")
	}
	return &DocAI{cfg: cfg}, nil
}

// RecognizeText sends the image to the configured processor and returns the
// recognized text. An image the service finds no text in yields "".
func (d *DocAI) RecognizeText(ctx context.Context, imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("empty image data")
	}
	mimeType, err := sniffImageMIME(imageData)
	if err != nil {
		return "", fmt.Errorf("image has invalid format: %w", err)
	}

	result, err := d.process(ctx, imageData, mimeType)
	if err != nil {
		return "", err
	}
	return result.GetText(), nil
}

// process sends raw document bytes to Document AI and returns the response
// proto.
func (d *DocAI) process(ctx context.Context, data []byte, mimeType string) (*documentaipb.Document, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", d.cfg.Location)

	client, err := documentai.NewDocumentProcessorClient(
		ctx,
		option.WithEndpoint(endpoint),
		option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		d.cfg.ProjectID, d.cfg.Location, d.cfg.ProcessorID,
	)

	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	return resp.Document, nil
}

// DebugJSON renders a Document AI response as JSON for troubleshooting.
func DebugJSON(docProto *documentaipb.Document) (string, error) {
	data, err := protojson.Marshal(docProto)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	return string(data), nil
}
