// Package ocr defines the contract for external text recognition and provides
// a Google Document AI implementation.
//
// Text recognition is an opaque external capability from the pipeline's point
// of view: given a decodable image it returns best-effort text, which may be
// empty. The recognition model and its accuracy are out of scope here; the
// pipeline only consumes the resulting string.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"gopkg.in/yaml.v3"

	_ "image/gif" // register formats for MIME sniffing
	_ "image/jpeg"
	_ "image/png"
)

// Engine recognizes text in an encoded image.
type Engine interface {
	RecognizeText(ctx context.Context, image []byte) (string, error)
}

// Config holds the Google Document AI processor settings.
type Config struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`
}

// LoadConfig reads a YAML configuration file:
//
//	project_id: "your-gcp-project-id"
//	location: "us"
//	processor_id: "your-processor-id"
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("config must set project_id, location and processor_id")
	}
	return &cfg, nil
}

// sniffImageMIME determines the MIME type of encoded image bytes.
func sniffImageMIME(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return "image/" + format, nil
}
