package model

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// Metadata is the topology descriptor shipped next to the ONNX graph.
type Metadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// LoadMetadata reads and validates the descriptor at path.
func LoadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if metadata.InputName == "" {
		metadata.InputName = "input"
	}
	if metadata.OutputName == "" {
		metadata.OutputName = "output"
	}

	if err := metadata.Validate(); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// Validate checks the descriptor against the shapes and label order this
// service was built for.
func (m *Metadata) Validate() error {
	if !slices.Equal(m.Classes, LabelNames()) {
		return fmt.Errorf("class order %q does not match label order v%d %q",
			m.Classes, LabelOrderVersion, LabelNames())
	}

	wantIn := []int64{1, InputSize, InputSize, InputChannels}
	if !slices.Equal(m.InputShape, wantIn) {
		return fmt.Errorf("input shape %v, want %v", m.InputShape, wantIn)
	}

	wantOut := []int64{1, NumLabels}
	if !slices.Equal(m.OutputShape, wantOut) {
		return fmt.Errorf("output shape %v, want %v", m.OutputShape, wantOut)
	}

	if m.ImageSize != 0 && m.ImageSize != InputSize {
		return fmt.Errorf("image size %d, want %d", m.ImageSize, InputSize)
	}
	return nil
}
