package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

func validMetadata() Metadata {
	return Metadata{
		InputName:   "input",
		OutputName:  "output",
		InputShape:  []int64{1, 224, 224, 3},
		OutputShape: []int64{1, 5},
		Classes:     []string{"acne", "dark spots", "normal", "puffy eyes", "wrinkles"},
		ImageSize:   224,
	}
}

func writeMetadata(t *testing.T, dir string, metadata any) string {
	t.Helper()
	raw, err := json.Marshal(metadata)
	require.NoError(t, err)
	path := filepath.Join(dir, "model_metadata.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func TestLoadMetadata(t *testing.T) {
	t.Run("valid descriptor", func(t *testing.T) {
		path := writeMetadata(t, t.TempDir(), validMetadata())

		metadata, err := LoadMetadata(path)

		require.NoError(t, err)
		assert.Equal(t, LabelNames(), metadata.Classes)
		assert.Equal(t, "input", metadata.InputName)
	})

	t.Run("defaults tensor names", func(t *testing.T) {
		m := validMetadata()
		m.InputName, m.OutputName = "", ""
		path := writeMetadata(t, t.TempDir(), m)

		metadata, err := LoadMetadata(path)

		require.NoError(t, err)
		assert.Equal(t, "input", metadata.InputName)
		assert.Equal(t, "output", metadata.OutputName)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMetadata(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("corrupt json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model_metadata.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := LoadMetadata(path)
		assert.Error(t, err)
	})
}

func TestMetadataValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Metadata)
	}{
		{name: "class order swapped", mutate: func(m *Metadata) {
			m.Classes[0], m.Classes[1] = m.Classes[1], m.Classes[0]
		}},
		{name: "class missing", mutate: func(m *Metadata) { m.Classes = m.Classes[:4] }},
		{name: "channels first input", mutate: func(m *Metadata) { m.InputShape = []int64{1, 3, 224, 224} }},
		{name: "batch of two", mutate: func(m *Metadata) { m.InputShape = []int64{2, 224, 224, 3} }},
		{name: "wrong output width", mutate: func(m *Metadata) { m.OutputShape = []int64{1, 7} }},
		{name: "wrong image size", mutate: func(m *Metadata) { m.ImageSize = 48 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMetadata()
			tt.mutate(&m)
			assert.Error(t, m.Validate())
		})
	}

	m := validMetadata()
	assert.NoError(t, m.Validate())
}

func TestCheckGraph(t *testing.T) {
	metadata := validMetadata()
	input := ort.InputOutputInfo{
		Name:       "input",
		Dimensions: ort.NewShape(-1, 224, 224, 3),
		DataType:   ort.TensorElementDataTypeFloat,
	}
	output := ort.InputOutputInfo{
		Name:       "output",
		Dimensions: ort.NewShape(-1, 5),
		DataType:   ort.TensorElementDataTypeFloat,
	}

	t.Run("compatible graph", func(t *testing.T) {
		err := checkGraph([]ort.InputOutputInfo{input}, []ort.InputOutputInfo{output}, &metadata)
		assert.NoError(t, err)
	})

	t.Run("missing input name", func(t *testing.T) {
		renamed := input
		renamed.Name = "pixel_values"
		err := checkGraph([]ort.InputOutputInfo{renamed}, []ort.InputOutputInfo{output}, &metadata)
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("spatial mismatch", func(t *testing.T) {
		small := input
		small.Dimensions = ort.NewShape(1, 128, 128, 3)
		err := checkGraph([]ort.InputOutputInfo{small}, []ort.InputOutputInfo{output}, &metadata)
		assert.Error(t, err)
	})

	t.Run("output width mismatch", func(t *testing.T) {
		wide := output
		wide.Dimensions = ort.NewShape(1, 7)
		err := checkGraph([]ort.InputOutputInfo{input}, []ort.InputOutputInfo{wide}, &metadata)
		assert.Error(t, err)
	})

	t.Run("non float input", func(t *testing.T) {
		bytesIn := input
		bytesIn.DataType = ort.TensorElementDataTypeUint8
		err := checkGraph([]ort.InputOutputInfo{bytesIn}, []ort.InputOutputInfo{output}, &metadata)
		assert.ErrorContains(t, err, "element type")
	})
}

func TestDimsCompatible(t *testing.T) {
	assert.True(t, dimsCompatible(ort.NewShape(1, 5), []int64{1, 5}))
	assert.True(t, dimsCompatible(ort.NewShape(-1, 5), []int64{1, 5}))
	assert.False(t, dimsCompatible(ort.NewShape(1, -1), []int64{1, 5}))
	assert.False(t, dimsCompatible(ort.NewShape(1, 5, 1), []int64{1, 5}))
}

func TestLoadFailsWithoutArtifacts(t *testing.T) {
	t.Run("missing metadata", func(t *testing.T) {
		dir := t.TempDir()

		rt, err := Load(Options{Dir: dir, GraphFile: "model.onnx", MetadataFile: "model_metadata.json"}, zap.NewNop())

		assert.Nil(t, rt)
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "metadata", loadErr.Artifact)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing graph", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, validMetadata())

		rt, err := Load(Options{Dir: dir, GraphFile: "model.onnx", MetadataFile: "model_metadata.json"}, zap.NewNop())

		assert.Nil(t, rt)
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "graph", loadErr.Artifact)
	})

	t.Run("mismatched class order", func(t *testing.T) {
		dir := t.TempDir()
		m := validMetadata()
		m.Classes = []string{"wrinkles", "puffy eyes", "normal", "dark spots", "acne"}
		writeMetadata(t, dir, m)

		_, err := Load(Options{Dir: dir, GraphFile: "model.onnx", MetadataFile: "model_metadata.json"}, zap.NewNop())

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.ErrorContains(t, err, "class order")
	})
}
