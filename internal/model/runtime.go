package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/Brownie44l1/skinsense-api/internal/preprocess"
)

const (
	InputSize     = preprocess.InputSize
	InputChannels = preprocess.Channels
)

// Options locates the model artifacts and tunes the ONNX session.
type Options struct {
	Dir            string
	GraphFile      string
	MetadataFile   string
	SharedLibrary  string
	IntraOpThreads int
}

// LoadError reports which artifact prevented the runtime from starting.
type LoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Artifact, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Runtime owns the frozen classifier. The ONNX session is bound to a single
// pair of input/output tensors, so Infer calls are serialized.
type Runtime struct {
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	guard        *exclusive
	logger       *zap.Logger
}

// Load reads the topology descriptor and the ONNX graph, checks that they
// agree, and opens an inference session. It is meant to run once at startup.
func Load(opts Options, logger *zap.Logger) (*Runtime, error) {
	metadataPath := filepath.Join(opts.Dir, opts.MetadataFile)
	graphPath := filepath.Join(opts.Dir, opts.GraphFile)

	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, &LoadError{Artifact: "metadata", Path: metadataPath, Err: err}
	}

	if _, err := os.Stat(graphPath); err != nil {
		return nil, &LoadError{Artifact: "graph", Path: graphPath, Err: err}
	}

	if err := initEnvironment(opts.SharedLibrary); err != nil {
		return nil, &LoadError{Artifact: "onnxruntime", Path: opts.SharedLibrary, Err: err}
	}

	rt, err := newRuntime(graphPath, metadata, opts.IntraOpThreads)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, &LoadError{Artifact: "graph", Path: graphPath, Err: err}
	}
	rt.logger = logger.Named("runtime")

	rt.logger.Info("model loaded",
		zap.String("graph", graphPath),
		zap.Strings("classes", metadata.Classes),
		zap.Int64s("input_shape", metadata.InputShape),
		zap.Int("label_order_version", LabelOrderVersion))

	return rt, nil
}

func initEnvironment(sharedLibrary string) error {
	if sharedLibrary != "" {
		ort.SetSharedLibraryPath(sharedLibrary)
	}
	if ort.IsInitialized() {
		return nil
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func newRuntime(graphPath string, metadata *Metadata, intraOpThreads int) (*Runtime, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(graphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect graph: %w", err)
	}
	if err := checkGraph(inputs, outputs, metadata); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	sessionOptions, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessionOptions.Destroy()

	if intraOpThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(intraOpThreads); err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	session, err := ort.NewAdvancedSession(graphPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		sessionOptions)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Runtime{
		session:      session,
		Metadata:     *metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		guard:        newExclusive(),
	}, nil
}

// checkGraph verifies the graph declares the tensors the descriptor promises.
// A dynamic (-1) dimension is accepted on the batch axis only.
func checkGraph(inputs, outputs []ort.InputOutputInfo, metadata *Metadata) error {
	in, err := findTensor(inputs, metadata.InputName)
	if err != nil {
		return fmt.Errorf("graph input: %w", err)
	}
	if !dimsCompatible(in.Dimensions, metadata.InputShape) {
		return fmt.Errorf("graph input %q has shape %v, descriptor says %v",
			in.Name, in.Dimensions, metadata.InputShape)
	}

	out, err := findTensor(outputs, metadata.OutputName)
	if err != nil {
		return fmt.Errorf("graph output: %w", err)
	}
	if !dimsCompatible(out.Dimensions, metadata.OutputShape) {
		return fmt.Errorf("graph output %q has shape %v, descriptor says %v",
			out.Name, out.Dimensions, metadata.OutputShape)
	}
	return nil
}

func findTensor(infos []ort.InputOutputInfo, name string) (ort.InputOutputInfo, error) {
	for _, info := range infos {
		if info.Name != name {
			continue
		}
		if info.DataType != ort.TensorElementDataTypeFloat {
			return info, fmt.Errorf("tensor %q has element type %v, want float32", name, info.DataType)
		}
		return info, nil
	}
	return ort.InputOutputInfo{}, fmt.Errorf("tensor %q not found", name)
}

func dimsCompatible(declared ort.Shape, want []int64) bool {
	if len(declared) != len(want) {
		return false
	}
	for i, d := range declared {
		if d == want[i] {
			continue
		}
		if i == 0 && d < 0 {
			continue
		}
		return false
	}
	return true
}

// Infer runs the classifier on one batch and returns the per-class
// probabilities in label order.
func (r *Runtime) Infer(ctx context.Context, batch *preprocess.Batch) ([]float32, error) {
	want := len(r.inputTensor.GetData())
	if len(batch.Data) != want {
		return nil, fmt.Errorf("batch has %d values, model expects %d", len(batch.Data), want)
	}

	return r.guard.do(ctx, func() ([]float32, error) {
		copy(r.inputTensor.GetData(), batch.Data)

		if err := r.session.Run(); err != nil {
			return nil, fmt.Errorf("inference failed: %w", err)
		}

		out := r.outputTensor.GetData()
		probs := make([]float32, len(out))
		copy(probs, out)
		return probs, nil
	})
}

// Close waits for any in-flight inference and releases the session.
func (r *Runtime) Close() {
	r.guard.acquire()
	defer r.guard.release()

	if r.inputTensor != nil {
		r.inputTensor.Destroy()
	}
	if r.outputTensor != nil {
		r.outputTensor.Destroy()
	}
	if r.session != nil {
		r.session.Destroy()
	}
	ort.DestroyEnvironment()
}
