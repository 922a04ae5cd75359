package classifier

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// ONNXOracle runs a direction classifier exported to ONNX. The model takes
// a [1, NumFeatures] float32 input and produces one score per label.
type ONNXOracle struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

// NewONNXOracle loads the model at modelPath. The runtime library is taken
// from ORT_SHARED_LIBRARY_PATH when set.
func NewONNXOracle(modelPath, inputName, outputName string) (*ONNXOracle, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("classifier model: %w", err)
	}
	if p := os.Getenv("ORT_SHARED_LIBRARY_PATH"); p != "" {
		ort.SetSharedLibraryPath(p)
	}

	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("failed to init ort: %w", ortInitErr)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	defer options.Destroy()
	options.SetIntraOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{inputName}, []string{outputName}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ONNXOracle{session: session}, nil
}

// Predict runs the model and returns the label with the highest score
func (o *ONNXOracle) Predict(ctx context.Context, f Features) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	input, err := ort.NewTensor(ort.NewShape(1, NumFeatures), f.Float32())
	if err != nil {
		return "", err
	}
	defer input.Destroy()

	labels := Labels()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		return "", err
	}
	defer output.Destroy()

	o.mu.Lock()
	err = o.session.Run([]ort.Value{input}, []ort.Value{output})
	o.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("classifier inference: %w", err)
	}

	return labels[argmax(output.GetData())], nil
}

// Close releases the runtime session
func (o *ONNXOracle) Close() error {
	return o.session.Destroy()
}

func argmax(scores []float32) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}
