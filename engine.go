package dagbok

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Logits is the raw output of one forward pass: flat float32 data plus its
// tensor shape. [1, numClasses] for classification, [1, seqLen, vocabSize]
// for generation.
type Logits struct {
	Data  []float32
	Shape []int64
}

// Engine executes one forward pass over three parallel [1, len] integer
// sequences and returns the logits output. Input buffers are owned by the
// engine only for the duration of the call and reclaimed on every exit path.
type Engine interface {
	Forward(ctx context.Context, ids, mask, extra []int64) (*Logits, error)
	Close() error
}

// onnxEngine runs a loaded ONNX model graph through the local ONNX Runtime.
type onnxEngine struct {
	session *ort.DynamicAdvancedSession
	log     *slog.Logger
}

func newONNXEngine(modelBytes []byte, inputNames []string, o options) (*onnxEngine, error) {
	if len(modelBytes) == 0 {
		return nil, errors.New("empty model data")
	}
	if err := initRuntime(o.libraryPath); err != nil {
		return nil, err
	}

	sessOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "create session options")
	}
	defer sessOpts.Destroy()

	if err := sessOpts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, errors.Wrap(err, "set graph optimization")
	}
	if o.intraThreads > 0 {
		if err := sessOpts.SetIntraOpNumThreads(o.intraThreads); err != nil {
			return nil, errors.Wrap(err, "set intra threads")
		}
	}
	if o.interThreads > 0 {
		if err := sessOpts.SetInterOpNumThreads(o.interThreads); err != nil {
			return nil, errors.Wrap(err, "set inter threads")
		}
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(
		modelBytes,
		inputNames,
		[]string{"logits"},
		sessOpts,
	)
	if err != nil {
		return nil, errors.Wrap(err, "create onnx session")
	}

	return &onnxEngine{session: session, log: o.log}, nil
}

// Forward builds the three input tensors, runs the model once, copies the
// logits out and destroys all engine-owned buffers before returning.
func (e *onnxEngine) Forward(ctx context.Context, ids, mask, extra []int64) (*Logits, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shape := ort.NewShape(1, int64(len(ids)))
	inputs := make([]ort.Value, 0, 3)
	defer func() { e.destroyAll(inputs) }()

	for _, data := range [][]int64{ids, mask, extra} {
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, newError(ErrInference, "create input tensor", err)
		}
		inputs = append(inputs, t)
	}

	outputs := []ort.Value{nil}
	err := e.session.Run(inputs, outputs)
	defer func() { e.destroyAll(outputs) }()
	if err != nil {
		return nil, newError(ErrInference, "forward pass", err)
	}

	if outputs[0] == nil {
		return nil, newError(ErrInference, "forward pass", errors.New("no output tensor"))
	}
	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, newError(ErrInference, "forward pass", errors.New("output is not float32"))
	}

	data := tensor.GetData()
	out := &Logits{
		Data:  make([]float32, len(data)),
		Shape: append([]int64(nil), tensor.GetShape()...),
	}
	copy(out.Data, data)
	return out, nil
}

// destroyAll releases tensors best-effort. Failures are logged and never
// override a primary result or error.
func (e *onnxEngine) destroyAll(values []ort.Value) {
	for _, v := range values {
		if v == nil {
			continue
		}
		if err := v.Destroy(); err != nil {
			e.log.Debug("tensor release failed", "error", err)
		}
	}
}

// Close releases the model session. Safe to call multiple times.
func (e *onnxEngine) Close() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}
