package model

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/ecosort/waste-api/internal/apperr"
	"github.com/ecosort/waste-api/internal/config"
)

// Server wraps the ONNX runtime session behind a two-state adapter: Ready
// when the artifact loaded and its signature resolved at startup,
// Unavailable otherwise. A load failure is not fatal to the process; the
// service keeps answering health and metrics while refusing inference.
// All fields are set once during construction and read-only afterwards, so
// concurrent Predict calls share the Server without locking.
type Server struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	modelPath  string
	timeout    time.Duration
	log        *logrus.Logger
}

func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	s := &Server{
		modelPath: cfg.ModelPath,
		timeout:   time.Duration(cfg.PredictTimeoutSec) * time.Second,
		log:       log,
	}
	if err := s.load(); err != nil {
		// The cause stays in the logs; clients only ever see "unavailable".
		log.WithError(err).WithField("model_path", cfg.ModelPath).
			Warn("model not loaded, prediction is unavailable")
	}
	return s
}

func (s *Server) load() error {
	if _, err := os.Stat(s.modelPath); err != nil {
		return errors.Wrap(err, "model artifact missing")
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "initialize onnx runtime")
	}

	inputs, outputs, err := ort.GetInputOutputInfo(s.modelPath)
	if err != nil {
		ort.DestroyEnvironment()
		return errors.Wrap(err, "introspect model signature")
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		ort.DestroyEnvironment()
		return errors.Errorf("model declares %d inputs and %d outputs", len(inputs), len(outputs))
	}
	if len(inputs) > 1 || len(outputs) > 1 {
		// Deliberate tie-break: first declared name wins. Surface the rest
		// so an unexpected multi-tensor signature is visible at startup.
		s.log.WithFields(logrus.Fields{
			"inputs":  tensorNames(inputs),
			"outputs": tensorNames(outputs),
		}).Warn("model declares multiple tensors, using the first of each")
	}

	session, err := ort.NewDynamicAdvancedSession(s.modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		ort.DestroyEnvironment()
		return errors.Wrap(err, "create session")
	}

	s.session = session
	s.inputName = inputs[0].Name
	s.outputName = outputs[0].Name
	s.log.WithFields(logrus.Fields{
		"model_path": s.modelPath,
		"input_key":  s.inputName,
		"output_key": s.outputName,
	}).Info("model loaded")
	return nil
}

func tensorNames(infos []ort.InputOutputInfo) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

// Ready reports whether the model loaded and inference is possible.
func (s *Server) Ready() bool { return s.session != nil }

// Predict runs one synchronous inference over a 1xHxWx3 tensor and returns
// the flat probability vector with the batch dimension stripped. The call
// is bounded by the configured deadline; the runtime itself cannot be
// interrupted, so a timed-out run finishes in the background while the
// caller gets an error.
func (s *Server) Predict(ctx context.Context, input []float32) ([]float32, error) {
	if s.session == nil {
		return nil, apperr.E(apperr.ModelUnavailable, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		probs []float32
		err   error
	}
	done := make(chan result, 1)
	go func() {
		probs, err := s.run(input)
		done <- result{probs, err}
	}()

	select {
	case <-ctx.Done():
		return nil, apperr.E(apperr.InferenceFailed, errors.Wrap(ctx.Err(), "inference deadline"))
	case res := <-done:
		if res.err != nil {
			return nil, apperr.E(apperr.InferenceFailed, res.err)
		}
		return res.probs, nil
	}
}

func (s *Server) run(input []float32) ([]float32, error) {
	shape := ort.NewShape(1, config.InputSize, config.InputSize, 3)
	inputTensor, err := ort.NewTensor(shape, input)
	if err != nil {
		return nil, errors.Wrap(err, "create input tensor")
	}
	defer inputTensor.Destroy()

	// A nil output slot lets the runtime allocate the output tensor, so
	// nothing is shared between concurrent runs.
	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, errors.Wrap(err, "run session")
	}

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer outputTensor.Destroy()

	data := outputTensor.GetData()
	probs := make([]float32, len(data))
	copy(probs, data)
	return probs, nil
}

func (s *Server) Close() {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
		ort.DestroyEnvironment()
	}
}
