package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ecosort/waste-api/internal/apperr"
	"github.com/ecosort/waste-api/internal/config"
	"github.com/ecosort/waste-api/internal/model"
	"github.com/ecosort/waste-api/internal/preprocess"
	"github.com/ecosort/waste-api/internal/upload"
)

// Predictor is the slice of the model server the HTTP layer needs.
type Predictor interface {
	Ready() bool
	Predict(ctx context.Context, input []float32) ([]float32, error)
}

type Handler struct {
	predictor Predictor
	cfg       *config.Config
	log       *logrus.Logger
}

func NewHandler(predictor Predictor, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{
		predictor: predictor,
		cfg:       cfg,
		log:       log,
	}
}

type healthResponse struct {
	Status         string   `json:"status"`
	ModelLoaded    bool     `json:"model_loaded"`
	ModelPath      string   `json:"model_path"`
	Classes        []string `json:"classes"`
	InputImageSize [2]int   `json:"input_image_size"`
}

// Health always succeeds, whether or not the model loaded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	modelPath := h.cfg.ModelPath
	if abs, err := filepath.Abs(modelPath); err == nil {
		modelPath = abs
	}
	respondJSON(w, healthResponse{
		Status:         "running",
		ModelLoaded:    h.predictor.Ready(),
		ModelPath:      modelPath,
		Classes:        config.ClassNames,
		InputImageSize: [2]int{config.InputSize, config.InputSize},
	}, http.StatusOK)
}

// Predict runs the full ingestion pipeline: stream the file part under the
// byte ceiling, validate and normalize the image, invoke the model, rank
// the probabilities. Every failure is reduced to a structured JSON error;
// nothing internal reaches the client.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	part, err := h.imagePart(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer part.Close()

	data, err := upload.ReadAll(part, h.cfg.MaxUploadBytes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	img, err := preprocess.Validate(data, h.cfg.MaxPixels)
	if err != nil {
		h.writeError(w, err)
		return
	}

	probs, err := h.predictor.Predict(r.Context(), preprocess.ToTensor(img))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := model.BuildResponse(probs, config.ClassNames)
	h.log.WithFields(logrus.Fields{
		"predicted_class": resp.PredictedClass,
		"confidence":      resp.Confidence,
		"upload_bytes":    len(data),
	}).Info("prediction served")
	respondJSON(w, resp, http.StatusOK)
}

// imagePart walks the multipart stream to the uploaded file part without
// buffering the whole form, so the byte ceiling applies before anything is
// materialized. The declared MIME type is checked here, ahead of any
// decode attempt.
func (h *Handler) imagePart(r *http.Request) (io.ReadCloser, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, apperr.E(apperr.UnsupportedContentType, err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, apperr.E(apperr.EmptyPayload, nil)
		}
		if err != nil {
			return nil, apperr.E(apperr.InvalidImage, err)
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		if err := checkContentType(part.Header.Get("Content-Type")); err != nil {
			part.Close()
			return nil, err
		}
		return part, nil
	}
}

// checkContentType rejects parts whose declared MIME type is clearly not
// an image. An absent declaration, or the generic octet-stream that curl
// sends by default, falls through to the decoder, which is the real
// validator.
func checkContentType(declared string) error {
	if declared == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return apperr.E(apperr.UnsupportedContentType, err)
	}
	if mediaType == "application/octet-stream" || strings.HasPrefix(mediaType, "image/") {
		return nil
	}
	return apperr.E(apperr.UnsupportedContentType, nil)
}

// Metrics serves the evaluation report generated out of band.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, h.cfg.MetricsPath, "application/json",
		"metrics report not found, run the evaluation first")
}

// ConfusionMatrix serves the confusion-matrix plot generated out of band.
func (h *Handler) ConfusionMatrix(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, h.cfg.ConfusionMatrixPath, "image/png",
		"confusion matrix not found, run the evaluation first")
}

func (h *Handler) serveArtifact(w http.ResponseWriter, path, contentType, missingMsg string) {
	f, err := os.Open(path)
	if err != nil {
		respondError(w, missingMsg, http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		h.log.WithError(err).WithField("path", path).Warn("serving artifact failed")
	}
}

// writeError logs the internal cause and sends only the stable mapped
// message to the client.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).Error("predict request failed")
	} else {
		h.log.WithError(err).Warn("predict request rejected")
	}
	respondError(w, apperr.Message(err), status)
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
