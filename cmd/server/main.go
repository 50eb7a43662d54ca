package main

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/ecosort/waste-api/internal/config"
	"github.com/ecosort/waste-api/internal/handlers"
	"github.com/ecosort/waste-api/internal/model"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()

	// Model-load failure is deliberately non-fatal: health and the
	// evaluation artifacts stay available while inference reports
	// unavailable.
	modelServer := model.NewServer(cfg, log)
	defer modelServer.Close()

	handler := handlers.NewHandler(modelServer, cfg, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/predict", handler.Predict)
	mux.HandleFunc("/metrics", handler.Metrics)
	mux.HandleFunc("/confusion-matrix", handler.ConfusionMatrix)

	// Frontend origins, matching the dev setup the UI runs under.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{
		"addr":         addr,
		"model_loaded": modelServer.Ready(),
		"classes":      config.ClassNames,
	}).Info("server starting")

	if err := http.ListenAndServe(addr, c.Handler(mux)); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}
