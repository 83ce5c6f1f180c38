package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creditocr/internal/admission"
	"creditocr/internal/config"
	"creditocr/internal/domain"
	"creditocr/internal/extraction"
	"creditocr/internal/handler"
	"creditocr/internal/invoker"
	"creditocr/internal/logging"
	"creditocr/internal/metrics"
	"creditocr/internal/port"
	"creditocr/internal/registration"
	"creditocr/internal/router"
	"creditocr/internal/schema"
	s3storage "creditocr/internal/storage/s3"

	// Register upstream providers.
	_ "creditocr/internal/invoker/claude"
	_ "creditocr/internal/invoker/gemini"
	_ "creditocr/internal/invoker/openai"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New("creditocr", cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	extractionSchema, err := schema.Lookup(cfg.Extraction.Schema)
	if err != nil {
		return err
	}

	modelInvoker, err := buildInvoker(&cfg.Upstream, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize upstream invoker: %w", err)
	}

	mode := domain.AttachmentMode(cfg.Upstream.AttachmentMode)
	var registrar port.DocumentRegistrar
	if mode == domain.AttachmentReference {
		registrar, err = buildRegistrar(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize document registrar: %w", err)
		}
	}

	admitter := admission.NewAdmitter(admission.Policy{
		AllowedMediaTypes: cfg.Admission.AllowedMediaTypes,
		MaxSizeBytes:      cfg.Admission.MaxSizeBytes,
		PDFOnly:           cfg.Admission.PDFOnly,
		MaxPages:          cfg.Admission.MaxPages,
	}, logger)

	extractionSvc, err := extraction.NewService(admitter, extractionSchema, modelInvoker, registrar, extraction.Options{
		AttachmentMode: mode,
		Timeout:        cfg.Upstream.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize extraction service: %w", err)
	}

	m := metrics.New()
	assembler := handler.NewAssembler(handler.AssemblerOptions{
		RawLimit:   cfg.Extraction.RawLimitBytes,
		Production: cfg.Server.IsProduction(),
		Outcomes:   m,
	}, logger)

	extractionH := handler.NewExtractionHandler(extractionSvc, assembler, admitter.Policy().MaxSizeBytes)
	healthH := handler.NewHealthHandler()

	r := router.Setup(logger, m, cfg.CORS.AllowedOrigins, extractionH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.starting",
			"addr", cfg.Server.Port,
			"provider", cfg.Upstream.Provider,
			"schema", extractionSchema.Name,
			"attachment_mode", mode,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server.stopped")
	return nil
}

func buildInvoker(cfg *config.UpstreamConfig, logger *slog.Logger) (port.ModelInvoker, error) {
	primary, err := invoker.NewInvoker(&invoker.ProviderConfig{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	if len(cfg.Fallbacks) == 0 {
		return primary, nil
	}

	invokers := []port.ModelInvoker{primary}
	names := []string{cfg.Provider}
	for _, fb := range cfg.Fallbacks {
		inv, err := invoker.NewInvoker(&invoker.ProviderConfig{
			Provider: fb.Provider,
			APIKey:   fb.APIKey,
			Model:    fb.Model,
			Timeout:  cfg.Timeout,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		invokers = append(invokers, inv)
		names = append(names, fb.Provider)
	}
	return invoker.NewFallbackInvoker(invokers, names, logger), nil
}

func buildRegistrar(cfg *config.Config, logger *slog.Logger) (port.DocumentRegistrar, error) {
	switch cfg.Upstream.RegistrarName() {
	case config.RegistrarOpenAIFiles:
		return registration.NewOpenAIFiles(registration.OpenAIFilesConfig{
			APIKey:   cfg.Upstream.APIKey,
			BaseURL:  cfg.Upstream.BaseURL,
			Attempts: uint(max(cfg.Upstream.RegistrationAttempts, 1)),
			Timeout:  cfg.Upstream.Timeout,
		}, logger), nil
	case config.RegistrarObjectStore:
		storage, err := s3storage.NewS3Client(context.Background(), &cfg.S3)
		if err != nil {
			return nil, err
		}
		return registration.NewObjectStore(storage, cfg.S3.PresignExpiry, logger), nil
	default:
		return nil, fmt.Errorf("unknown registrar: %s", cfg.Upstream.RegistrarName())
	}
}
