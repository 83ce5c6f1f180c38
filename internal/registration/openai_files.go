package registration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"creditocr/internal/domain"
	"creditocr/internal/invoker"
)

// NameOpenAIFiles identifies the OpenAI Files registrar.
const NameOpenAIFiles = "openai_files"

// OpenAIFilesConfig holds configuration for the OpenAI Files registrar.
type OpenAIFilesConfig struct {
	APIKey     string
	BaseURL    string        // Optional (proxies, tests)
	Attempts   uint          // Upload attempts, including the first
	RetryDelay time.Duration // Base delay between attempts
	Timeout    time.Duration
	TempDir    string       // Defaults to os.TempDir()
	HTTPClient *http.Client // Optional (tests)
}

// OpenAIFiles registers documents through the OpenAI Files API and cites them
// by file ID.
type OpenAIFiles struct {
	client     openai.Client
	attempts   uint
	retryDelay time.Duration
	tempDir    string
	log        *slog.Logger
}

// NewOpenAIFiles creates an OpenAI Files registrar.
func NewOpenAIFiles(cfg OpenAIFilesConfig, log *slog.Logger) *OpenAIFiles {
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if log == nil {
		log = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// retry-go owns retries so every attempt rewinds the staged file.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIFiles{
		client:     openai.NewClient(opts...),
		attempts:   cfg.Attempts,
		retryDelay: cfg.RetryDelay,
		tempDir:    cfg.TempDir,
		log:        log,
	}
}

// Register stages doc in a uniquely named temp file and uploads it. The temp
// file is removed before Register returns.
func (r *OpenAIFiles) Register(ctx context.Context, doc *domain.UploadedDocument) (*domain.Registration, error) {
	f, err := r.stage(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: staging document: %v", domain.ErrRegistrationFailed, err)
	}
	defer func() {
		_ = f.Close()
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			r.log.Warn("registration.temp_remove_failed", "path", f.Name(), "error", rmErr)
		}
	}()

	var fileID string
	err = retry.Do(
		func() error {
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return retry.Unrecoverable(err)
			}
			obj, err := r.client.Files.New(ctx, openai.FileNewParams{
				File:    openai.File(f, doc.Filename(), doc.MediaType),
				Purpose: openai.FilePurposeUserData,
			})
			if err != nil {
				return err
			}
			fileID = obj.ID
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			r.log.Warn("registration.upload_retry", "registrar", NameOpenAIFiles, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, registrationError(err)
	}

	r.log.Info("registration.registered", "registrar", NameOpenAIFiles, "file_id", fileID, "size_bytes", doc.SizeBytes)
	return &domain.Registration{
		Reference: fileID,
		Kind:      domain.ReferenceFileID,
		Registrar: NameOpenAIFiles,
		Handle:    fileID,
	}, nil
}

// ReferenceKind reports that registrations are cited by file ID.
func (r *OpenAIFiles) ReferenceKind() domain.ReferenceKind {
	return domain.ReferenceFileID
}

// Release deletes the uploaded file.
func (r *OpenAIFiles) Release(ctx context.Context, reg *domain.Registration) error {
	if _, err := r.client.Files.Delete(ctx, reg.Handle); err != nil {
		return fmt.Errorf("deleting file %s: %w", reg.Handle, err)
	}
	return nil
}

func (r *OpenAIFiles) stage(doc *domain.UploadedDocument) (*os.File, error) {
	name := uuid.NewString() + "-" + safeName(doc.Filename())
	f, err := os.OpenFile(filepath.Join(r.tempDir, name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(doc.Bytes); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}
	return f, nil
}

// safeName reduces a client-supplied name to a single path element.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "document"
	}
	return name
}

func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode == http.StatusRequestTimeout ||
			apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne) || errors.Is(err, io.ErrUnexpectedEOF)
}

// registrationError classifies an upload failure. Every registration failure
// is reported as transient so callers may retry the whole request.
func registrationError(err error) error {
	upstream := invoker.Unavailable(NameOpenAIFiles, err)
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		upstream.StatusCode = apiErr.StatusCode
		if apiErr.StatusCode == http.StatusTooManyRequests && apiErr.Response != nil {
			if secs := invoker.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After")); secs > 0 {
				upstream.RetryAfter = time.Duration(secs) * time.Second
			}
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, upstream)
}
