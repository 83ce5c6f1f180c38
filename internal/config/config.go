package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"creditocr/internal/schema"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	CORS       CORSConfig
	Admission  AdmissionConfig
	Extraction ExtractionConfig
	Upstream   UpstreamConfig
	S3         S3Config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// IsProduction reports whether internal error detail must be withheld from callers.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings. "*" allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AdmissionConfig holds document admission policy.
type AdmissionConfig struct {
	AllowedMediaTypes []string `mapstructure:"allowed_media_types"`
	MaxSizeBytes      int64    `mapstructure:"max_size_bytes"`
	PDFOnly           bool     `mapstructure:"pdf_only"`
	MaxPages          int      `mapstructure:"max_pages"`
}

// ExtractionConfig selects the deployment schema.
type ExtractionConfig struct {
	Schema        string `mapstructure:"schema"`
	RawLimitBytes int    `mapstructure:"raw_limit_bytes"`
}

// UpstreamConfig holds settings for the external document-understanding model.
type UpstreamConfig struct {
	Provider             string        `mapstructure:"provider"`
	APIKey               string        `mapstructure:"api_key"`
	Model                string        `mapstructure:"model"`
	BaseURL              string        `mapstructure:"base_url"`
	AttachmentMode       string        `mapstructure:"attachment_mode"`
	Registrar            string        `mapstructure:"registrar"`
	Timeout              time.Duration `mapstructure:"timeout"`
	RegistrationAttempts int           `mapstructure:"registration_attempts"`
	// Fallbacks are tried in order when the primary provider fails.
	Fallbacks []FallbackProvider `mapstructure:"-"`
}

// FallbackProvider is a secondary upstream. Its key and model are read from
// OCR_UPSTREAM_<PROVIDER>_API_KEY and OCR_UPSTREAM_<PROVIDER>_MODEL.
type FallbackProvider struct {
	Provider string
	APIKey   string
	Model    string
}

// Registrar names.
const (
	RegistrarOpenAIFiles = "openai_files"
	RegistrarObjectStore = "object_store"
)

// RegistrarName returns the configured registrar, deriving it from the
// provider when unset.
func (u UpstreamConfig) RegistrarName() string {
	if u.Registrar != "" {
		return u.Registrar
	}
	if u.Provider == "openai" {
		return RegistrarOpenAIFiles
	}
	return RegistrarObjectStore
}

// S3Config holds the staging bucket used by the object_store registrar.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// Load reads configuration from environment variables with the OCR_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OCR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":3000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.allowed_origins", "*")

	// Admission defaults
	v.SetDefault("admission.allowed_media_types", strings.Join([]string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}, ","))
	v.SetDefault("admission.max_size_bytes", 5*1024*1024)
	v.SetDefault("admission.pdf_only", false)
	v.SetDefault("admission.max_pages", 0)

	v.SetDefault("extraction.schema", "legal_business_name")
	v.SetDefault("extraction.raw_limit_bytes", 8192)

	// Upstream defaults
	v.SetDefault("upstream.provider", "openai")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.model", "")
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.attachment_mode", "inline")
	v.SetDefault("upstream.registrar", "")
	v.SetDefault("upstream.timeout", "60s")
	v.SetDefault("upstream.registration_attempts", 3)
	v.SetDefault("upstream.fallback_providers", "")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 900)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "OCR_SERVER_PORT",
		"server.read_timeout":            "OCR_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "OCR_SERVER_WRITE_TIMEOUT",
		"server.environment":             "OCR_SERVER_ENVIRONMENT",
		"log.level":                      "OCR_LOG_LEVEL",
		"log.format":                     "OCR_LOG_FORMAT",
		"cors.allowed_origins":           "OCR_CORS_ALLOWED_ORIGINS",
		"admission.allowed_media_types":  "OCR_ADMISSION_ALLOWED_MEDIA_TYPES",
		"admission.max_size_bytes":       "OCR_ADMISSION_MAX_SIZE_BYTES",
		"admission.pdf_only":             "OCR_ADMISSION_PDF_ONLY",
		"admission.max_pages":            "OCR_ADMISSION_MAX_PAGES",
		"extraction.schema":              "OCR_EXTRACTION_SCHEMA",
		"extraction.raw_limit_bytes":     "OCR_EXTRACTION_RAW_LIMIT_BYTES",
		"upstream.provider":              "OCR_UPSTREAM_PROVIDER",
		"upstream.api_key":               "OCR_UPSTREAM_API_KEY",
		"upstream.model":                 "OCR_UPSTREAM_MODEL",
		"upstream.base_url":              "OCR_UPSTREAM_BASE_URL",
		"upstream.attachment_mode":       "OCR_UPSTREAM_ATTACHMENT_MODE",
		"upstream.registrar":             "OCR_UPSTREAM_REGISTRAR",
		"upstream.timeout":               "OCR_UPSTREAM_TIMEOUT",
		"upstream.registration_attempts": "OCR_UPSTREAM_REGISTRATION_ATTEMPTS",
		"upstream.fallback_providers":    "OCR_UPSTREAM_FALLBACK_PROVIDERS",
		"s3.region":                      "OCR_S3_REGION",
		"s3.bucket":                      "OCR_S3_BUCKET",
		"s3.endpoint":                    "OCR_S3_ENDPOINT",
		"s3.access_key":                  "OCR_S3_ACCESS_KEY",
		"s3.secret_key":                  "OCR_S3_SECRET_KEY",
		"s3.presign_expiry":              "OCR_S3_PRESIGN_EXPIRY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Render/Heroku set PORT. Use it if OCR_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("OCR_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Admission = AdmissionConfig{
		AllowedMediaTypes: splitList(v.GetString("admission.allowed_media_types")),
		MaxSizeBytes:      v.GetInt64("admission.max_size_bytes"),
		PDFOnly:           v.GetBool("admission.pdf_only"),
		MaxPages:          v.GetInt("admission.max_pages"),
	}
	cfg.Extraction = ExtractionConfig{
		Schema:        v.GetString("extraction.schema"),
		RawLimitBytes: v.GetInt("extraction.raw_limit_bytes"),
	}

	// Older deployments only set OPENAI_API_KEY.
	apiKey := v.GetString("upstream.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.Upstream = UpstreamConfig{
		Provider:             strings.ToLower(v.GetString("upstream.provider")),
		APIKey:               apiKey,
		Model:                v.GetString("upstream.model"),
		BaseURL:              v.GetString("upstream.base_url"),
		AttachmentMode:       strings.ToLower(v.GetString("upstream.attachment_mode")),
		Registrar:            v.GetString("upstream.registrar"),
		Timeout:              v.GetDuration("upstream.timeout"),
		RegistrationAttempts: v.GetInt("upstream.registration_attempts"),
	}
	for _, name := range splitList(v.GetString("upstream.fallback_providers")) {
		name = strings.ToLower(name)
		cfg.Upstream.Fallbacks = append(cfg.Upstream.Fallbacks, FallbackProvider{
			Provider: name,
			APIKey:   v.GetString("upstream." + name + ".api_key"),
			Model:    v.GetString("upstream." + name + ".model"),
		})
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with. Provider names
// and reference support are resolved when the invoker is built.
func (c *Config) Validate() error {
	if len(c.Admission.AllowedMediaTypes) == 0 {
		return fmt.Errorf("admission.allowed_media_types must not be empty")
	}
	if c.Admission.MaxSizeBytes <= 0 {
		return fmt.Errorf("admission.max_size_bytes must be positive, got %d", c.Admission.MaxSizeBytes)
	}
	if c.Admission.PDFOnly && !contains(c.Admission.AllowedMediaTypes, "application/pdf") {
		return fmt.Errorf("admission.pdf_only requires application/pdf in allowed_media_types")
	}
	if c.Extraction.Schema == "" {
		return fmt.Errorf("extraction.schema is required")
	}
	if _, err := schema.Lookup(c.Extraction.Schema); err != nil {
		return fmt.Errorf("extraction.schema: %w", err)
	}
	switch c.Upstream.AttachmentMode {
	case "inline":
	case "reference":
		switch c.Upstream.RegistrarName() {
		case RegistrarOpenAIFiles:
		case RegistrarObjectStore:
			if c.S3.Bucket == "" {
				return fmt.Errorf("s3.bucket is required for the %s registrar", RegistrarObjectStore)
			}
		default:
			return fmt.Errorf("unknown upstream.registrar: %s", c.Upstream.Registrar)
		}
	default:
		return fmt.Errorf("unknown upstream.attachment_mode: %s", c.Upstream.AttachmentMode)
	}
	for _, fb := range c.Upstream.Fallbacks {
		if fb.Provider == c.Upstream.Provider {
			return fmt.Errorf("upstream.fallback_providers must not repeat the primary provider %s", fb.Provider)
		}
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return true
		}
	}
	return false
}
