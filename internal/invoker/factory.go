package invoker

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"creditocr/internal/port"
)

// ProviderConfig holds settings for a single upstream provider.
type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the provider's API endpoint (proxies, tests).
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// LoggerOrDefault returns the configured logger or slog.Default().
func (c *ProviderConfig) LoggerOrDefault() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// TimeoutOrDefault returns the configured timeout or 120s.
func (c *ProviderConfig) TimeoutOrDefault() time.Duration {
	if c.Timeout <= 0 {
		return 120 * time.Second
	}
	return c.Timeout
}

// ProviderFactory is a function that creates a ModelInvoker from a provider config.
type ProviderFactory func(cfg *ProviderConfig) (port.ModelInvoker, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewInvoker creates a ModelInvoker from a provider config using the registered factory.
func NewInvoker(cfg *ProviderConfig) (port.ModelInvoker, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown upstream provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// Providers lists registered provider names in sorted order.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for n := range providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
