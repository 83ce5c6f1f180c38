package invoker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"creditocr/internal/domain"
	"creditocr/internal/invoker"
	"creditocr/internal/port"
)

func TestFactory_RegisterAndCreate(t *testing.T) {
	invoker.RegisterProvider("test-provider", func(cfg *invoker.ProviderConfig) (port.ModelInvoker, error) {
		return &stubInvoker{model: cfg.Model}, nil
	})

	inv, err := invoker.NewInvoker(&invoker.ProviderConfig{
		Provider: "test-provider",
		Model:    "test-model",
	})

	assert.NoError(t, err)
	assert.Equal(t, "test-model", inv.(*stubInvoker).model)
	assert.Contains(t, invoker.Providers(), "test-provider")
}

func TestFactory_UnknownProvider(t *testing.T) {
	inv, err := invoker.NewInvoker(&invoker.ProviderConfig{
		Provider: "nonexistent-provider-xyz",
	})

	assert.Nil(t, inv)
	assert.ErrorContains(t, err, "unknown upstream provider")
}

func TestProviderConfig_TimeoutOrDefault(t *testing.T) {
	assert.Equal(t, "2m0s", (&invoker.ProviderConfig{}).TimeoutOrDefault().String())
	assert.Equal(t, "5s", (&invoker.ProviderConfig{Timeout: 5e9}).TimeoutOrDefault().String())
}

// stubInvoker is a minimal ModelInvoker for testing the factory.
type stubInvoker struct {
	model string
}

func (s *stubInvoker) Invoke(context.Context, *domain.ExtractionRequest) (string, error) {
	return "{}", nil
}

func (s *stubInvoker) SupportsReference(domain.ReferenceKind) bool {
	return false
}
