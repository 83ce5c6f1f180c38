package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"creditocr/internal/admission"
	"creditocr/internal/domain"
	"creditocr/internal/schema"
)

// MockExtractionService is a mock implementation of extraction.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Extract(ctx context.Context, in admission.Input) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

func (m *MockExtractionService) Schema() *schema.Schema {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*schema.Schema)
}
