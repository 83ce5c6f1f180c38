package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"creditocr/internal/domain"
)

// MockModelInvoker is a mock implementation of port.ModelInvoker.
type MockModelInvoker struct {
	mock.Mock
}

func (m *MockModelInvoker) Invoke(ctx context.Context, req *domain.ExtractionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockModelInvoker) SupportsReference(k domain.ReferenceKind) bool {
	args := m.Called(k)
	return args.Bool(0)
}

// MockDocumentRegistrar is a mock implementation of port.DocumentRegistrar.
type MockDocumentRegistrar struct {
	mock.Mock
}

func (m *MockDocumentRegistrar) Register(ctx context.Context, doc *domain.UploadedDocument) (*domain.Registration, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registration), args.Error(1)
}

func (m *MockDocumentRegistrar) ReferenceKind() domain.ReferenceKind {
	args := m.Called()
	return args.Get(0).(domain.ReferenceKind)
}

func (m *MockDocumentRegistrar) Release(ctx context.Context, reg *domain.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}
