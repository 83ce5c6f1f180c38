package invoker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"creditocr/internal/domain"
	"creditocr/internal/invoker"
	"creditocr/internal/port"
	"creditocr/mocks"
)

func inlineRequest() *domain.ExtractionRequest {
	return &domain.ExtractionRequest{
		Instructions: "extract",
		Attachment: domain.Attachment{
			Mode:      domain.AttachmentInline,
			MediaType: domain.MediaTypePDF,
			Inline:    "data:application/pdf;base64,JVBERi0=",
		},
	}
}

func TestFallbackInvoker_FirstSucceeds(t *testing.T) {
	p1 := new(mocks.MockModelInvoker)
	p2 := new(mocks.MockModelInvoker)
	req := inlineRequest()
	p1.On("Invoke", mock.Anything, req).Return(`{"legal_business_name":"Acme"}`, nil)

	fi := invoker.NewFallbackInvoker([]port.ModelInvoker{p1, p2}, []string{"openai", "claude"}, nil)

	out, err := fi.Invoke(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, `{"legal_business_name":"Acme"}`, out)
	p2.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestFallbackInvoker_UnavailableThenSuccess(t *testing.T) {
	p1 := new(mocks.MockModelInvoker)
	p2 := new(mocks.MockModelInvoker)
	req := inlineRequest()
	p1.On("Invoke", mock.Anything, req).Return("", invoker.Unavailable("openai", errors.New("503")))
	p2.On("Invoke", mock.Anything, req).Return("ok", nil)

	fi := invoker.NewFallbackInvoker([]port.ModelInvoker{p1, p2}, []string{"openai", "claude"}, nil)

	out, err := fi.Invoke(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestFallbackInvoker_AllFail(t *testing.T) {
	p1 := new(mocks.MockModelInvoker)
	p2 := new(mocks.MockModelInvoker)
	req := inlineRequest()
	p1.On("Invoke", mock.Anything, req).Return("", invoker.Unavailable("openai", errors.New("503")))
	p2.On("Invoke", mock.Anything, req).Return("", invoker.Rejected("claude", "bad request"))

	fi := invoker.NewFallbackInvoker([]port.ModelInvoker{p1, p2}, []string{"openai", "claude"}, nil)

	_, err := fi.Invoke(context.Background(), req)

	assert.ErrorContains(t, err, "all upstream providers failed")
	assert.ErrorIs(t, err, domain.ErrUpstreamRejected)
}

func TestFallbackInvoker_LocalErrorStops(t *testing.T) {
	p1 := new(mocks.MockModelInvoker)
	p2 := new(mocks.MockModelInvoker)
	req := inlineRequest()
	p1.On("Invoke", mock.Anything, req).Return("", domain.ErrInvalidAttachment)

	fi := invoker.NewFallbackInvoker([]port.ModelInvoker{p1, p2}, []string{"openai", "claude"}, nil)

	_, err := fi.Invoke(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrInvalidAttachment)
	p2.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestFallbackInvoker_StopsWhenDeadlineSpent(t *testing.T) {
	p1 := new(mocks.MockModelInvoker)
	p2 := new(mocks.MockModelInvoker)
	ctx, cancel := context.WithCancel(context.Background())
	req := inlineRequest()
	p1.On("Invoke", mock.Anything, req).
		Run(func(mock.Arguments) { cancel() }).
		Return("", invoker.Unavailable("openai", context.Canceled))

	fi := invoker.NewFallbackInvoker([]port.ModelInvoker{p1, p2}, []string{"openai", "claude"}, nil)

	_, err := fi.Invoke(ctx, req)

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	p2.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestFallbackInvoker_NoProviders(t *testing.T) {
	fi := invoker.NewFallbackInvoker(nil, nil, nil)

	_, err := fi.Invoke(context.Background(), inlineRequest())

	assert.ErrorContains(t, err, "no upstream providers configured")
	assert.False(t, fi.SupportsReference(domain.ReferenceURL))
}

func TestFallbackInvoker_SupportsReference(t *testing.T) {
	p1 := new(mocks.MockModelInvoker)
	p2 := new(mocks.MockModelInvoker)
	p1.On("SupportsReference", domain.ReferenceURL).Return(true)
	p2.On("SupportsReference", domain.ReferenceURL).Return(false)

	fi := invoker.NewFallbackInvoker([]port.ModelInvoker{p1, p2}, []string{"claude", "gemini"}, nil)

	assert.False(t, fi.SupportsReference(domain.ReferenceURL))
}
