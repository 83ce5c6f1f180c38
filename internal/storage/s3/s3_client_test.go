package s3_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditocr/internal/config"
	"creditocr/internal/port"
	s3storage "creditocr/internal/storage/s3"
)

type seenRequest struct {
	method      string
	path        string
	contentType string
}

func newFakeS3(t *testing.T) (*httptest.Server, func() []seenRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []seenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		seen = append(seen, seenRequest{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type")})
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			w.Header().Set("ETag", `"abc"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []seenRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]seenRequest(nil), seen...)
	}
}

func newClient(t *testing.T, endpoint string) port.ObjectStorage {
	t.Helper()
	client, err := s3storage.NewS3Client(context.Background(), &config.S3Config{
		Region:    "us-east-1",
		Bucket:    "staging-bucket",
		Endpoint:  endpoint,
		AccessKey: "test-access",
		SecretKey: "test-secret",
	})
	require.NoError(t, err)
	return client
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := s3storage.NewS3Client(context.Background(), &config.S3Config{Region: "us-east-1"})

	assert.ErrorContains(t, err, "bucket is required")
}

func TestS3Client_PutAndDelete(t *testing.T) {
	srv, seen := newFakeS3(t)
	client := newClient(t, srv.URL)
	body := []byte("%PDF-1.4 staged")

	err := client.Put(context.Background(), port.PutObjectInput{
		Key:         "staging/abc/application.pdf",
		Body:        bytes.NewReader(body),
		ContentType: "application/pdf",
		Size:        int64(len(body)),
	})
	require.NoError(t, err)
	require.NoError(t, client.Delete(context.Background(), "staging/abc/application.pdf"))

	requests := seen()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPut, requests[0].method)
	assert.Equal(t, "/staging-bucket/staging/abc/application.pdf", requests[0].path)
	assert.Equal(t, "application/pdf", requests[0].contentType)
	assert.Equal(t, http.MethodDelete, requests[1].method)
	assert.Equal(t, "/staging-bucket/staging/abc/application.pdf", requests[1].path)
}

func TestS3Client_PutFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	client := newClient(t, srv.URL)

	err := client.Put(context.Background(), port.PutObjectInput{
		Key:  "staging/abc/application.pdf",
		Body: strings.NewReader("x"),
		Size: 1,
	})

	assert.ErrorContains(t, err, "s3 put staging/abc/application.pdf")
}

func TestS3Client_PresignGet(t *testing.T) {
	srv, seen := newFakeS3(t)
	client := newClient(t, srv.URL)

	url, err := client.PresignGet(context.Background(), "staging/abc/application.pdf", 900)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, srv.URL+"/staging-bucket/staging/abc/application.pdf?"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Empty(t, seen(), "presigning must not call the endpoint")
}
