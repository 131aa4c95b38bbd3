package blob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3(t *testing.T, endpoint string) *S3 {
	t.Helper()

	s, err := NewS3(context.Background(), Config{
		AccountName: "AKIDEXAMPLE",
		AccountKey:  "secret",
		Region:      "eu-west-1",
		Endpoint:    endpoint,
		URLExpiry:   time.Hour,
	})
	require.NoError(t, err)
	return s
}

func TestS3ImageURL(t *testing.T) {
	s := newTestS3(t, "http://localhost:9000")

	url, err := s.ImageURL(context.Background(), "images", "42.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/images/42.jpg?"), url)
	assert.Contains(t, url, "X-Amz-Expires=3600")
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestS3Exists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/images/1.jpg" {
			w.Header().Set("Content-Length", "3")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestS3(t, srv.URL)

	ok, err := s.Exists(context.Background(), "images", "1.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(context.Background(), "images", "2.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}
