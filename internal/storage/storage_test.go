package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/docvault/docvault/config"
	"github.com/docvault/docvault/internal/types"
)

func TestDisabledStore(t *testing.T) {
	ctx := context.Background()

	// No credentials: construction succeeds but every operation fails fast.
	store, err := New(ctx, appconfig.StorageConfig{
		PublicBaseURL: "https://store.example",
	}, slog.Default())
	require.NoError(t, err)
	assert.False(t, store.Enabled())

	_, _, err = store.Upload(ctx, "key", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, types.ErrStorageFailed)

	err = store.Delete(ctx, "key")
	assert.ErrorIs(t, err, types.ErrStorageFailed)

	_, _, err = store.Fetch(ctx, "https://store.example/key")
	assert.ErrorIs(t, err, types.ErrStorageFailed)
}

func TestHost(t *testing.T) {
	tests := []struct {
		name          string
		publicBaseURL string
		want          string
	}{
		{"WithPath", "https://store.example/upload", "store.example"},
		{"WithPort", "http://localhost:9000", "localhost:9000"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{cfg: appconfig.StorageConfig{PublicBaseURL: tt.publicBaseURL}}
			assert.Equal(t, tt.want, s.Host())
		})
	}
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("PassesCredentialsAndReturnsBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "access", user)
			assert.Equal(t, "secret", pass)
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4"))
		}))
		defer srv.Close()

		s := &Store{
			httpClient: srv.Client(),
			logger:     slog.Default(),
			cfg:        appconfig.StorageConfig{AccessKey: "access", SecretKey: "secret"},
			enabled:    true,
		}

		body, contentType, err := s.Fetch(ctx, srv.URL+"/doc.pdf")
		require.NoError(t, err)
		defer body.Close()

		data, err := io.ReadAll(body)
		assert.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(data))
		assert.Equal(t, "application/pdf", contentType)
	})

	t.Run("UpstreamErrorStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		s := &Store{
			httpClient: srv.Client(),
			logger:     slog.Default(),
			enabled:    true,
		}

		_, _, err := s.Fetch(ctx, srv.URL+"/missing.pdf")
		assert.ErrorIs(t, err, types.ErrStorageFailed)
	})
}
