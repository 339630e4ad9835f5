package documents

import (
	"context"
	"io"

	"github.com/docvault/docvault/internal/types"
)

// ObjectStore is the blob-store gateway the service talks to.
// Implemented by internal/storage; mocked in tests.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (handle, url string, err error)
	Delete(ctx context.Context, handle string) error
	Fetch(ctx context.Context, url string) (io.ReadCloser, string, error)
	Host() string
}

// UploadInput carries one multipart file into the service.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DownloadResult is the outcome of a download request. Exactly one of
// Body, RedirectURL or BareURL is set: Body streams proxied provider
// bytes, RedirectURL is the degraded path when the proxy fetch fails,
// BareURL is returned for documents not hosted on the provider.
type DownloadResult struct {
	Document    *types.Document
	Body        io.ReadCloser
	ContentType string
	Inline      bool
	RedirectURL string
	BareURL     string
}

type SummarizeRequest struct {
	Text string `json:"text"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type UpdateSummaryRequest struct {
	Summary string `json:"summary"`
}
