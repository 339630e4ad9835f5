package documents

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/app/observability"
	"github.com/docvault/docvault/internal/types"
)

// rawResourceMarker tells the provider to serve unprocessed bytes
// instead of attempting an image transformation on a PDF.
const rawResourceMarker = "resource_type=raw"

var _ DocumentService = (*DocumentServiceImpl)(nil)

type DocumentService interface {
	Upload(ctx context.Context, owner *types.User, in *UploadInput) (*types.Document, error)
	List(ctx context.Context, ownerID string) ([]types.Document, error)
	Get(ctx context.Context, ownerID, documentID string) (*types.Document, error)
	Download(ctx context.Context, ownerID, documentID string) (*DownloadResult, error)
	UpdateSummary(ctx context.Context, ownerID, documentID, summary string) error
	Summarize(text string) (string, error)
}

type DocumentServiceImpl struct {
	repo   DocumentRepo
	store  ObjectStore
	logger *slog.Logger
}

func NewDocumentService(repo DocumentRepo, store ObjectStore, logger *slog.Logger) *DocumentServiceImpl {
	return &DocumentServiceImpl{
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

// Upload runs the two-phase store-then-register sequence: the blob
// goes to the object store first, and only then does the registry row
// get written. A failed registry write triggers exactly one
// compensating delete of the blob before the error surfaces.
func (s *DocumentServiceImpl) Upload(ctx context.Context, owner *types.User, in *UploadInput) (*types.Document, error) {
	if owner == nil {
		return nil, fmt.Errorf("no authenticated identity: %w", types.ErrUnauthenticated)
	}
	if in == nil || in.FileName == "" || in.Body == nil {
		return nil, fmt.Errorf("no file uploaded: %w", types.ErrBadRequest)
	}

	start := time.Now()
	m := observability.Metrics()
	m.UploadsTotal.Add(ctx, 1)

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.FileName), "."))
	key := fmt.Sprintf("user_files/%s/%s.%s", sanitizeIdentityKey(owner.Email), uuid.NewString(), ext)

	contentType := in.ContentType
	// PDFs must be stored as raw binary; the provider would otherwise
	// try to process them as images.
	if ext == "pdf" {
		contentType = "application/pdf"
	}

	handle, blobURL, err := s.store.Upload(ctx, key, contentType, in.Body)
	if err != nil {
		s.logger.ErrorContext(ctx, "Blob upload failed", slog.Any("error", err))
		return nil, err
	}

	doc := &types.Document{
		OwnerID:       owner.ID,
		Name:          in.FileName,
		URL:           blobURL,
		StorageHandle: handle,
		FileType:      ext,
	}

	created, err := s.repo.Insert(ctx, doc)
	if err != nil {
		// Roll back the already-stored blob so it doesn't orphan.
		if delErr := s.store.Delete(ctx, handle); delErr != nil {
			s.logger.ErrorContext(ctx, "Compensating blob delete failed",
				slog.String("handle", handle), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("%v: %w", err, types.ErrPersistenceFailed)
	}

	m.UploadBytesTotal.Add(ctx, in.Size)
	m.UploadDurationSecond.Record(ctx, time.Since(start).Seconds())

	s.logger.InfoContext(ctx, "Document uploaded",
		slog.String("document_id", created.ID),
		slog.String("owner_id", owner.ID),
		slog.String("file_type", ext),
	)
	return created, nil
}

func (s *DocumentServiceImpl) List(ctx context.Context, ownerID string) ([]types.Document, error) {
	docs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].URL = normalizeDocumentURL(docs[i].URL, docs[i].Name, s.store.Host())
	}
	return docs, nil
}

func (s *DocumentServiceImpl) Get(ctx context.Context, ownerID, documentID string) (*types.Document, error) {
	doc, err := s.repo.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	doc.URL = normalizeDocumentURL(doc.URL, doc.Name, s.store.Host())
	return doc, nil
}

// Download resolves the document and proxies its bytes from the
// provider. If the proxy fetch fails the caller gets a redirect to the
// provider URL instead of an error; non-provider URLs are handed back
// as-is for the client to fetch directly.
func (s *DocumentServiceImpl) Download(ctx context.Context, ownerID, documentID string) (*DownloadResult, error) {
	doc, err := s.repo.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}

	docURL := normalizeDocumentURL(doc.URL, doc.Name, s.store.Host())
	doc.URL = docURL
	isPdf := strings.HasSuffix(strings.ToLower(doc.Name), ".pdf")

	if !isProviderURL(docURL, s.store.Host()) {
		return &DownloadResult{Document: doc, BareURL: docURL}, nil
	}

	body, upstreamType, err := s.store.Fetch(ctx, docURL)
	if err != nil {
		// Degrade to a redirect rather than failing the request.
		s.logger.WarnContext(ctx, "Proxy fetch failed, falling back to redirect",
			slog.String("document_id", doc.ID), slog.Any("error", err))
		return &DownloadResult{Document: doc, RedirectURL: docURL}, nil
	}

	contentType := upstreamType
	if isPdf {
		contentType = "application/pdf"
	}

	observability.Metrics().DownloadsTotal.Add(ctx, 1)

	return &DownloadResult{
		Document:    doc,
		Body:        body,
		ContentType: contentType,
		Inline:      isPdf,
	}, nil
}

func (s *DocumentServiceImpl) UpdateSummary(ctx context.Context, ownerID, documentID, summary string) error {
	if summary == "" {
		return fmt.Errorf("summary is required: %w", types.ErrBadRequest)
	}
	return s.repo.UpdateSummary(ctx, ownerID, documentID, summary)
}

func (s *DocumentServiceImpl) Summarize(text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("text is required for summarization: %w", types.ErrBadRequest)
	}
	return summarizeText(text), nil
}

// sanitizeIdentityKey turns an email into a storage folder segment.
func sanitizeIdentityKey(email string) string {
	return strings.NewReplacer(".", "_", "@", "_").Replace(email)
}

// normalizeDocumentURL applies the provider URL rules: force the
// secure scheme, and make sure PDFs carry the raw-resource marker so
// the provider serves the original bytes.
func normalizeDocumentURL(docURL, name, providerHost string) string {
	if !isProviderURL(docURL, providerHost) {
		return docURL
	}

	if strings.HasPrefix(docURL, "http:") {
		docURL = "https:" + strings.TrimPrefix(docURL, "http:")
	}

	if strings.HasSuffix(strings.ToLower(name), ".pdf") && !strings.Contains(docURL, rawResourceMarker) {
		sep := "?"
		if strings.Contains(docURL, "?") {
			sep = "&"
		}
		docURL = docURL + sep + rawResourceMarker
	}

	return docURL
}

func isProviderURL(docURL, providerHost string) bool {
	if providerHost == "" {
		return false
	}
	u, err := url.Parse(docURL)
	if err != nil {
		return false
	}
	return u.Host == providerHost
}
