package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/clients/gcp"
	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/requestdata"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

// maxWebsitePages bounds how many URLs one website ingestion will fetch.
const maxWebsitePages = 10

// ErrStorageUnavailable means the bucket client failed to initialize at
// startup; ingestion that needs blob storage is disabled until restart.
var ErrStorageUnavailable = errors.New("document storage unavailable")

// KnowledgeService ingests reference material for a user: raw text
// snippets, uploaded files stored in the bucket, and website pages
// fetched concurrently.
type KnowledgeService interface {
	AddText(ctx context.Context, name, text string) (*types.KnowledgeDoc, error)
	AddFile(ctx context.Context, name string, docType types.KnowledgeDocType, file io.Reader) (*types.KnowledgeDoc, error)
	AddWebsite(ctx context.Context, name string, urls []string) (*types.KnowledgeDoc, error)
	ListDocs(ctx context.Context, limit, offset int) ([]*types.KnowledgeDoc, int64, error)
	DeleteDoc(ctx context.Context, docID uuid.UUID) error
}

type knowledgeService struct {
	db      *gorm.DB
	log     *logger.Logger
	docRepo repos.KnowledgeDocRepo
	bucket  gcp.BucketClient
	fetcher *http.Client
}

func NewKnowledgeService(db *gorm.DB, log *logger.Logger, docRepo repos.KnowledgeDocRepo, bucket gcp.BucketClient) KnowledgeService {
	return &knowledgeService{
		db:      db,
		log:     log.With("service", "KnowledgeService"),
		docRepo: docRepo,
		bucket:  bucket,
		fetcher: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *knowledgeService) AddText(ctx context.Context, name, text string) (*types.KnowledgeDoc, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	if s.bucket == nil {
		return nil, ErrStorageUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text snippet is empty")
	}

	docID := uuid.New()
	key := s.objectKey(rd.UserID, docID, name+".txt")
	if err := s.bucket.UploadFile(ctx, key, strings.NewReader(text)); err != nil {
		return nil, fmt.Errorf("store text snippet: %w", err)
	}
	return s.createDoc(ctx, &types.KnowledgeDoc{
		ID:      docID,
		UserID:  rd.UserID,
		Name:    name,
		DocType: types.KnowledgeDocText,
		DocLink: s.bucket.GetPublicURL(key),
	})
}

func (s *knowledgeService) AddFile(ctx context.Context, name string, docType types.KnowledgeDocType, file io.Reader) (*types.KnowledgeDoc, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	if s.bucket == nil {
		return nil, ErrStorageUnavailable
	}
	switch docType {
	case types.KnowledgeDocPDF, types.KnowledgeDocDocx, types.KnowledgeDocTxt, types.KnowledgeDocCSV:
	default:
		return nil, fmt.Errorf("unsupported document type %q", docType)
	}

	docID := uuid.New()
	key := s.objectKey(rd.UserID, docID, name)
	if err := s.bucket.UploadFile(ctx, key, file); err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}
	return s.createDoc(ctx, &types.KnowledgeDoc{
		ID:      docID,
		UserID:  rd.UserID,
		Name:    name,
		DocType: docType,
		DocLink: s.bucket.GetPublicURL(key),
	})
}

func (s *knowledgeService) AddWebsite(ctx context.Context, name string, urls []string) (*types.KnowledgeDoc, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	if s.bucket == nil {
		return nil, ErrStorageUnavailable
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no urls given")
	}
	if len(urls) > maxWebsitePages {
		urls = urls[:maxWebsitePages]
	}

	pages := make([]string, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, url := range urls {
		g.Go(func() error {
			body, err := s.fetchPage(gctx, url)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", url, err)
			}
			pages[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docID := uuid.New()
	key := s.objectKey(rd.UserID, docID, name+".txt")
	combined := strings.Join(pages, "\n\n")
	if err := s.bucket.UploadFile(ctx, key, strings.NewReader(combined)); err != nil {
		return nil, fmt.Errorf("store website content: %w", err)
	}
	return s.createDoc(ctx, &types.KnowledgeDoc{
		ID:      docID,
		UserID:  rd.UserID,
		Name:    name,
		DocType: types.KnowledgeDocWebsite,
		DocLink: urls[0],
	})
}

func (s *knowledgeService) ListDocs(ctx context.Context, limit, offset int) ([]*types.KnowledgeDoc, int64, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, 0, ErrNotAuthenticated
	}
	return s.docRepo.ListByUserID(ctx, nil, rd.UserID, limit, offset)
}

func (s *knowledgeService) DeleteDoc(ctx context.Context, docID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return ErrNotAuthenticated
	}
	doc, err := s.docRepo.GetByID(ctx, nil, docID)
	if err != nil {
		return err
	}
	if doc.UserID != rd.UserID {
		return repos.ErrNotFound
	}
	return s.docRepo.Delete(ctx, nil, docID)
}

func (s *knowledgeService) createDoc(ctx context.Context, doc *types.KnowledgeDoc) (*types.KnowledgeDoc, error) {
	created, err := s.docRepo.Create(ctx, nil, []*types.KnowledgeDoc{doc})
	if err != nil {
		return nil, fmt.Errorf("create knowledge doc record: %w", err)
	}
	s.log.Info("knowledge doc added", "doc_id", created[0].ID, "doc_type", created[0].DocType)
	return created[0], nil
}

func (s *knowledgeService) objectKey(userID, docID uuid.UUID, name string) string {
	return path.Join("knowledge", userID.String(), docID.String(), name)
}

func (s *knowledgeService) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.fetcher.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	// 2 MB per page keeps one hostile URL from ballooning the upload.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
