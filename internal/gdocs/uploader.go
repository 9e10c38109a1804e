package gdocs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// UploaderConfig configures an Uploader. Zero values talk to Google.
type UploaderConfig struct {
	DocsEndpoint      string
	DriveEndpoint     string
	HTTPClient        *http.Client // overrides credentials when set
	RequestsPerSecond float64
	Burst             int
}

// Uploader creates Google Docs from report text.
type Uploader struct {
	cfg     UploaderConfig
	limiter *rate.Limiter
}

// NewUploader creates an uploader limited to 5 requests per second by default.
func NewUploader(cfg UploaderConfig) *Uploader {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Uploader{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// UploadRequest is one report to upload.
type UploadRequest struct {
	Title    string
	Body     string
	FolderID string
}

// DocURL returns the edit URL of a document.
func DocURL(id string) string {
	return "https://docs.google.com/document/d/" + id + "/edit"
}

func (u *Uploader) options(ctx context.Context, creds Credentials, endpoint string) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if u.cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(u.cfg.HTTPClient))
	} else {
		ts, err := creds.TokenSource(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithTokenSource(ts))
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts, nil
}

// Upload creates a document titled req.Title containing req.Body, moves it into
// req.FolderID when one is given, and returns the document URL.
func (u *Uploader) Upload(ctx context.Context, creds Credentials, req UploadRequest) (string, error) {
	docOpts, err := u.options(ctx, creds, u.cfg.DocsEndpoint)
	if err != nil {
		return "", err
	}
	docsSvc, err := docs.NewService(ctx, docOpts...)
	if err != nil {
		return "", fmt.Errorf("creating docs service: %w", err)
	}

	if err := u.limiter.Wait(ctx); err != nil {
		return "", err
	}
	doc, err := docsSvc.Documents.Create(&docs.Document{Title: req.Title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating document: %w", WrapError(err))
	}

	body := strings.ReplaceAll(req.Body, "\x00", " ")
	if body != "" {
		if err := u.limiter.Wait(ctx); err != nil {
			return "", err
		}
		_, err = docsSvc.Documents.BatchUpdate(doc.DocumentId, &docs.BatchUpdateDocumentRequest{
			Requests: []*docs.Request{{
				InsertText: &docs.InsertTextRequest{
					Location: &docs.Location{Index: 1},
					Text:     body,
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("inserting document text: %w", WrapError(err))
		}
	}

	if folder := strings.TrimSpace(req.FolderID); folder != "" {
		if err := u.moveToFolder(ctx, creds, doc.DocumentId, folder); err != nil {
			return "", err
		}
	}

	slog.Info("google doc created", "document_id", doc.DocumentId, "folder", req.FolderID != "")
	return DocURL(doc.DocumentId), nil
}

func (u *Uploader) moveToFolder(ctx context.Context, creds Credentials, fileID, folderID string) error {
	opts, err := u.options(ctx, creds, u.cfg.DriveEndpoint)
	if err != nil {
		return err
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("creating drive service: %w", err)
	}

	if err := u.limiter.Wait(ctx); err != nil {
		return err
	}
	f, err := driveSvc.Files.Get(fileID).Fields("parents").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading document parents: %w", WrapError(err))
	}

	if err := u.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = driveSvc.Files.Update(fileID, &drive.File{}).
		AddParents(folderID).
		RemoveParents(strings.Join(f.Parents, ",")).
		SupportsAllDrives(true).
		Fields("id, parents").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("moving document to folder: %w", WrapError(err))
	}
	return nil
}
