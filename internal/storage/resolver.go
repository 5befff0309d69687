package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/visionpoint/assessment-api/internal/apperror"
)

// pdfContentType is the type uploaded artifacts are stored under.
const pdfContentType = "application/pdf"

// ArtifactInput describes one PDF artifact field from a webhook submission.
// Base64Data and SourceURL may both be set; inline data is preferred and the
// URL is only tried if the inline path fails.
type ArtifactInput struct {
	// Base64Data is inline base64 PDF content, with or without a
	// "data:...;base64," prefix.
	Base64Data string

	// SourceURL is a remote location the PDF can be fetched from.
	SourceURL string

	// Prefix names the artifact kind in the generated object key
	// (e.g. "client-report").
	Prefix string
}

// UploadResult carries the stored artifact's public URL. An empty URL means
// the submission had no artifact for this field, which is not an error.
type UploadResult struct {
	URL string
}

// Resolver turns artifact inputs into durable public URLs: validate, upload
// to object storage, return the URL. Validation is identical for inline and
// remote sources so the fetch path cannot bypass the size or type checks.
type Resolver struct {
	uploader Uploader
	client   *http.Client
	maxBytes int64
}

// NewResolver creates a resolver enforcing the given size cap on decoded or
// downloaded artifact bytes.
func NewResolver(uploader Uploader, maxBytes int64) *Resolver {
	return &Resolver{
		uploader: uploader,
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: maxBytes,
	}
}

// Resolve processes one artifact field. Inline base64 is tried first; if it
// fails and a source URL was also supplied, the URL is tried as a fallback.
// With neither input present the result is a no-artifact success.
func (r *Resolver) Resolve(ctx context.Context, in ArtifactInput) (UploadResult, error) {
	if in.Base64Data != "" {
		url, err := r.resolveInline(ctx, in)
		if err == nil {
			return UploadResult{URL: url}, nil
		}
		if in.SourceURL == "" {
			return UploadResult{}, err
		}
		// Fall through to the URL fallback.
	}

	if in.SourceURL != "" {
		url, err := r.resolveRemote(ctx, in)
		if err != nil {
			return UploadResult{}, err
		}
		return UploadResult{URL: url}, nil
	}

	return UploadResult{}, nil
}

// resolveInline decodes inline base64 content and uploads it.
func (r *Resolver) resolveInline(ctx context.Context, in ArtifactInput) (string, error) {
	data, err := decodeBase64PDF(in.Base64Data)
	if err != nil {
		return "", apperror.NewUpload(fmt.Sprintf("%s: invalid base64 data", in.Prefix))
	}
	if err := r.checkSize(int64(len(data)), in.Prefix); err != nil {
		return "", err
	}
	return r.upload(ctx, in.Prefix, data)
}

// resolveRemote fetches the artifact from its source URL and uploads it.
// The response must have a success status and a PDF-compatible content type;
// the size cap is enforced while reading so an oversized body is abandoned
// without being fully downloaded.
func (r *Resolver) resolveRemote(ctx context.Context, in ArtifactInput) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.SourceURL, nil)
	if err != nil {
		return "", apperror.NewUpload(fmt.Sprintf("%s: invalid source URL", in.Prefix))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", apperror.NewUpload(fmt.Sprintf("%s: fetching PDF failed", in.Prefix))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperror.NewUpload(fmt.Sprintf("%s: fetching PDF failed with status %d", in.Prefix, resp.StatusCode))
	}

	if !acceptableContentType(resp.Header.Get("Content-Type")) {
		return "", apperror.NewUpload(fmt.Sprintf("%s: source did not return a PDF", in.Prefix))
	}

	// Read one byte past the cap to distinguish "exactly at the limit"
	// from "over it".
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return "", apperror.NewUpload(fmt.Sprintf("%s: reading PDF failed", in.Prefix))
	}
	if err := r.checkSize(int64(len(data)), in.Prefix); err != nil {
		return "", err
	}

	return r.upload(ctx, in.Prefix, data)
}

// upload stores the artifact under a fresh collision-resistant key.
func (r *Resolver) upload(ctx context.Context, prefix string, data []byte) (string, error) {
	key, err := objectKey(prefix)
	if err != nil {
		return "", apperror.NewInternal(err)
	}

	url, err := r.uploader.Upload(ctx, key, data, pdfContentType)
	if err != nil {
		return "", apperror.NewUpload(fmt.Sprintf("%s: storing PDF failed", prefix))
	}
	return url, nil
}

// checkSize rejects empty and oversized content uniformly for both sources.
func (r *Resolver) checkSize(size int64, prefix string) error {
	if size == 0 {
		return apperror.NewUpload(fmt.Sprintf("%s: PDF data is empty", prefix))
	}
	if size > r.maxBytes {
		return apperror.NewUpload(fmt.Sprintf("%s: PDF exceeds the %d byte limit", prefix, r.maxBytes))
	}
	return nil
}

// decodeBase64PDF decodes inline content, stripping an optional data URI
// prefix ("data:application/pdf;base64,....") first.
func decodeBase64PDF(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ";base64,"); idx >= 0 {
			s = s[idx+len(";base64,"):]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}

// acceptableContentType reports whether a remote response looks like a PDF.
// Anything mentioning "pdf" passes, as does a generic octet-stream. An empty
// content type passes too: some storage backends omit it, and the size check
// still applies. HTML error pages and the like are rejected.
func acceptableContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "" {
		return true
	}
	if strings.Contains(ct, "pdf") {
		return true
	}
	return strings.HasPrefix(ct, "application/octet-stream")
}

// objectKey builds "prefix-<unix millis>-<12 hex>.pdf".
func objectKey(prefix string) (string, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating object key: %w", err)
	}
	return fmt.Sprintf("%s-%d-%s.pdf", prefix, time.Now().UnixMilli(), hex.EncodeToString(suffix)), nil
}
