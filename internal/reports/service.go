package reports

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/visionpoint/assessment-api/internal/apperror"
	"github.com/visionpoint/assessment-api/internal/storage"
)

// Service defines the business logic contract for report operations.
type Service interface {
	// Ingest processes one webhook submission: resolve PDF artifacts,
	// then insert a new record or merge into the latest existing record
	// for the same email. Returns whether an existing record was updated.
	Ingest(ctx context.Context, req WebhookRequest) (updated bool, err error)

	// List returns assessment records for the admin UI.
	List(ctx context.Context, filter ListFilter) ([]Assessment, error)

	// Delete removes a record by id.
	Delete(ctx context.Context, id string) error
}

// ArtifactResolver is the subset of the storage resolver the service needs.
type ArtifactResolver interface {
	Resolve(ctx context.Context, in storage.ArtifactInput) (storage.UploadResult, error)
}

// service implements Service.
type service struct {
	repo     Repository
	resolver ArtifactResolver
	locker   Locker
}

// NewService creates a new report service.
func NewService(repo Repository, resolver ArtifactResolver, locker Locker) Service {
	return &service{repo: repo, resolver: resolver, locker: locker}
}

// Ingest runs the full ingestion pipeline. Artifact resolution happens
// before the lock is taken -- uploads are slow and need no serialization;
// only the read-then-write against the database does. If persistence fails
// after a successful upload, the uploaded object is left behind as an
// accepted orphan rather than attempting two-phase cleanup.
func (s *service) Ingest(ctx context.Context, req WebhookRequest) (bool, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return false, apperror.NewValidation("name and email are required")
	}

	score := coerceScore(req.Score)

	clientResult, err := s.resolver.Resolve(ctx, storage.ArtifactInput{
		Base64Data: req.ClientPDFBase64,
		SourceURL:  req.ClientPDFURL,
		Prefix:     "client-report",
	})
	if err != nil {
		return false, err
	}

	coachResult, err := s.resolver.Resolve(ctx, storage.ArtifactInput{
		Base64Data: req.CoachPDFBase64,
		SourceURL:  req.CoachPDFURL,
		Prefix:     "coach-report",
	})
	if err != nil {
		return false, err
	}

	release, err := s.locker.Acquire(ctx, email)
	if err != nil {
		return false, apperror.NewInternal(err)
	}
	defer release()

	existing, err := s.repo.FindLatestByEmail(ctx, email)
	if err != nil {
		return false, apperror.NewInternal(err)
	}

	if existing == nil {
		record := &Assessment{
			ID:           uuid.NewString(),
			Name:         name,
			Email:        email,
			Score:        score,
			ClientPDFURL: optionalString(clientResult.URL),
			CoachPDFURL:  optionalString(coachResult.URL),
		}
		if err := s.repo.Insert(ctx, record); err != nil {
			return false, apperror.NewInternal(err)
		}

		slog.Info("assessment created",
			slog.String("id", record.ID),
			slog.String("email", email),
		)
		return false, nil
	}

	mergeAssessment(existing, name, score, clientResult.URL, coachResult.URL)
	if err := s.repo.Update(ctx, existing); err != nil {
		return false, apperror.NewInternal(err)
	}

	slog.Info("assessment updated",
		slog.String("id", existing.ID),
		slog.String("email", email),
	)
	return true, nil
}

// mergeAssessment applies the first-write-wins merge: each field keeps its
// existing value if already set and takes the incoming value only when
// currently missing. Email and id are never touched.
func mergeAssessment(existing *Assessment, name string, score *int, clientURL, coachURL string) {
	if existing.Name == "" && name != "" {
		existing.Name = name
	}
	if existing.Score == nil && score != nil {
		existing.Score = score
	}
	if !hasValue(existing.ClientPDFURL) && clientURL != "" {
		existing.ClientPDFURL = &clientURL
	}
	if !hasValue(existing.CoachPDFURL) && coachURL != "" {
		existing.CoachPDFURL = &coachURL
	}
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]Assessment, error) {
	assessments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return assessments, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !deleted {
		return apperror.NewNotFound("report not found")
	}

	slog.Info("assessment deleted", slog.String("id", id))
	return nil
}

// coerceScore turns a loosely typed score value into an int or nil. Vendors
// send numbers, numeric strings, or omit the field entirely; anything that
// does not parse cleanly is stored as null rather than rejected.
func coerceScore(v any) *int {
	switch s := v.(type) {
	case float64:
		n := int(s)
		return &n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// optionalString maps an empty string to nil for nullable columns.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// hasValue reports whether a nullable string field holds a non-empty value.
func hasValue(s *string) bool {
	return s != nil && *s != ""
}
