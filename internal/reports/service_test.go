package reports

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/visionpoint/assessment-api/internal/apperror"
	"github.com/visionpoint/assessment-api/internal/storage"
)

// mockRepository implements Repository with function fields and an
// in-memory record store keyed by email.
type mockRepository struct {
	findFunc   func(ctx context.Context, email string) (*Assessment, error)
	insertFunc func(ctx context.Context, a *Assessment) error
	updateFunc func(ctx context.Context, a *Assessment) error
	deleteFunc func(ctx context.Context, id string) (bool, error)
	listFunc   func(ctx context.Context, filter ListFilter) ([]Assessment, error)

	inserted []*Assessment
	updated  []*Assessment
}

func (m *mockRepository) FindLatestByEmail(ctx context.Context, email string) (*Assessment, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockRepository) Insert(ctx context.Context, a *Assessment) error {
	m.inserted = append(m.inserted, a)
	if m.insertFunc != nil {
		return m.insertFunc(ctx, a)
	}
	return nil
}

func (m *mockRepository) Update(ctx context.Context, a *Assessment) error {
	m.updated = append(m.updated, a)
	if m.updateFunc != nil {
		return m.updateFunc(ctx, a)
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return true, nil
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Assessment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []Assessment{}, nil
}

// mockResolver returns the base64 data or source URL as the resolved URL,
// so tests can trace which input produced which field.
type mockResolver struct {
	resolveFunc func(ctx context.Context, in storage.ArtifactInput) (storage.UploadResult, error)
}

func (m *mockResolver) Resolve(ctx context.Context, in storage.ArtifactInput) (storage.UploadResult, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, in)
	}
	if in.SourceURL != "" || in.Base64Data != "" {
		return storage.UploadResult{URL: "https://cdn.example.com/" + in.Prefix + ".pdf"}, nil
	}
	return storage.UploadResult{}, nil
}

// mockLocker tracks acquire/release pairing.
type mockLocker struct {
	acquireFunc func(ctx context.Context, key string) (func(), error)

	acquired []string
	released int
}

func (m *mockLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, key)
	}
	m.acquired = append(m.acquired, key)
	return func() { m.released++ }, nil
}

func newTestService(repo *mockRepository, resolver *mockResolver, locker *mockLocker) Service {
	if repo == nil {
		repo = &mockRepository{}
	}
	if resolver == nil {
		resolver = &mockResolver{}
	}
	if locker == nil {
		locker = &mockLocker{}
	}
	return NewService(repo, resolver, locker)
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func TestIngest_InsertsNewRecord(t *testing.T) {
	repo := &mockRepository{}
	locker := &mockLocker{}
	service := newTestService(repo, nil, locker)

	updated, err := service.Ingest(context.Background(), WebhookRequest{
		Name:         "Jordan Reed",
		Email:        "Jordan@Example.COM ",
		Score:        float64(42),
		ClientPDFURL: "https://vendor.example.com/client.pdf",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated {
		t.Error("expected created, not updated")
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(repo.inserted))
	}
	record := repo.inserted[0]
	if record.ID == "" {
		t.Error("expected a generated id")
	}
	if record.Email != "jordan@example.com" {
		t.Errorf("expected normalized email, got %q", record.Email)
	}
	if record.Score == nil || *record.Score != 42 {
		t.Errorf("expected score 42, got %v", record.Score)
	}
	if record.ClientPDFURL == nil || *record.ClientPDFURL != "https://cdn.example.com/client-report.pdf" {
		t.Errorf("unexpected client PDF URL %v", record.ClientPDFURL)
	}
	if record.CoachPDFURL != nil {
		t.Errorf("expected nil coach PDF URL, got %v", *record.CoachPDFURL)
	}

	if len(locker.acquired) != 1 || locker.acquired[0] != "jordan@example.com" {
		t.Errorf("expected lock on normalized email, got %v", locker.acquired)
	}
	if locker.released != 1 {
		t.Errorf("expected lock released once, got %d", locker.released)
	}
}

func TestIngest_FirstWriteWinsMerge(t *testing.T) {
	existing := &Assessment{
		ID:           "existing-id",
		Name:         "A",
		Email:        "jordan@example.com",
		Score:        nil,
		ClientPDFURL: strPtr("https://cdn.example.com/original.pdf"),
	}
	repo := &mockRepository{
		findFunc: func(ctx context.Context, email string) (*Assessment, error) {
			return existing, nil
		},
	}
	service := newTestService(repo, nil, nil)

	updated, err := service.Ingest(context.Background(), WebhookRequest{
		Name:         "B",
		Email:        "jordan@example.com",
		Score:        float64(5),
		ClientPDFURL: "https://vendor.example.com/new-client.pdf",
		CoachPDFURL:  "https://vendor.example.com/coach.pdf",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Error("expected updated, not created")
	}

	if len(repo.updated) != 1 {
		t.Fatalf("expected 1 update, got %d", len(repo.updated))
	}
	merged := repo.updated[0]

	// Existing values win; missing fields are filled.
	if merged.ID != "existing-id" {
		t.Errorf("expected id to be preserved, got %q", merged.ID)
	}
	if merged.Name != "A" {
		t.Errorf("expected existing name to win, got %q", merged.Name)
	}
	if merged.Score == nil || *merged.Score != 5 {
		t.Errorf("expected missing score to be filled with 5, got %v", merged.Score)
	}
	if merged.ClientPDFURL == nil || *merged.ClientPDFURL != "https://cdn.example.com/original.pdf" {
		t.Errorf("expected existing client PDF URL to win, got %v", merged.ClientPDFURL)
	}
	if merged.CoachPDFURL == nil || *merged.CoachPDFURL != "https://cdn.example.com/coach-report.pdf" {
		t.Errorf("expected missing coach PDF URL to be filled, got %v", merged.CoachPDFURL)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("expected no insert, got %d", len(repo.inserted))
	}
}

func TestIngest_DuplicateSubmission(t *testing.T) {
	// First call sees no record and inserts; the second sees the inserted
	// record and updates instead of inserting a duplicate.
	var stored *Assessment
	repo := &mockRepository{
		findFunc: func(ctx context.Context, email string) (*Assessment, error) {
			return stored, nil
		},
		insertFunc: func(ctx context.Context, a *Assessment) error {
			stored = a
			return nil
		},
	}
	service := newTestService(repo, nil, nil)

	req := WebhookRequest{Name: "Jordan Reed", Email: "jordan@example.com"}

	updated, err := service.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	if updated {
		t.Error("expected first call to create")
	}

	updated, err = service.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if !updated {
		t.Error("expected second call to update")
	}

	if len(repo.inserted) != 1 || len(repo.updated) != 1 {
		t.Errorf("expected exactly one insert and one update, got %d and %d",
			len(repo.inserted), len(repo.updated))
	}
}

func TestIngest_Validation(t *testing.T) {
	service := newTestService(nil, nil, nil)

	cases := []struct {
		name string
		req  WebhookRequest
	}{
		{"missing name", WebhookRequest{Email: "jordan@example.com"}},
		{"missing email", WebhookRequest{Name: "Jordan Reed"}},
		{"blank name", WebhookRequest{Name: "   ", Email: "jordan@example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Ingest(context.Background(), tc.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if code := apperror.SafeCode(err); code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", code)
			}
		})
	}
}

func TestIngest_ScoreCoercion(t *testing.T) {
	cases := []struct {
		name  string
		score any
		want  *int
	}{
		{"number", float64(87), intPtr(87)},
		{"numeric string", "87", intPtr(87)},
		{"padded string", " 87 ", intPtr(87)},
		{"garbage string", "not-a-number", nil},
		{"absent", nil, nil},
		{"wrong type", true, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepository{}
			service := newTestService(repo, nil, nil)

			_, err := service.Ingest(context.Background(), WebhookRequest{
				Name:  "Jordan Reed",
				Email: "jordan@example.com",
				Score: tc.score,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := repo.inserted[0].Score
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("expected null score, got %d", *got)
			case tc.want != nil && (got == nil || *got != *tc.want):
				t.Errorf("expected score %d, got %v", *tc.want, got)
			}
		})
	}
}

func TestIngest_ResolverFailureAborts(t *testing.T) {
	repo := &mockRepository{}
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context, in storage.ArtifactInput) (storage.UploadResult, error) {
			return storage.UploadResult{}, apperror.NewUpload("client-report: PDF data is empty")
		},
	}
	locker := &mockLocker{}
	service := newTestService(repo, resolver, locker)

	_, err := service.Ingest(context.Background(), WebhookRequest{
		Name:            "Jordan Reed",
		Email:           "jordan@example.com",
		ClientPDFBase64: "AAAA",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := apperror.SafeCode(err); code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", code)
	}
	if len(repo.inserted) != 0 || len(repo.updated) != 0 {
		t.Error("expected no persistence after resolver failure")
	}
	if len(locker.acquired) != 0 {
		t.Error("expected no lock taken after resolver failure")
	}
}

func TestIngest_LockFailure(t *testing.T) {
	repo := &mockRepository{}
	locker := &mockLocker{
		acquireFunc: func(ctx context.Context, key string) (func(), error) {
			return nil, ErrLockUnavailable
		},
	}
	service := newTestService(repo, nil, locker)

	_, err := service.Ingest(context.Background(), WebhookRequest{
		Name:  "Jordan Reed",
		Email: "jordan@example.com",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := apperror.SafeCode(err); code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", code)
	}
	if len(repo.inserted) != 0 {
		t.Error("expected no insert when the lock is unavailable")
	}
}

func TestIngest_PersistenceFailure(t *testing.T) {
	repo := &mockRepository{
		insertFunc: func(ctx context.Context, a *Assessment) error {
			return errors.New("connection reset")
		},
	}
	service := newTestService(repo, nil, nil)

	_, err := service.Ingest(context.Background(), WebhookRequest{
		Name:  "Jordan Reed",
		Email: "jordan@example.com",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := apperror.SafeCode(err); code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", code)
	}
	// The raw database error must not leak to the caller.
	if msg := apperror.SafeMessage(err); msg == "connection reset" {
		t.Error("expected internal error detail to be hidden")
	}
}

func TestDelete(t *testing.T) {
	t.Run("deletes existing record", func(t *testing.T) {
		service := newTestService(nil, nil, nil)
		if err := service.Delete(context.Background(), "some-id"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		repo := &mockRepository{
			deleteFunc: func(ctx context.Context, id string) (bool, error) {
				return false, nil
			},
		}
		service := newTestService(repo, nil, nil)

		err := service.Delete(context.Background(), "missing-id")
		if err == nil {
			t.Fatal("expected error")
		}
		if code := apperror.SafeCode(err); code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", code)
		}
	})
}
