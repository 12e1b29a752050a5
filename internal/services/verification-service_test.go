package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/degreepass/verification_service/internal/apperr"
	"github.com/degreepass/verification_service/internal/domain"
	"github.com/degreepass/verification_service/internal/dto"
	gocache "github.com/patrickmn/go-cache"
)

func validSubmit() dto.SubmitRequest {
	return dto.SubmitRequest{
		FullName:       "Amina Khan",
		UniversityName: "University of Karachi",
		DegreeTitle:    "BS Computer Science",
		GraduationYear: 2021,
		RegistrationNo: "REG-44821",
		ServiceType:    "Academic",
		DegreeDoc:      "https://cdn.example.com/docs/degree.pdf",
		TranscriptDoc:  "https://cdn.example.com/docs/transcript.pdf",
		PassportDoc:    "https://cdn.example.com/docs/passport.pdf",
	}
}

func newVerificationFixture() (*fakeRequestRepo, *fakeAccountRepo, VerificationService) {
	reqRepo := newFakeRequestRepo()
	accRepo := newFakeAccountRepo()
	svc := NewVerificationService(reqRepo, accRepo, nil, &fakeUploader{}, nil, false)
	return reqRepo, accRepo, svc
}

func TestSubmit_ValidationNamesFirstFailingField(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*dto.SubmitRequest)
		wantField string
	}{
		{"missing full name", func(r *dto.SubmitRequest) { r.FullName = " " }, "fullName"},
		{"missing university", func(r *dto.SubmitRequest) { r.UniversityName = "" }, "universityName"},
		{"missing degree title", func(r *dto.SubmitRequest) { r.DegreeTitle = "" }, "degreeTitle"},
		{"year not four digits", func(r *dto.SubmitRequest) { r.GraduationYear = 99 }, "graduationYear"},
		{"year zero", func(r *dto.SubmitRequest) { r.GraduationYear = 0 }, "graduationYear"},
		{"missing registration no", func(r *dto.SubmitRequest) { r.RegistrationNo = "" }, "registrationNo"},
		{"bad service type", func(r *dto.SubmitRequest) { r.ServiceType = "Immigration" }, "serviceType"},
		{"missing degree doc", func(r *dto.SubmitRequest) { r.DegreeDoc = "" }, "degreeDoc"},
		{"missing transcript doc", func(r *dto.SubmitRequest) { r.TranscriptDoc = "" }, "transcriptDoc"},
		{"missing passport doc", func(r *dto.SubmitRequest) { r.PassportDoc = "" }, "passportDoc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqRepo, _, svc := newVerificationFixture()

			input := validSubmit()
			tt.mutate(&input)

			_, err := svc.Submit(7, input)

			var vErr *apperr.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Submit() error = %v, want ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Fatalf("ValidationError.Field = %q, want %q", vErr.Field, tt.wantField)
			}
			if len(reqRepo.requests) != 0 {
				t.Fatalf("expected no record created on validation failure, got %d", len(reqRepo.requests))
			}
		})
	}
}

func TestSubmit_CreatesExactlyOnePendingRequest(t *testing.T) {
	reqRepo, _, svc := newVerificationFixture()

	req, err := svc.Submit(7, validSubmit())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(reqRepo.requests) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(reqRepo.requests))
	}
	if req.Status != domain.RequestStatusPending {
		t.Fatalf("status = %q, want PENDING", req.Status)
	}
	if req.AccountID != 7 {
		t.Fatalf("account id = %d, want 7", req.AccountID)
	}
	if req.PackageType != domain.DefaultPackageType {
		t.Fatalf("package type = %q, want %q", req.PackageType, domain.DefaultPackageType)
	}
	if req.VerifiedReportURL != "" {
		t.Fatalf("verified report url must be empty before completion, got %q", req.VerifiedReportURL)
	}

	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	if !pattern.MatchString(req.AccessCode) {
		t.Fatalf("access code %q does not match %s", req.AccessCode, pattern)
	}
}

func TestSubmit_AccessCodesAreUnique(t *testing.T) {
	_, _, svc := newVerificationFixture()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		req, err := svc.Submit(uint(i+1), validSubmit())
		if err != nil {
			t.Fatalf("Submit() #%d error = %v", i, err)
		}
		if seen[req.AccessCode] {
			t.Fatalf("duplicate access code %q", req.AccessCode)
		}
		seen[req.AccessCode] = true
	}
}

func TestSubmit_RetriesOnCodeCollision(t *testing.T) {
	reqRepo := newFakeRequestRepo()
	reqRepo.duplicateFirstN = 2
	svc := NewVerificationService(reqRepo, newFakeAccountRepo(), nil, nil, nil, false)

	req, err := svc.Submit(1, validSubmit())
	if err != nil {
		t.Fatalf("Submit() error = %v, want success after retries", err)
	}
	if req.ID == 0 {
		t.Fatal("expected request to be persisted")
	}
	if reqRepo.createCalls != 3 {
		t.Fatalf("create calls = %d, want 3 (2 collisions + success)", reqRepo.createCalls)
	}
}

func TestSubmit_ConflictWhenRetryBudgetExhausted(t *testing.T) {
	reqRepo := newFakeRequestRepo()
	reqRepo.duplicateFirstN = codeRetryBudget
	svc := NewVerificationService(reqRepo, newFakeAccountRepo(), nil, nil, nil, false)

	_, err := svc.Submit(1, validSubmit())

	var cErr *apperr.ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("Submit() error = %v, want ConflictError", err)
	}
	if len(reqRepo.requests) != 0 {
		t.Fatalf("expected no record after exhausted retries, got %d", len(reqRepo.requests))
	}
}

func TestSubmit_ApprovalGatePolicy(t *testing.T) {
	accRepo := newFakeAccountRepo()
	pending := &domain.Account{Name: "Amina", Email: "amina@x.com", Role: domain.RoleStudent, IsApproved: false}
	if err := accRepo.Create(pending); err != nil {
		t.Fatal(err)
	}
	approved := &domain.Account{Name: "Bilal", Email: "bilal@x.com", Role: domain.RoleStudent, IsApproved: true}
	if err := accRepo.Create(approved); err != nil {
		t.Fatal(err)
	}

	t.Run("gate off allows unapproved submitter", func(t *testing.T) {
		svc := NewVerificationService(newFakeRequestRepo(), accRepo, nil, nil, nil, false)
		if _, err := svc.Submit(pending.ID, validSubmit()); err != nil {
			t.Fatalf("Submit() error = %v, want nil with gate off", err)
		}
	})

	t.Run("gate on blocks unapproved submitter", func(t *testing.T) {
		svc := NewVerificationService(newFakeRequestRepo(), accRepo, nil, nil, nil, true)
		_, err := svc.Submit(pending.ID, validSubmit())
		var zErr *apperr.AuthzError
		if !errors.As(err, &zErr) {
			t.Fatalf("Submit() error = %v, want AuthzError", err)
		}
	})

	t.Run("gate on allows approved submitter", func(t *testing.T) {
		svc := NewVerificationService(newFakeRequestRepo(), accRepo, nil, nil, nil, true)
		if _, err := svc.Submit(approved.ID, validSubmit()); err != nil {
			t.Fatalf("Submit() error = %v, want nil for approved student", err)
		}
	})
}

func TestLookupByCode_PendingIndistinguishableFromUnknown(t *testing.T) {
	_, _, svc := newVerificationFixture()

	req, err := svc.Submit(1, validSubmit())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	_, errPending := svc.LookupByCode(req.AccessCode)
	_, errUnknown := svc.LookupByCode("ZZZZ9999")

	var nfPending, nfUnknown *apperr.NotFoundError
	if !errors.As(errPending, &nfPending) {
		t.Fatalf("lookup of pending code error = %v, want NotFoundError", errPending)
	}
	if !errors.As(errUnknown, &nfUnknown) {
		t.Fatalf("lookup of unknown code error = %v, want NotFoundError", errUnknown)
	}
	if nfPending.Error() != nfUnknown.Error() {
		t.Fatalf("masked messages differ: %q vs %q", nfPending.Error(), nfUnknown.Error())
	}
}

func TestLookupByCode_CanonicalizesCase(t *testing.T) {
	reqRepo, _, svc := newVerificationFixture()

	req, err := svc.Submit(1, validSubmit())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := reqRepo.AttachReport(req.ID, "https://cdn.example.com/reports/1.pdf"); err != nil {
		t.Fatal(err)
	}

	lower := " " + strings.ToLower(req.AccessCode) + " "
	proj, err := svc.LookupByCode(lower)
	if err != nil {
		t.Fatalf("LookupByCode(%q) error = %v", lower, err)
	}
	if proj.FullName != "Amina Khan" {
		t.Fatalf("projection fullName = %q", proj.FullName)
	}
}

func TestAttachReport_CompletesRequestAndExposesLookup(t *testing.T) {
	reqRepo, _, svc := newVerificationFixture()

	created, err := svc.Submit(3, validSubmit())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// invariant before attachment: not completed, no report
	if created.Status == domain.RequestStatusCompleted || created.VerifiedReportURL != "" {
		t.Fatal("request must start PENDING without a report url")
	}

	const reportURL = "https://cdn.example.com/reports/final.pdf"
	updated, err := svc.AttachReport(created.ID, reportURL)
	if err != nil {
		t.Fatalf("AttachReport() error = %v", err)
	}

	if updated.Status != domain.RequestStatusCompleted {
		t.Fatalf("status = %q, want COMPLETED", updated.Status)
	}
	if updated.VerifiedReportURL != reportURL {
		t.Fatalf("report url = %q, want %q", updated.VerifiedReportURL, reportURL)
	}

	proj, err := svc.LookupByCode(created.AccessCode)
	if err != nil {
		t.Fatalf("LookupByCode() after completion error = %v", err)
	}
	if proj.Status != string(domain.RequestStatusCompleted) {
		t.Fatalf("projection status = %q, want COMPLETED", proj.Status)
	}
	if proj.VerifiedReportURL != reportURL {
		t.Fatalf("projection report url = %q, want %q", proj.VerifiedReportURL, reportURL)
	}

	// the persisted record upholds the invariant too
	stored, err := reqRepo.FindByID(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	completed := stored.Status == domain.RequestStatusCompleted
	hasReport := stored.VerifiedReportURL != ""
	if completed != hasReport {
		t.Fatalf("invariant violated: completed=%v hasReport=%v", completed, hasReport)
	}
}

func TestAttachReport_UnknownRequest(t *testing.T) {
	_, _, svc := newVerificationFixture()

	_, err := svc.AttachReport(99, "https://cdn.example.com/reports/x.pdf")
	var nfErr *apperr.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("AttachReport() error = %v, want NotFoundError", err)
	}
}

func TestAttachReport_EmptyURL(t *testing.T) {
	_, _, svc := newVerificationFixture()

	_, err := svc.AttachReport(1, "  ")
	var vErr *apperr.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("AttachReport() error = %v, want ValidationError", err)
	}
	if vErr.Field != "report_url" {
		t.Fatalf("ValidationError.Field = %q, want report_url", vErr.Field)
	}
}

func TestAttachReportFile_UploadsThenAttaches(t *testing.T) {
	reqRepo := newFakeRequestRepo()
	up := &fakeUploader{}
	svc := NewVerificationService(reqRepo, newFakeAccountRepo(), nil, up, nil, false)

	created, err := svc.Submit(4, validSubmit())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	updated, err := svc.AttachReportFile(context.Background(), created.ID, "report.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("AttachReportFile() error = %v", err)
	}
	if up.calls != 1 {
		t.Fatalf("uploader calls = %d, want 1", up.calls)
	}
	if updated.Status != domain.RequestStatusCompleted || updated.VerifiedReportURL == "" {
		t.Fatalf("request not completed: status=%q url=%q", updated.Status, updated.VerifiedReportURL)
	}
}

func TestLookupByCode_ProjectionOmitsPrivateFields(t *testing.T) {
	reqRepo, _, svc := newVerificationFixture()

	created, err := svc.Submit(5, validSubmit())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := reqRepo.AttachReport(created.ID, "https://cdn.example.com/reports/5.pdf"); err != nil {
		t.Fatal(err)
	}

	proj, err := svc.LookupByCode(created.AccessCode)
	if err != nil {
		t.Fatalf("LookupByCode() error = %v", err)
	}

	// the projection type itself has no slots for private data; check
	// the public fields carried over correctly
	if proj.FullName != "Amina Khan" || proj.UniversityName != "University of Karachi" {
		t.Fatalf("unexpected projection identity fields: %+v", proj)
	}
	if proj.GraduationYear != 2021 || proj.ServiceType != "Academic" {
		t.Fatalf("unexpected projection degree fields: %+v", proj)
	}
	if proj.CreatedAt == "" {
		t.Fatal("projection missing createdAt")
	}
}

func TestLookupByCode_ServesFromCache(t *testing.T) {
	reqRepo := newFakeRequestRepo()
	cache := gocache.New(time.Minute, time.Minute)
	svc := NewVerificationService(reqRepo, newFakeAccountRepo(), nil, nil, cache, false)

	created, err := svc.Submit(1, validSubmit())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := reqRepo.AttachReport(created.ID, "https://cdn.example.com/reports/1.pdf"); err != nil {
		t.Fatal(err)
	}

	first, err := svc.LookupByCode(created.AccessCode)
	if err != nil {
		t.Fatalf("first LookupByCode() error = %v", err)
	}

	// remove the record behind the cache; a second lookup inside the
	// TTL must come from the cached projection, not the store
	delete(reqRepo.requests, created.ID)

	second, err := svc.LookupByCode(created.AccessCode)
	if err != nil {
		t.Fatalf("second LookupByCode() error = %v, want cache hit", err)
	}
	if second.FullName != first.FullName || second.VerifiedReportURL != first.VerifiedReportURL {
		t.Fatalf("cached projection differs: first=%+v second=%+v", first, second)
	}
}

func TestAttachReport_InvalidatesCachedProjection(t *testing.T) {
	reqRepo := newFakeRequestRepo()
	cache := gocache.New(time.Minute, time.Minute)
	svc := NewVerificationService(reqRepo, newFakeAccountRepo(), nil, nil, cache, false)

	created, err := svc.Submit(1, validSubmit())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	const firstURL = "https://cdn.example.com/reports/v1.pdf"
	if _, err := svc.AttachReport(created.ID, firstURL); err != nil {
		t.Fatalf("AttachReport() error = %v", err)
	}

	proj, err := svc.LookupByCode(created.AccessCode)
	if err != nil {
		t.Fatalf("LookupByCode() error = %v", err)
	}
	if proj.VerifiedReportURL != firstURL {
		t.Fatalf("report url = %q, want %q", proj.VerifiedReportURL, firstURL)
	}

	// re-attach replaces the report; the next lookup must not serve
	// the stale cached projection
	const secondURL = "https://cdn.example.com/reports/v2.pdf"
	if _, err := svc.AttachReport(created.ID, secondURL); err != nil {
		t.Fatalf("second AttachReport() error = %v", err)
	}

	proj, err = svc.LookupByCode(created.AccessCode)
	if err != nil {
		t.Fatalf("LookupByCode() after re-attach error = %v", err)
	}
	if proj.VerifiedReportURL != secondURL {
		t.Fatalf("report url = %q, want %q after re-attach", proj.VerifiedReportURL, secondURL)
	}
}

func TestSubmit_PublishesEvent(t *testing.T) {
	producer := &fakeProducer{}
	svc := NewVerificationService(newFakeRequestRepo(), newFakeAccountRepo(), producer, nil, nil, false)

	if _, err := svc.Submit(1, validSubmit()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(producer.keys) != 1 || producer.keys[0] != "request.submitted" {
		t.Fatalf("published keys = %v, want [request.submitted]", producer.keys)
	}
}
