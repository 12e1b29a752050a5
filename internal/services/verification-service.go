package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/degreepass/verification_service/infra/queue"
	"github.com/degreepass/verification_service/internal/apperr"
	"github.com/degreepass/verification_service/internal/domain"
	"github.com/degreepass/verification_service/internal/dto"
	"github.com/degreepass/verification_service/internal/interfaces"
	"github.com/degreepass/verification_service/internal/repository"
	"github.com/degreepass/verification_service/pkg/utils"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// maskedLookupMsg is deliberately the same for a code that does not
// exist and a code whose request is still PENDING. An unauthenticated
// caller must not be able to tell the two apart.
const maskedLookupMsg = "no verified record found for this access code"

const codeRetryBudget = 5

type VerificationService interface {
	Submit(accountID uint, input dto.SubmitRequest) (*domain.VerificationRequest, error)
	ListAll() ([]dto.AdminRequestResponse, error)
	AttachReport(requestID uint, reportURL string) (*domain.VerificationRequest, error)
	AttachReportFile(ctx context.Context, requestID uint, filename string, file []byte) (*domain.VerificationRequest, error)
	LookupByCode(code string) (*dto.VerifiedProjection, error)
}

type verificationService struct {
	repo        repository.RequestRepository
	accountRepo repository.AccountRepository
	uploader    interfaces.Uploader
	producer    interfaces.ProducerHandler

	// lookupCache holds COMPLETED projections keyed by access code.
	// nil disables caching.
	lookupCache *gocache.Cache

	// open question: the observed UI never blocks submission on account
	// approval, but admins do approve students. Policy knob instead of
	// a guess.
	requireApprovedSubmitter bool
}

func NewVerificationService(
	repo repository.RequestRepository,
	accountRepo repository.AccountRepository,
	producer interfaces.ProducerHandler,
	uploader interfaces.Uploader,
	lookupCache *gocache.Cache,
	requireApprovedSubmitter bool,
) VerificationService {
	return &verificationService{
		repo:                     repo,
		accountRepo:              accountRepo,
		producer:                 producer,
		uploader:                 uploader,
		lookupCache:              lookupCache,
		requireApprovedSubmitter: requireApprovedSubmitter,
	}
}

// Submit validates the payload, generates a collision-free access code
// and creates exactly one PENDING record. Nothing is persisted on any
// validation failure.
func (s *verificationService) Submit(accountID uint, input dto.SubmitRequest) (*domain.VerificationRequest, error) {
	if accountID == 0 {
		return nil, apperr.Auth("unauthorized")
	}

	if err := validateSubmit(&input); err != nil {
		return nil, err
	}

	if s.requireApprovedSubmitter {
		acc, err := s.accountRepo.FindByID(accountID)
		if err != nil {
			return nil, apperr.Auth("unauthorized")
		}
		if acc.Role == domain.RoleStudent && !acc.IsApproved {
			return nil, apperr.Authz("account is awaiting admin approval")
		}
	}

	packageType := strings.TrimSpace(input.PackageType)
	if packageType == "" {
		packageType = domain.DefaultPackageType
	}

	req := &domain.VerificationRequest{
		AccountID:        accountID,
		FullName:         strings.TrimSpace(input.FullName),
		UniversityName:   strings.TrimSpace(input.UniversityName),
		DegreeTitle:      strings.TrimSpace(input.DegreeTitle),
		GraduationYear:   input.GraduationYear,
		RegistrationNo:   strings.TrimSpace(input.RegistrationNo),
		ServiceType:      domain.ServiceType(input.ServiceType),
		PackageType:      packageType,
		DegreeDocURL:     strings.TrimSpace(input.DegreeDoc),
		TranscriptDocURL: strings.TrimSpace(input.TranscriptDoc),
		PassportDocURL:   strings.TrimSpace(input.PassportDoc),
		Status:           domain.RequestStatusPending,
	}

	created := false
	for attempt := 0; attempt < codeRetryBudget; attempt++ {
		code, err := utils.GenerateAccessCode()
		if err != nil {
			return nil, err
		}
		req.AccessCode = code

		err = s.repo.Create(req)
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, repository.ErrDuplicateAccessCode) {
			continue
		}
		return nil, err
	}
	if !created {
		return nil, apperr.Conflict("could not allocate a unique access code")
	}

	if s.producer != nil {
		payload := fmt.Sprintf(
			`{"request_id":%d,"account_id":%d,"service_type":"%s","submitted_at":"%s"}`,
			req.ID, req.AccountID, req.ServiceType, time.Now().Format(time.RFC3339),
		)
		_ = s.producer.PublishMessage([]byte(queue.EventRequestSubmitted), []byte(payload))
	}

	return req, nil
}

func (s *verificationService) ListAll() ([]dto.AdminRequestResponse, error) {
	reqs, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}

	out := make([]dto.AdminRequestResponse, 0, len(reqs))
	for i := range reqs {
		r := &reqs[i]
		out = append(out, dto.AdminRequestResponse{
			ID:             r.ID,
			AccountID:      r.AccountID,
			FullName:       r.FullName,
			UniversityName: r.UniversityName,
			DegreeTitle:    r.DegreeTitle,
			GraduationYear: r.GraduationYear,
			RegistrationNo: r.RegistrationNo,
			ServiceType:    string(r.ServiceType),
			PackageType:    r.PackageType,
			DegreeDoc:      r.DegreeDocURL,
			TranscriptDoc:  r.TranscriptDocURL,
			PassportDoc:    r.PassportDocURL,
			AccessCode:     r.AccessCode,
			Status:         string(r.Status),
			ReportURL:      r.VerifiedReportURL,
			SubmittedAt:    r.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

// AttachReport sets the verified report URL and flips the request to
// COMPLETED. Re-attaching to a COMPLETED request replaces the URL; the
// status never moves back.
func (s *verificationService) AttachReport(requestID uint, reportURL string) (*domain.VerificationRequest, error) {
	if requestID == 0 {
		return nil, apperr.Validation("requestId", "invalid request id")
	}
	reportURL = strings.TrimSpace(reportURL)
	if reportURL == "" {
		return nil, apperr.Required("report_url")
	}

	if err := s.repo.AttachReport(requestID, reportURL); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("verification request not found")
		}
		return nil, err
	}

	req, err := s.repo.FindByID(requestID)
	if err != nil {
		return nil, err
	}

	// drop any stale cached projection for this code
	if s.lookupCache != nil {
		s.lookupCache.Delete(req.AccessCode)
	}

	if s.producer != nil {
		payload := fmt.Sprintf(
			`{"request_id":%d,"account_id":%d,"completed_at":"%s"}`,
			req.ID, req.AccountID, time.Now().Format(time.RFC3339),
		)
		_ = s.producer.PublishMessage([]byte(queue.EventRequestCompleted), []byte(payload))
	}

	return req, nil
}

func (s *verificationService) AttachReportFile(ctx context.Context, requestID uint, filename string, file []byte) (*domain.VerificationRequest, error) {
	if s.uploader == nil {
		return nil, errors.New("uploader is not configured")
	}
	if len(file) == 0 {
		return nil, apperr.Required("file")
	}

	publicID := fmt.Sprintf("report_%s%s", uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.uploader.UploadBytes(ctx, "degreepass/reports", publicID, file)
	if err != nil {
		return nil, fmt.Errorf("upload report failed: %w", err)
	}

	return s.AttachReport(requestID, url)
}

// LookupByCode is the public, possession-based read path. Only a
// COMPLETED request is ever visible, and only as the read-only
// projection.
func (s *verificationService) LookupByCode(code string) (*dto.VerifiedProjection, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperr.NotFound(maskedLookupMsg)
	}

	if s.lookupCache != nil {
		if cached, ok := s.lookupCache.Get(code); ok {
			if proj, ok := cached.(*dto.VerifiedProjection); ok {
				return proj, nil
			}
		}
	}

	req, err := s.repo.FindByAccessCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(maskedLookupMsg)
		}
		return nil, err
	}
	if req.Status != domain.RequestStatusCompleted {
		// same answer as an unknown code, on purpose
		return nil, apperr.NotFound(maskedLookupMsg)
	}

	proj := &dto.VerifiedProjection{
		FullName:          req.FullName,
		UniversityName:    req.UniversityName,
		DegreeTitle:       req.DegreeTitle,
		GraduationYear:    req.GraduationYear,
		ServiceType:       string(req.ServiceType),
		Status:            string(req.Status),
		VerifiedReportURL: req.VerifiedReportURL,
		CreatedAt:         req.CreatedAt.Format(time.RFC3339),
	}

	if s.lookupCache != nil {
		s.lookupCache.Set(code, proj, gocache.DefaultExpiration)
	}

	return proj, nil
}

// validateSubmit reports the first failing field, in form order.
func validateSubmit(input *dto.SubmitRequest) error {
	if strings.TrimSpace(input.FullName) == "" {
		return apperr.Required("fullName")
	}
	if strings.TrimSpace(input.UniversityName) == "" {
		return apperr.Required("universityName")
	}
	if strings.TrimSpace(input.DegreeTitle) == "" {
		return apperr.Required("degreeTitle")
	}
	if input.GraduationYear < 1000 || input.GraduationYear > 9999 {
		return apperr.Validation("graduationYear", "must be a 4-digit year")
	}
	if strings.TrimSpace(input.RegistrationNo) == "" {
		return apperr.Required("registrationNo")
	}
	switch domain.ServiceType(strings.TrimSpace(input.ServiceType)) {
	case domain.ServiceTypeAcademic, domain.ServiceTypeEmployment:
	default:
		return apperr.Validation("serviceType", "must be Academic or Employment")
	}
	if strings.TrimSpace(input.DegreeDoc) == "" {
		return apperr.Required("degreeDoc")
	}
	if strings.TrimSpace(input.TranscriptDoc) == "" {
		return apperr.Required("transcriptDoc")
	}
	if strings.TrimSpace(input.PassportDoc) == "" {
		return apperr.Required("passportDoc")
	}
	return nil
}
