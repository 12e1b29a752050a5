package repository

import (
	"errors"
	"log"

	"github.com/degreepass/verification_service/internal/domain"
	"github.com/degreepass/verification_service/internal/helper"
	"gorm.io/gorm"
)

// ErrDuplicateAccessCode is returned when an insert hits the unique
// index on the access code. The service retries generation on it.
var ErrDuplicateAccessCode = errors.New("access code already exists")

type RequestRepository interface {
	Create(req *domain.VerificationRequest) error
	FindByID(requestID uint) (*domain.VerificationRequest, error)
	FindByAccessCode(code string) (*domain.VerificationRequest, error)
	ListAll() ([]domain.VerificationRequest, error)

	// AttachReport sets the report URL and flips the status to
	// COMPLETED in one guarded update.
	AttachReport(requestID uint, reportURL string) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(req *domain.VerificationRequest) error {
	if req == nil {
		return errors.New("nil request")
	}
	if err := r.db.Create(req).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return ErrDuplicateAccessCode
		}
		log.Printf("create verification request error: %v", err)
		return err
	}
	return nil
}

func (r *requestRepository) FindByID(requestID uint) (*domain.VerificationRequest, error) {
	var req domain.VerificationRequest
	if err := r.db.First(&req, requestID).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByAccessCode(code string) (*domain.VerificationRequest, error) {
	var req domain.VerificationRequest
	if err := r.db.Where("access_code = ?", code).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListAll() ([]domain.VerificationRequest, error) {
	var reqs []domain.VerificationRequest
	if err := r.db.Order("created_at ASC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestRepository) AttachReport(requestID uint, reportURL string) error {
	res := r.db.Model(&domain.VerificationRequest{}).
		Where("id = ?", requestID).
		Updates(map[string]any{
			"status":              domain.RequestStatusCompleted,
			"verified_report_url": reportURL,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
