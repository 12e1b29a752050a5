package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/degreepass/verification_service/infra/queue"
	"github.com/degreepass/verification_service/internal/apperr"
	"github.com/degreepass/verification_service/internal/domain"
	"github.com/degreepass/verification_service/internal/dto"
	"github.com/degreepass/verification_service/internal/helper"
	"github.com/degreepass/verification_service/internal/helper/utils"
	"github.com/degreepass/verification_service/internal/interfaces"
	"github.com/degreepass/verification_service/internal/repository"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

type AccountService interface {
	// Auth
	Register(input dto.SignupRequest) error
	Login(input dto.LoginRequest) (*dto.LoginResponse, error)

	// Admin: approval gate
	ListPendingStudents() ([]dto.AccountSummary, error)
	ListAll() ([]dto.AccountSummary, error)
	Approve(accountID uint) (*dto.AccountSummary, error)
	Remove(accountID uint) error

	IsAdmin(accountID uint) (bool, error)
	GetAccount(accountID uint) (*domain.Account, error)
}

type accountService struct {
	repo     repository.AccountRepository
	auth     helper.Auth
	producer interfaces.ProducerHandler

	// lookupCache is the public-lookup cache shared with the
	// verification service. Deleting a student must evict the codes of
	// their cascaded requests or the projections keep serving.
	lookupCache *gocache.Cache

	// open question: what happens to a deleted student's requests.
	// Resolved as a deploy-time policy rather than a hardcoded guess.
	cascadeDelete bool
}

func NewAccountService(
	repo repository.AccountRepository,
	producer interfaces.ProducerHandler,
	auth helper.Auth,
	lookupCache *gocache.Cache,
	cascadeDelete bool,
) AccountService {
	return &accountService{
		repo:          repo,
		producer:      producer,
		auth:          auth,
		lookupCache:   lookupCache,
		cascadeDelete: cascadeDelete,
	}
}

func (s *accountService) Register(input dto.SignupRequest) error {
	name := strings.TrimSpace(input.Name)
	email := utils.NormalizeEmail(input.Email)
	password := strings.TrimSpace(input.Password)

	if name == "" {
		return apperr.Required("name")
	}
	if email == "" {
		return apperr.Required("email")
	}
	if _, err := utils.ExtractEmailDomain(email); err != nil {
		return apperr.Validation("email", "invalid email format")
	}
	if password == "" {
		return apperr.Required("password")
	}
	if len(password) < 6 {
		return apperr.Validation("password", "must be at least 6 characters")
	}

	hashed, err := s.auth.HashPassword(password)
	if err != nil {
		return errors.New("failed to hash password")
	}

	acc := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         domain.RoleStudent,
		IsApproved:   false,
	}

	if err := s.repo.Create(acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return apperr.Conflict("email already registered")
		}
		return err
	}

	if s.producer != nil {
		payload := fmt.Sprintf(
			`{"account_id":%d,"email":"%s","registered_at":"%s"}`,
			acc.ID, acc.Email, time.Now().Format(time.RFC3339),
		)
		_ = s.producer.PublishMessage([]byte(queue.EventAccountRegistered), []byte(payload))
	}

	return nil
}

func (s *accountService) Login(input dto.LoginRequest) (*dto.LoginResponse, error) {
	email := utils.NormalizeEmail(input.Email)
	password := strings.TrimSpace(input.Password)

	if email == "" || password == "" {
		return nil, apperr.Auth("invalid email or password")
	}

	acc, err := s.repo.FindByEmail(email)
	if err != nil || acc == nil || acc.ID == 0 {
		return nil, apperr.Auth("invalid email or password")
	}

	if err := s.auth.VerifyPassword(password, acc.PasswordHash); err != nil {
		return nil, apperr.Auth("invalid email or password")
	}

	token, err := s.auth.GenerateToken(int(acc.ID), acc.Email, acc.Role)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  toSummary(acc),
	}, nil
}

func (s *accountService) ListPendingStudents() ([]dto.AccountSummary, error) {
	accs, err := s.repo.ListPendingStudents()
	if err != nil {
		return nil, err
	}

	out := make([]dto.AccountSummary, 0, len(accs))
	for i := range accs {
		out = append(out, toSummary(&accs[i]))
	}
	return out, nil
}

func (s *accountService) ListAll() ([]dto.AccountSummary, error) {
	accs, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}

	out := make([]dto.AccountSummary, 0, len(accs))
	for i := range accs {
		out = append(out, toSummary(&accs[i]))
	}
	return out, nil
}

// Approve flips isApproved one way. Approving an already-approved
// student is a no-op success, not an error.
func (s *accountService) Approve(accountID uint) (*dto.AccountSummary, error) {
	if accountID == 0 {
		return nil, apperr.Validation("accountId", "invalid account id")
	}

	acc, err := s.repo.FindByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student account not found")
		}
		return nil, err
	}
	if acc.Role != domain.RoleStudent {
		return nil, apperr.NotFound("student account not found")
	}

	if !acc.IsApproved {
		acc.IsApproved = true
		if err := s.repo.Save(acc); err != nil {
			return nil, err
		}

		if s.producer != nil {
			payload := fmt.Sprintf(
				`{"account_id":%d,"email":"%s","approved_at":"%s"}`,
				acc.ID, acc.Email, time.Now().Format(time.RFC3339),
			)
			_ = s.producer.PublishMessage([]byte(queue.EventAccountApproved), []byte(payload))
		}
	}

	summary := toSummary(acc)
	return &summary, nil
}

func (s *accountService) Remove(accountID uint) error {
	if accountID == 0 {
		return apperr.Validation("accountId", "invalid account id")
	}

	acc, err := s.repo.FindByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("student account not found")
		}
		return err
	}
	if acc.Role != domain.RoleStudent {
		return apperr.NotFound("student account not found")
	}

	codes, err := s.repo.Delete(accountID, s.cascadeDelete)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("student account not found")
		}
		return err
	}

	if s.lookupCache != nil {
		for _, code := range codes {
			s.lookupCache.Delete(code)
		}
	}
	return nil
}

func (s *accountService) IsAdmin(accountID uint) (bool, error) {
	if accountID == 0 {
		return false, apperr.Auth("unauthorized")
	}

	acc, err := s.repo.FindByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return acc.Role == domain.RoleAdmin, nil
}

func (s *accountService) GetAccount(accountID uint) (*domain.Account, error) {
	if accountID == 0 {
		return nil, apperr.Auth("unauthorized")
	}

	acc, err := s.repo.FindByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("account not found")
		}
		return nil, err
	}
	return acc, nil
}

func toSummary(acc *domain.Account) dto.AccountSummary {
	return dto.AccountSummary{
		ID:         acc.ID,
		Name:       acc.Name,
		Email:      acc.Email,
		Role:       acc.Role,
		IsApproved: acc.IsApproved,
	}
}
