package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/degreepass/verification_service/internal/domain"
	"github.com/degreepass/verification_service/internal/repository"
	"gorm.io/gorm"
)

// In-memory fakes over the repository interfaces so service behavior is
// testable without postgres.

type fakeAccountRepo struct {
	accounts map[uint]*domain.Account
	nextID   uint

	// when set, cascade deletes remove this repo's requests too, the
	// way the real transactional delete does
	requestRepo *fakeRequestRepo

	deletedID      uint
	deletedCascade bool
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uint]*domain.Account), nextID: 1}
}

func (f *fakeAccountRepo) Create(acc *domain.Account) error {
	for _, existing := range f.accounts {
		if existing.Email == acc.Email {
			return repository.ErrDuplicateEmail
		}
	}
	acc.ID = f.nextID
	f.nextID++
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now()
	}
	cp := *acc
	f.accounts[acc.ID] = &cp
	return nil
}

func (f *fakeAccountRepo) FindByEmail(email string) (*domain.Account, error) {
	for _, acc := range f.accounts {
		if acc.Email == email {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountRepo) FindByID(accountID uint) (*domain.Account, error) {
	acc, ok := f.accounts[accountID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccountRepo) Save(acc *domain.Account) error {
	if _, ok := f.accounts[acc.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *acc
	f.accounts[acc.ID] = &cp
	return nil
}

func (f *fakeAccountRepo) ListPendingStudents() ([]domain.Account, error) {
	var out []domain.Account
	for _, acc := range f.accounts {
		if acc.Role == domain.RoleStudent && !acc.IsApproved {
			out = append(out, *acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAccountRepo) ListAll() ([]domain.Account, error) {
	var out []domain.Account
	for _, acc := range f.accounts {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAccountRepo) Delete(accountID uint, cascade bool) ([]string, error) {
	if _, ok := f.accounts[accountID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	delete(f.accounts, accountID)
	f.deletedID = accountID
	f.deletedCascade = cascade

	var codes []string
	if cascade && f.requestRepo != nil {
		for id, req := range f.requestRepo.requests {
			if req.AccountID == accountID {
				codes = append(codes, req.AccessCode)
				delete(f.requestRepo.requests, id)
			}
		}
	}
	return codes, nil
}

type fakeRequestRepo struct {
	requests map[uint]*domain.VerificationRequest
	nextID   uint

	// simulate unique-index collisions on the first N creates
	duplicateFirstN int
	createCalls     int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uint]*domain.VerificationRequest), nextID: 1}
}

func (f *fakeRequestRepo) Create(req *domain.VerificationRequest) error {
	f.createCalls++
	if f.createCalls <= f.duplicateFirstN {
		return repository.ErrDuplicateAccessCode
	}
	for _, existing := range f.requests {
		if existing.AccessCode == req.AccessCode {
			return repository.ErrDuplicateAccessCode
		}
	}
	req.ID = f.nextID
	f.nextID++
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) FindByID(requestID uint) (*domain.VerificationRequest, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestRepo) FindByAccessCode(code string) (*domain.VerificationRequest, error) {
	for _, req := range f.requests {
		if req.AccessCode == code {
			cp := *req
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRequestRepo) ListAll() ([]domain.VerificationRequest, error) {
	var out []domain.VerificationRequest
	for _, req := range f.requests {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRequestRepo) AttachReport(requestID uint, reportURL string) error {
	req, ok := f.requests[requestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	req.Status = domain.RequestStatusCompleted
	req.VerifiedReportURL = reportURL
	return nil
}

type fakeUploader struct {
	calls int
}

func (f *fakeUploader) UploadBytes(_ context.Context, folder, filename string, _ []byte) (string, error) {
	f.calls++
	return fmt.Sprintf("https://cdn.example.com/%s/%s", folder, filename), nil
}

type fakeProducer struct {
	keys []string
}

func (f *fakeProducer) PublishMessage(key, _ []byte) error {
	f.keys = append(f.keys, string(key))
	return nil
}
