package repository

import (
	"errors"
	"log"

	"github.com/degreepass/verification_service/internal/domain"
	"github.com/degreepass/verification_service/internal/helper"
	"gorm.io/gorm"
)

// ErrDuplicateEmail surfaces the unique index on accounts.email so the
// service can answer with a conflict instead of a bare 500.
var ErrDuplicateEmail = errors.New("email already exists")

type AccountRepository interface {
	Create(acc *domain.Account) error
	FindByEmail(email string) (*domain.Account, error)
	FindByID(accountID uint) (*domain.Account, error)
	Save(acc *domain.Account) error

	ListPendingStudents() ([]domain.Account, error)
	ListAll() ([]domain.Account, error)

	// Delete removes the account and, when cascade is set, every
	// verification request it owns, in one transaction. It returns the
	// access codes of the removed requests so callers can evict any
	// cached projections for them.
	Delete(accountID uint, cascade bool) ([]string, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(acc *domain.Account) error {
	if acc == nil {
		return errors.New("nil account")
	}
	if err := r.db.Create(acc).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		log.Printf("create account error: %v", err)
		return err
	}
	return nil
}

func (r *accountRepository) FindByEmail(email string) (*domain.Account, error) {
	acc := &domain.Account{}
	if err := r.db.First(acc, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *accountRepository) FindByID(accountID uint) (*domain.Account, error) {
	acc := &domain.Account{}
	if err := r.db.First(acc, accountID).Error; err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *accountRepository) Save(acc *domain.Account) error {
	if acc == nil {
		return errors.New("nil account")
	}
	if err := r.db.Save(acc).Error; err != nil {
		log.Printf("save account error: %v", err)
		return err
	}
	return nil
}

func (r *accountRepository) ListPendingStudents() ([]domain.Account, error) {
	var accs []domain.Account
	err := r.db.
		Where("role = ? AND is_approved = ?", domain.RoleStudent, false).
		Order("created_at ASC").
		Find(&accs).Error
	if err != nil {
		return nil, err
	}
	return accs, nil
}

func (r *accountRepository) ListAll() ([]domain.Account, error) {
	var accs []domain.Account
	if err := r.db.Order("created_at ASC").Find(&accs).Error; err != nil {
		return nil, err
	}
	return accs, nil
}

func (r *accountRepository) Delete(accountID uint, cascade bool) ([]string, error) {
	var codes []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Account{}, accountID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if cascade {
			if err := tx.Model(&domain.VerificationRequest{}).
				Where("account_id = ?", accountID).
				Pluck("access_code", &codes).Error; err != nil {
				return err
			}
			return tx.Where("account_id = ?", accountID).
				Delete(&domain.VerificationRequest{}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}
