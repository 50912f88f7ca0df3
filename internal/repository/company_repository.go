package repository

import (
	"context"
	"errors"
	"time"

	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/prometheus"
	"gorm.io/gorm"
)

type CompanyPatch struct {
	Email    *string
	Name     *string
	IsActive *bool
	IsStaff  *bool
}

// CompanyRepository manages the staff-only company directory.
type CompanyRepository interface {
	List(ctx context.Context) ([]model.Company, error)
	Get(ctx context.Context, id uint) (*model.Company, error)
	Create(ctx context.Context, company *model.Company) error
	Update(ctx context.Context, id uint, patch CompanyPatch) (*model.Company, error)
	Delete(ctx context.Context, id uint) error
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) List(ctx context.Context) ([]model.Company, error) {
	defer prometheus.TrackDBOperation("company_list")(time.Now())

	var companies []model.Company
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&companies).Error; err != nil {
		return nil, translate(err, "list companies")
	}
	return companies, nil
}

func (r *companyRepository) Get(ctx context.Context, id uint) (*model.Company, error) {
	defer prometheus.TrackDBOperation("company_get")(time.Now())

	var company model.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, translate(err, "get company")
	}
	return &company, nil
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	defer prometheus.TrackDBOperation("company_create")(time.Now())

	company.Email = model.NormalizeEmail(company.Email)
	if err := company.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := companyEmailTaken(tx, company.Email, 0); err != nil {
			return err
		}
		return tx.Create(company).Error
	})
	return translate(err, "create company")
}

func (r *companyRepository) Update(ctx context.Context, id uint, patch CompanyPatch) (*model.Company, error) {
	defer prometheus.TrackDBOperation("company_update")(time.Now())

	var company model.Company
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&company, id).Error; err != nil {
			return err
		}
		if patch.Email != nil {
			company.Email = model.NormalizeEmail(*patch.Email)
		}
		if patch.Name != nil {
			company.Name = *patch.Name
		}
		if patch.IsActive != nil {
			company.IsActive = *patch.IsActive
		}
		if patch.IsStaff != nil {
			company.IsStaff = *patch.IsStaff
		}
		if err := company.Validate(); err != nil {
			return err
		}
		if err := companyEmailTaken(tx, company.Email, company.ID); err != nil {
			return err
		}
		return tx.Model(&company).Select("email", "name", "is_active", "is_staff").Updates(&company).Error
	})
	if err != nil {
		return nil, translate(err, "update company")
	}
	return &company, nil
}

func (r *companyRepository) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("company_delete")(time.Now())

	result := r.db.WithContext(ctx).Delete(&model.Company{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete company")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func companyEmailTaken(tx *gorm.DB, email string, exceptID uint) error {
	var existing model.Company
	err := tx.Where("email = ? AND id <> ?", email, exceptID).Take(&existing).Error
	switch {
	case err == nil:
		return ErrConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}
