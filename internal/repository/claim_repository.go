package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClaimPatch struct {
	ClaimedAmt  *decimal.Decimal
	Description *string
	// Tags replaces the whole tag set when non-nil. An empty slice clears it.
	Tags *[]model.Tag
}

type ClaimRepository interface {
	AttributeRepository[model.Claim, ClaimPatch]
	// Create stores claim for its owner. The referenced policy must belong to the same owner;
	// the claim number is derived from that policy's number.
	Create(ctx context.Context, claim *model.Claim, tags []model.Tag) error
	SetImage(ctx context.Context, scope Scope, id uint, ref string) (*model.Claim, error)
}

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

// List returns the caller's claims, newest first. With assignedOnly only claims attached to a
// policy are returned.
func (r *claimRepository) List(ctx context.Context, scope Scope, assignedOnly bool) ([]model.Claim, error) {
	defer prometheus.TrackDBOperation("claim_list")(time.Now())

	query := scope.apply(r.db.WithContext(ctx).Model(&model.Claim{}))
	if assignedOnly {
		query = query.Where("policy_id IS NOT NULL")
	}

	var claims []model.Claim
	if err := query.Preload("Tags").Order("id DESC").Find(&claims).Error; err != nil {
		return nil, translate(err, "list claims")
	}
	return claims, nil
}

func (r *claimRepository) Get(ctx context.Context, scope Scope, id uint) (*model.Claim, error) {
	defer prometheus.TrackDBOperation("claim_get")(time.Now())

	claim, err := loadClaim(scope.apply(r.db.WithContext(ctx)), id)
	if err != nil {
		return nil, translate(err, "get claim")
	}
	return claim, nil
}

func (r *claimRepository) Create(ctx context.Context, claim *model.Claim, tags []model.Tag) error {
	defer prometheus.TrackDBOperation("claim_create")(time.Now())

	claim.ID = 0
	claim.Tags = nil
	if err := claim.Validate(); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if claim.PolicyID == nil {
			verr := model.NewValidationError()
			verr.Add("policy", "This field is required.")
			return verr
		}

		var policy model.Policy
		err := tx.Where("id = ? AND user_id = ?", *claim.PolicyID, claim.UserID).Take(&policy).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr := model.NewValidationError()
			verr.Add("policy", "Invalid pk - object does not exist.")
			return verr
		}
		if err != nil {
			return err
		}

		claim.ClaimNumber = model.DeriveClaimNumber(policy.PolicyNumber)
		if err := tx.Omit(clause.Associations).Create(claim).Error; err != nil {
			return err
		}

		resolved, err := getOrCreateTags(tx, claim.UserID, tags)
		if err != nil {
			return err
		}
		if err := replaceTags(tx, claim, resolved); err != nil {
			return err
		}

		stored, err := loadClaim(tx, claim.ID)
		if err != nil {
			return err
		}
		*claim = *stored
		return nil
	})
	return rollback(ctx, err, "create claim")
}

func (r *claimRepository) Update(ctx context.Context, scope Scope, id uint, patch ClaimPatch) (*model.Claim, error) {
	defer prometheus.TrackDBOperation("claim_update")(time.Now())

	var updated *model.Claim
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claim model.Claim
		if err := scope.Writer().apply(tx).Where("id = ?", id).Take(&claim).Error; err != nil {
			return err
		}
		if patch.ClaimedAmt != nil {
			claim.ClaimedAmt = *patch.ClaimedAmt
		}
		if patch.Description != nil {
			claim.Description = *patch.Description
		}
		if err := claim.Validate(); err != nil {
			return err
		}
		if err := tx.Model(&claim).Select(model.ClaimWritableColumns).Updates(&claim).Error; err != nil {
			return err
		}

		if patch.Tags != nil {
			tags, err := getOrCreateTags(tx, claim.UserID, *patch.Tags)
			if err != nil {
				return err
			}
			if err := replaceTags(tx, &claim, tags); err != nil {
				return err
			}
		}

		var err error
		updated, err = loadClaim(tx, claim.ID)
		return err
	})
	if err != nil {
		return nil, rollback(ctx, err, "update claim")
	}
	return updated, nil
}

func (r *claimRepository) Delete(ctx context.Context, scope Scope, id uint) error {
	defer prometheus.TrackDBOperation("claim_delete")(time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claim model.Claim
		if err := scope.Writer().apply(tx).Where("id = ?", id).Take(&claim).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM claim_tags WHERE claim_id = ?", claim.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&claim).Error
	})
	return rollback(ctx, err, "delete claim")
}

// SetImage records the storage reference of an uploaded image on the caller's claim.
func (r *claimRepository) SetImage(ctx context.Context, scope Scope, id uint, ref string) (*model.Claim, error) {
	defer prometheus.TrackDBOperation("claim_update")(time.Now())

	var updated *model.Claim
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := scope.Writer().apply(tx.Model(&model.Claim{})).Where("id = ?", id).Update("image", ref)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		var err error
		updated, err = loadClaim(tx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "set claim image")
	}
	return updated, nil
}

func loadClaim(db *gorm.DB, id uint) (*model.Claim, error) {
	var claim model.Claim
	if err := db.Preload("Tags").Where("id = ?", id).Take(&claim).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}
