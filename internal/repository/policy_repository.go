package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PolicyFilter narrows a policy listing. Both lists are optional and are ANDed together:
// a policy matches when it carries any of TagIDs and owns any of ClaimIDs.
type PolicyFilter struct {
	TagIDs   []uint
	ClaimIDs []uint
}

// PolicyPatch carries the changeable fields of a policy. Nil fields are left untouched.
// Tags and Claims replace the whole collection when non-nil; an empty slice clears it.
type PolicyPatch struct {
	Title       *model.PolicyTitle
	Description *string
	StartDate   *model.Date
	EndDate     *model.Date
	PremiumAmt  *decimal.Decimal
	SumAssured  *decimal.Decimal
	ClaimedAmt  *decimal.Decimal
	Tags        *[]model.Tag
	Claims      *[]model.Claim
}

func (p PolicyPatch) apply(policy *model.Policy) {
	if p.Title != nil {
		policy.Title = *p.Title
	}
	if p.Description != nil {
		policy.Description = *p.Description
	}
	if p.StartDate != nil {
		policy.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		policy.EndDate = *p.EndDate
	}
	if p.PremiumAmt != nil {
		policy.PremiumAmt = *p.PremiumAmt
	}
	if p.SumAssured != nil {
		policy.SumAssured = *p.SumAssured
	}
	if p.ClaimedAmt != nil {
		policy.ClaimedAmt = *p.ClaimedAmt
	}
}

type PolicyRepository interface {
	List(ctx context.Context, scope Scope, filter PolicyFilter) ([]model.Policy, error)
	Get(ctx context.Context, scope Scope, id uint) (*model.Policy, error)
	// Create stores policy for policy.UserID together with its nested tags and claims.
	Create(ctx context.Context, policy *model.Policy, tags []model.Tag, claims []model.Claim) error
	Update(ctx context.Context, scope Scope, id uint, patch PolicyPatch) (*model.Policy, error)
	// Delete removes the policy along with its claims and tag links.
	Delete(ctx context.Context, scope Scope, id uint) error
	SetImage(ctx context.Context, scope Scope, id uint, ref string) (*model.Policy, error)
}

type policyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db: db}
}

func (r *policyRepository) List(ctx context.Context, scope Scope, filter PolicyFilter) ([]model.Policy, error) {
	defer prometheus.TrackDBOperation("policy_list")(time.Now())

	db := r.db.WithContext(ctx)
	query := scope.apply(db.Model(&model.Policy{}))
	if len(filter.TagIDs) > 0 {
		query = query.Where("id IN (?)",
			db.Table("policy_tags").Select("policy_id").Where("tag_id IN ?", filter.TagIDs))
	}
	if len(filter.ClaimIDs) > 0 {
		query = query.Where("id IN (?)",
			db.Model(&model.Claim{}).Select("policy_id").Where("id IN ? AND policy_id IS NOT NULL", filter.ClaimIDs))
	}

	var policies []model.Policy
	if err := withAssociations(query).Order("id DESC").Find(&policies).Error; err != nil {
		return nil, translate(err, "list policies")
	}
	return policies, nil
}

func (r *policyRepository) Get(ctx context.Context, scope Scope, id uint) (*model.Policy, error) {
	defer prometheus.TrackDBOperation("policy_get")(time.Now())

	policy, err := loadPolicy(scope.apply(r.db.WithContext(ctx)), id)
	if err != nil {
		return nil, translate(err, "get policy")
	}
	return policy, nil
}

func (r *policyRepository) Create(ctx context.Context, policy *model.Policy, tags []model.Tag, claims []model.Claim) error {
	defer prometheus.TrackDBOperation("policy_create")(time.Now())

	policy.ID = 0
	policy.PolicyNumber = ""
	policy.Tags = nil
	policy.Claims = nil
	if err := policy.Validate(); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(policy).Error; err != nil {
			return err
		}
		if err := r.attach(tx, policy, &tags, &claims); err != nil {
			return err
		}

		stored, err := loadPolicy(tx, policy.ID)
		if err != nil {
			return err
		}
		*policy = *stored
		return nil
	})
	return rollback(ctx, err, "create policy")
}

func (r *policyRepository) Update(ctx context.Context, scope Scope, id uint, patch PolicyPatch) (*model.Policy, error) {
	defer prometheus.TrackDBOperation("policy_update")(time.Now())

	var updated *model.Policy
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var policy model.Policy
		if err := scope.Writer().apply(tx).Where("id = ?", id).Take(&policy).Error; err != nil {
			return err
		}
		patch.apply(&policy)
		if err := policy.Validate(); err != nil {
			return err
		}
		if err := tx.Model(&policy).Select(model.PolicyWritableColumns).Updates(&policy).Error; err != nil {
			return err
		}
		if err := r.attach(tx, &policy, patch.Tags, patch.Claims); err != nil {
			return err
		}

		var err error
		updated, err = loadPolicy(tx, policy.ID)
		return err
	})
	if err != nil {
		return nil, rollback(ctx, err, "update policy")
	}
	return updated, nil
}

// attach replaces the tag and claim collections of a persisted policy. A nil pointer leaves
// that collection untouched. Claims dropped from the policy are detached, not deleted.
func (r *policyRepository) attach(tx *gorm.DB, policy *model.Policy, tags *[]model.Tag, claims *[]model.Claim) error {
	if tags != nil {
		resolved, err := getOrCreateTags(tx, policy.UserID, *tags)
		if err != nil {
			return err
		}
		if err := replaceTags(tx, policy, resolved); err != nil {
			return err
		}
	}

	if claims != nil {
		err := tx.Model(&model.Claim{}).Where("policy_id = ?", policy.ID).Update("policy_id", nil).Error
		if err != nil {
			return err
		}
		taken := make([]uint, 0, len(*claims))
		for _, proto := range *claims {
			claim, err := getOrCreateClaim(tx, policy.UserID, policy, proto, taken)
			if err != nil {
				return err
			}
			taken = append(taken, claim.ID)
		}
	}
	return nil
}

func (r *policyRepository) Delete(ctx context.Context, scope Scope, id uint) error {
	defer prometheus.TrackDBOperation("policy_delete")(time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var policy model.Policy
		if err := scope.Writer().apply(tx).Where("id = ?", id).Take(&policy).Error; err != nil {
			return err
		}

		claimIDs := tx.Model(&model.Claim{}).Select("id").Where("policy_id = ?", policy.ID)
		if err := tx.Exec("DELETE FROM claim_tags WHERE claim_id IN (?)", claimIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("policy_id = ?", policy.ID).Delete(&model.Claim{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM policy_tags WHERE policy_id = ?", policy.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&policy).Error
	})
	return rollback(ctx, err, "delete policy")
}

// SetImage records the storage reference of an uploaded image on the caller's policy.
func (r *policyRepository) SetImage(ctx context.Context, scope Scope, id uint, ref string) (*model.Policy, error) {
	defer prometheus.TrackDBOperation("policy_update")(time.Now())

	var updated *model.Policy
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := scope.Writer().apply(tx.Model(&model.Policy{})).Where("id = ?", id).Update("image", ref)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		var err error
		updated, err = loadPolicy(tx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "set policy image")
	}
	return updated, nil
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags").
		Preload("Claims", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Claims.Tags")
}

func loadPolicy(db *gorm.DB, id uint) (*model.Policy, error) {
	var policy model.Policy
	if err := withAssociations(db).Where("id = ?", id).Take(&policy).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}
