package repository

import (
	"context"
	"errors"
	"time"

	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/prometheus"
	"gorm.io/gorm"
)

type TagPatch struct {
	Name        *string
	ClaimStatus *model.ClaimStatus
	Description *string
}

type TagRepository interface {
	AttributeRepository[model.Tag, TagPatch]
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// List returns the caller's tags by name descending. With assignedOnly only tags linked to at
// least one policy or claim are returned.
func (r *tagRepository) List(ctx context.Context, scope Scope, assignedOnly bool) ([]model.Tag, error) {
	defer prometheus.TrackDBOperation("tag_list")(time.Now())

	db := r.db.WithContext(ctx)
	query := scope.apply(db.Model(&model.Tag{}))
	if assignedOnly {
		query = query.Where("(id IN (?) OR id IN (?))",
			db.Table("policy_tags").Select("tag_id"),
			db.Table("claim_tags").Select("tag_id"),
		)
	}

	var tags []model.Tag
	if err := query.Order("name DESC").Find(&tags).Error; err != nil {
		return nil, translate(err, "list tags")
	}
	return tags, nil
}

func (r *tagRepository) Get(ctx context.Context, scope Scope, id uint) (*model.Tag, error) {
	defer prometheus.TrackDBOperation("tag_get")(time.Now())

	var tag model.Tag
	if err := scope.apply(r.db.WithContext(ctx)).Where("id = ?", id).Take(&tag).Error; err != nil {
		return nil, translate(err, "get tag")
	}
	return &tag, nil
}

func (r *tagRepository) Update(ctx context.Context, scope Scope, id uint, patch TagPatch) (*model.Tag, error) {
	defer prometheus.TrackDBOperation("tag_update")(time.Now())

	var tag model.Tag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scope.Writer().apply(tx).Where("id = ?", id).Take(&tag).Error; err != nil {
			return err
		}
		if patch.Name != nil {
			tag.Name = *patch.Name
		}
		if patch.ClaimStatus != nil {
			tag.ClaimStatus = *patch.ClaimStatus
		}
		if patch.Description != nil {
			tag.Description = *patch.Description
		}
		tag.Normalize()
		if err := tag.Validate(); err != nil {
			return err
		}

		var clash model.Tag
		err := tx.Where("user_id = ? AND name = ? AND id <> ?", tag.UserID, tag.Name, tag.ID).Take(&clash).Error
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Model(&tag).Select("name", "claim_status", "description").Updates(&tag).Error
	})
	if err != nil {
		return nil, translate(err, "update tag")
	}
	return &tag, nil
}

// Delete removes the tag and its links to policies and claims.
func (r *tagRepository) Delete(ctx context.Context, scope Scope, id uint) error {
	defer prometheus.TrackDBOperation("tag_delete")(time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag model.Tag
		if err := scope.Writer().apply(tx).Where("id = ?", id).Take(&tag).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM policy_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM claim_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	return translate(err, "delete tag")
}
