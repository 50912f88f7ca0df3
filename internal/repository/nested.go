package repository

import (
	"errors"

	"github.com/suteetoe/claimdesk/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// getOrCreateTag returns the caller's tag named like proto, creating it from proto when absent.
// A concurrent insert of the same name is resolved by re-reading the winner's row.
func getOrCreateTag(tx *gorm.DB, userID uint, proto model.Tag) (model.Tag, error) {
	proto.ID = 0
	proto.UserID = userID
	proto.Normalize()
	if err := proto.Validate(); err != nil {
		return model.Tag{}, err
	}

	var tag model.Tag
	err := tx.Where("user_id = ? AND name = ?", userID, proto.Name).Take(&tag).Error
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Tag{}, err
	}

	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&proto)
	if result.Error != nil {
		return model.Tag{}, result.Error
	}
	if result.RowsAffected > 0 {
		return proto, nil
	}
	err = tx.Where("user_id = ? AND name = ?", userID, proto.Name).Take(&tag).Error
	return tag, err
}

// getOrCreateTags resolves every prototype, dropping repeated names.
func getOrCreateTags(tx *gorm.DB, userID uint, protos []model.Tag) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(protos))
	seen := make(map[uint]bool, len(protos))
	for _, proto := range protos {
		tag, err := getOrCreateTag(tx, userID, proto)
		if err != nil {
			return nil, err
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		tags = append(tags, tag)
	}
	return tags, nil
}

// getOrCreateClaim reuses the caller's claim carrying the same description and amount when it is
// detached or already on policy, and creates a new claim for policy otherwise. Claims listed in
// taken were resolved earlier in the same payload and are never reused. A reused claim keeps its tags.
func getOrCreateClaim(tx *gorm.DB, userID uint, policy *model.Policy, proto model.Claim, taken []uint) (model.Claim, error) {
	var claim model.Claim
	q := tx.Where("user_id = ? AND description = ? AND claimed_amt = ?", userID, proto.Description, proto.ClaimedAmt).
		Where("(policy_id IS NULL OR policy_id = ?)", policy.ID)
	if len(taken) > 0 {
		q = q.Where("id NOT IN ?", taken)
	}
	err := q.Order("id").Take(&claim).Error
	switch {
	case err == nil:
		if err := tx.Model(&claim).Update("policy_id", policy.ID).Error; err != nil {
			return model.Claim{}, err
		}
		return claim, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return model.Claim{}, err
	}

	tagProtos := proto.Tags
	claim = model.Claim{
		UserID:      userID,
		PolicyID:    &policy.ID,
		ClaimNumber: model.DeriveClaimNumber(policy.PolicyNumber),
		ClaimedAmt:  proto.ClaimedAmt,
		Description: proto.Description,
	}
	if err := claim.Validate(); err != nil {
		return model.Claim{}, err
	}
	if err := tx.Omit(clause.Associations).Create(&claim).Error; err != nil {
		return model.Claim{}, err
	}

	tags, err := getOrCreateTags(tx, userID, tagProtos)
	if err != nil {
		return model.Claim{}, err
	}
	if err := replaceTags(tx, &claim, tags); err != nil {
		return model.Claim{}, err
	}
	return claim, nil
}

// replaceTags makes tags the exact tag set of owner, which must be a persisted policy or claim.
func replaceTags(tx *gorm.DB, owner interface{}, tags []model.Tag) error {
	assoc := tx.Model(owner).Association("Tags")
	if err := assoc.Clear(); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	return assoc.Append(tags)
}
