package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/internal/testutil"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	users    UserRepository
	policies PolicyRepository
	claims   ClaimRepository
	tags     TagRepository
	alice    *model.User
	bob      *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return &fixture{
		db:       db,
		users:    NewUserRepository(db),
		policies: NewPolicyRepository(db),
		claims:   NewClaimRepository(db),
		tags:     NewTagRepository(db),
		alice:    testutil.CreateUser(t, db, "alice@example.com", "testpass123", false),
		bob:      testutil.CreateUser(t, db, "bob@example.com", "testpass123", false),
	}
}

func newPolicy(owner uint) *model.Policy {
	return &model.Policy{
		UserID:     owner,
		Title:      model.PolicyTitleHealth,
		StartDate:  model.NewDate(2024, time.January, 1),
		EndDate:    model.NewDate(2025, time.January, 1),
		PremiumAmt: decimal.RequireFromString("120.00"),
		SumAssured: decimal.RequireFromString("1000.00"),
		ClaimedAmt: decimal.Zero,
	}
}

func tagNames(tags []model.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

func TestPolicyCreate_NestedTagsAreGetOrCreated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, first, []model.Tag{{Name: "Indian"}, {Name: "Indian"}}, nil))
	require.Len(t, first.Tags, 1)
	assert.NotEmpty(t, first.PolicyNumber)
	assert.Equal(t, model.ClaimStatusRaised, first.Tags[0].ClaimStatus)

	second := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, second, []model.Tag{{Name: "Indian"}, {Name: "Lunch"}}, nil))
	assert.ElementsMatch(t, []string{"Indian", "Lunch"}, tagNames(second.Tags))

	var count int64
	require.NoError(t, f.db.Model(&model.Tag{}).Where("user_id = ?", f.alice.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// same name for another user is a separate tag
	other := newPolicy(f.bob.ID)
	require.NoError(t, f.policies.Create(ctx, other, []model.Tag{{Name: "Indian"}}, nil))
	assert.NotEqual(t, first.Tags[0].ID, other.Tags[0].ID)
}

func TestPolicyCreate_NestedClaimsDeriveNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	claims := []model.Claim{
		{Description: "broken arm", ClaimedAmt: decimal.NewFromInt(10), Tags: []model.Tag{{Name: "Urgent"}}},
		{Description: "dentist", ClaimedAmt: decimal.NewFromInt(5)},
	}
	require.NoError(t, f.policies.Create(ctx, p, nil, claims))
	require.Len(t, p.Claims, 2)
	for _, c := range p.Claims {
		assert.Contains(t, c.ClaimNumber, p.PolicyNumber)
		require.NotNil(t, c.PolicyID)
		assert.Equal(t, p.ID, *c.PolicyID)
		assert.Equal(t, f.alice.ID, c.UserID)
	}
	assert.NotEqual(t, p.Claims[0].ClaimNumber, p.Claims[1].ClaimNumber)
	assert.Equal(t, []string{"Urgent"}, tagNames(p.Claims[0].Tags))
}

func TestPolicyCreate_RepeatedNestedClaimsStayDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	claims := []model.Claim{
		{ClaimedAmt: decimal.NewFromInt(10)},
		{ClaimedAmt: decimal.NewFromInt(20)},
		{Description: "scan", ClaimedAmt: decimal.NewFromInt(5)},
		{Description: "scan", ClaimedAmt: decimal.NewFromInt(5)},
	}
	require.NoError(t, f.policies.Create(ctx, p, nil, claims))
	require.Len(t, p.Claims, 4)

	amounts := make([]string, 0, len(p.Claims))
	for _, c := range p.Claims {
		amounts = append(amounts, c.ClaimedAmt.String())
	}
	assert.ElementsMatch(t, []string{"10", "20", "5", "5"}, amounts)
}

func TestPolicyCreate_NestedClaimOnAnotherPolicyIsNotMoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, first, nil, []model.Claim{{Description: "scan", ClaimedAmt: decimal.NewFromInt(10)}}))
	require.Len(t, first.Claims, 1)

	second := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, second, nil, []model.Claim{{Description: "scan", ClaimedAmt: decimal.NewFromInt(10)}}))
	require.Len(t, second.Claims, 1)
	assert.NotEqual(t, first.Claims[0].ID, second.Claims[0].ID)

	reloaded, err := f.policies.Get(ctx, Owner(f.alice.ID), first.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Claims, 1)
	assert.Equal(t, first.Claims[0].ID, reloaded.Claims[0].ID)

	// a different amount is a different claim, even on the same policy
	other := []model.Claim{{Description: "scan", ClaimedAmt: decimal.NewFromInt(99)}}
	updated, err := f.policies.Update(ctx, Owner(f.alice.ID), first.ID, PolicyPatch{Claims: &other})
	require.NoError(t, err)
	require.Len(t, updated.Claims, 1)
	assert.NotEqual(t, first.Claims[0].ID, updated.Claims[0].ID)
	assert.Equal(t, "99", updated.Claims[0].ClaimedAmt.String())
}

func TestPolicyUpdate_MatchingNestedClaimIsReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	same := []model.Claim{{Description: "scan", ClaimedAmt: decimal.NewFromInt(10)}}
	require.NoError(t, f.policies.Create(ctx, p, nil, same))
	claimID := p.Claims[0].ID

	updated, err := f.policies.Update(ctx, Owner(f.alice.ID), p.ID, PolicyPatch{Claims: &same})
	require.NoError(t, err)
	require.Len(t, updated.Claims, 1)
	assert.Equal(t, claimID, updated.Claims[0].ID, "claim already on the policy is kept")

	none := []model.Claim{}
	_, err = f.policies.Update(ctx, Owner(f.alice.ID), p.ID, PolicyPatch{Claims: &none})
	require.NoError(t, err)

	// a detached claim is picked up by the next policy that names it
	next := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, next, nil, same))
	require.Len(t, next.Claims, 1)
	assert.Equal(t, claimID, next.Claims[0].ID)

	var count int64
	require.NoError(t, f.db.Model(&model.Claim{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPolicyCreate_InvalidIsRejectedWithoutWrites(t *testing.T) {
	f := newFixture(t)
	p := newPolicy(f.alice.ID)
	p.ClaimedAmt = decimal.NewFromInt(5000)

	err := f.policies.Create(context.Background(), p, []model.Tag{{Name: "Indian"}}, nil)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Claimed amount cannot exceed sum assured.", verr.Fields["claimedAmt"])

	var count int64
	require.NoError(t, f.db.Model(&model.Tag{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPolicyCreate_FailingNestedTagRollsBack(t *testing.T) {
	f := newFixture(t)
	p := newPolicy(f.alice.ID)

	err := f.policies.Create(context.Background(), p, []model.Tag{{Name: "ok"}, {Name: "   "}}, nil)
	require.Error(t, err)

	var policies, tags int64
	require.NoError(t, f.db.Model(&model.Policy{}).Count(&policies).Error)
	require.NoError(t, f.db.Model(&model.Tag{}).Count(&tags).Error)
	assert.Zero(t, policies)
	assert.Zero(t, tags)
}

func TestPolicyScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, nil, nil))

	_, err := f.policies.Get(ctx, Owner(f.bob.ID), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := f.policies.List(ctx, Owner(f.bob.ID), PolicyFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	desc := "hijack"
	_, err = f.policies.Update(ctx, Owner(f.bob.ID), p.ID, PolicyPatch{Description: &desc})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.policies.Delete(ctx, Owner(f.bob.ID), p.ID), ErrNotFound)

	staff := Scope{UserID: f.bob.ID, Staff: true}
	got, err := f.policies.Get(ctx, staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.policies.Update(ctx, staff, p.ID, PolicyPatch{Description: &desc})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPolicyList_FiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, a, []model.Tag{{Name: "t1"}, {Name: "t2"}}, nil))
	b := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, b, []model.Tag{{Name: "t2"}}, []model.Claim{{Description: "c1"}}))
	c := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, c, nil, nil))

	all, err := f.policies.List(ctx, Owner(f.alice.ID), PolicyFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{c.ID, b.ID, a.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})

	t1, t2 := a.Tags[0].ID, a.Tags[1].ID
	if a.Tags[0].Name != "t1" {
		t1, t2 = t2, t1
	}

	byTag, err := f.policies.List(ctx, Owner(f.alice.ID), PolicyFilter{TagIDs: []uint{t1, t2}})
	require.NoError(t, err)
	require.Len(t, byTag, 2, "a policy matching several tags is listed once")

	byBoth, err := f.policies.List(ctx, Owner(f.alice.ID), PolicyFilter{TagIDs: []uint{t2}, ClaimIDs: []uint{b.Claims[0].ID}})
	require.NoError(t, err)
	require.Len(t, byBoth, 1)
	assert.Equal(t, b.ID, byBoth[0].ID)
}

func TestPolicyUpdate_ReplacesCollections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, []model.Tag{{Name: "old"}}, []model.Claim{{Description: "first"}}))
	number := p.PolicyNumber
	oldClaimID := p.Claims[0].ID

	newTags := []model.Tag{{Name: "new"}}
	newClaims := []model.Claim{{Description: "second", ClaimedAmt: decimal.NewFromInt(3)}}
	updated, err := f.policies.Update(ctx, Owner(f.alice.ID), p.ID, PolicyPatch{Tags: &newTags, Claims: &newClaims})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, tagNames(updated.Tags))
	require.Len(t, updated.Claims, 1)
	assert.Equal(t, "second", updated.Claims[0].Description)
	assert.Equal(t, number, updated.PolicyNumber)

	detached, err := f.claims.Get(ctx, Owner(f.alice.ID), oldClaimID)
	require.NoError(t, err)
	assert.Nil(t, detached.PolicyID)

	empty := []model.Tag{}
	cleared, err := f.policies.Update(ctx, Owner(f.alice.ID), p.ID, PolicyPatch{Tags: &empty})
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)
	assert.Len(t, cleared.Claims, 1, "claims untouched when not supplied")
}

func TestPolicyUpdate_PartialKeepsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, nil, nil))

	end := model.NewDate(2023, time.June, 1)
	_, err := f.policies.Update(ctx, Owner(f.alice.ID), p.ID, PolicyPatch{EndDate: &end})
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "endDate")

	title := model.PolicyTitleTravel
	updated, err := f.policies.Update(ctx, Owner(f.alice.ID), p.ID, PolicyPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, model.PolicyTitleTravel, updated.Title)
	assert.Equal(t, "2025-01-01", updated.EndDate.String())
}

func TestPolicyDelete_CascadesClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, []model.Tag{{Name: "x"}},
		[]model.Claim{{Description: "c", Tags: []model.Tag{{Name: "y"}}}}))
	require.NoError(t, f.policies.Delete(ctx, Owner(f.alice.ID), p.ID))

	var claims, links int64
	require.NoError(t, f.db.Model(&model.Claim{}).Count(&claims).Error)
	require.NoError(t, f.db.Table("claim_tags").Count(&links).Error)
	assert.Zero(t, claims)
	assert.Zero(t, links)

	tags, err := f.tags.List(ctx, Owner(f.alice.ID), false)
	require.NoError(t, err)
	assert.Len(t, tags, 2, "tags survive their policies")

	_, err = f.policies.Get(ctx, Owner(f.alice.ID), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPolicySetImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, nil, nil))

	_, err := f.policies.SetImage(ctx, Owner(f.bob.ID), p.ID, "uploads/policy/x.png")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.policies.SetImage(ctx, Owner(f.alice.ID), p.ID, "uploads/policy/x.png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/policy/x.png", updated.Image)
}

func TestTagList_AssignedOnlyAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, []model.Tag{{Name: "Alpha"}},
		[]model.Claim{{Description: "c", Tags: []model.Tag{{Name: "Charlie"}}}}))
	require.NoError(t, f.db.Create(&model.Tag{UserID: f.alice.ID, Name: "Bravo", ClaimStatus: model.ClaimStatusRaised}).Error)
	require.NoError(t, f.db.Create(&model.Tag{UserID: f.bob.ID, Name: "Zulu", ClaimStatus: model.ClaimStatusRaised}).Error)

	all, err := f.tags.List(ctx, Owner(f.alice.ID), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Charlie", "Bravo", "Alpha"}, tagNames(all))

	assigned, err := f.tags.List(ctx, Owner(f.alice.ID), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Charlie", "Alpha"}, tagNames(assigned))
}

func TestTagUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, []model.Tag{{Name: "one"}, {Name: "two"}}, nil))
	one := p.Tags[0]
	if one.Name != "one" {
		one = p.Tags[1]
	}

	status := model.ClaimStatusAccepted
	updated, err := f.tags.Update(ctx, Owner(f.alice.ID), one.ID, TagPatch{ClaimStatus: &status})
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusAccepted, updated.ClaimStatus)
	assert.Equal(t, "one", updated.Name)

	clash := "two"
	_, err = f.tags.Update(ctx, Owner(f.alice.ID), one.ID, TagPatch{Name: &clash})
	assert.ErrorIs(t, err, ErrConflict)

	bad := model.ClaimStatus("LOST")
	_, err = f.tags.Update(ctx, Owner(f.alice.ID), one.ID, TagPatch{ClaimStatus: &bad})
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))

	assert.ErrorIs(t, f.tags.Delete(ctx, Owner(f.bob.ID), one.ID), ErrNotFound)
	require.NoError(t, f.tags.Delete(ctx, Owner(f.alice.ID), one.ID))

	got, err := f.policies.Get(ctx, Owner(f.alice.ID), p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, tagNames(got.Tags))
}

func TestClaimCreate_RequiresOwnedPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, nil, nil))

	stolen := &model.Claim{UserID: f.bob.ID, PolicyID: &p.ID, Description: "nope"}
	err := f.claims.Create(ctx, stolen, nil)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "policy")

	claim := &model.Claim{UserID: f.alice.ID, PolicyID: &p.ID, Description: "ok", ClaimedAmt: decimal.NewFromInt(7)}
	require.NoError(t, f.claims.Create(ctx, claim, []model.Tag{{Name: "Pending", ClaimStatus: model.ClaimStatusInProgress}}))
	assert.Contains(t, claim.ClaimNumber, p.PolicyNumber)
	require.Len(t, claim.Tags, 1)
	assert.Equal(t, model.ClaimStatusInProgress, claim.Tags[0].ClaimStatus)
}

func TestClaimUpdateListDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, nil, []model.Claim{{Description: "attached"}}))
	loose := &model.Claim{UserID: f.alice.ID, PolicyID: &p.ID, Description: "loose"}
	require.NoError(t, f.claims.Create(ctx, loose, []model.Tag{{Name: "a"}}))
	require.NoError(t, f.db.Model(&model.Claim{}).Where("id = ?", loose.ID).Update("policy_id", nil).Error)

	all, err := f.claims.List(ctx, Owner(f.alice.ID), false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, loose.ID, all[0].ID)

	assigned, err := f.claims.List(ctx, Owner(f.alice.ID), true)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "attached", assigned[0].Description)

	amount := decimal.RequireFromString("12.50")
	tags := []model.Tag{}
	updated, err := f.claims.Update(ctx, Owner(f.alice.ID), loose.ID, ClaimPatch{ClaimedAmt: &amount, Tags: &tags})
	require.NoError(t, err)
	assert.True(t, amount.Equal(updated.ClaimedAmt))
	assert.Empty(t, updated.Tags)
	assert.Equal(t, loose.ClaimNumber, updated.ClaimNumber)

	_, err = f.claims.Update(ctx, Owner(f.bob.ID), loose.ID, ClaimPatch{ClaimedAmt: &amount})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.claims.Delete(ctx, Owner(f.alice.ID), loose.ID))
	_, err = f.claims.Get(ctx, Owner(f.alice.ID), loose.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := &model.User{Email: "Carol@EXAMPLE.com", Name: "Carol"}
	require.NoError(t, f.users.Create(ctx, u, "testpass123"))
	assert.Equal(t, "Carol@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsStaff)

	dup := &model.User{Email: "Carol@example.com"}
	assert.ErrorIs(t, f.users.Create(ctx, dup, "testpass123"), ErrConflict)

	got, err := f.users.GetByEmail(ctx, "Carol@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.CheckPassword("testpass123"))

	name, password := "Caroline", "newpass456"
	updated, err := f.users.Update(ctx, u.ID, UserPatch{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Caroline", updated.Name)
	assert.True(t, updated.CheckPassword("newpass456"))

	taken := "alice@example.com"
	_, err = f.users.Update(ctx, u.ID, UserPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	admin := &model.User{Email: "root@example.com"}
	require.NoError(t, f.users.CreateSuperuser(ctx, admin, "rootpass"))
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.IsSuperuser)

	_, err = f.users.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompanyRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companies := NewCompanyRepository(f.db)

	c := &model.Company{Email: "claims@insurer.com", Name: "Insurer", IsActive: true}
	require.NoError(t, companies.Create(ctx, c))
	assert.ErrorIs(t, companies.Create(ctx, &model.Company{Email: "claims@insurer.com", Name: "Other"}), ErrConflict)

	var verr *model.ValidationError
	assert.True(t, errors.As(companies.Create(ctx, &model.Company{Email: "x@y.z"}), &verr))

	inactive := false
	updated, err := companies.Update(ctx, c.ID, CompanyPatch{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	list, err := companies.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, companies.Delete(ctx, c.ID))
	assert.ErrorIs(t, companies.Delete(ctx, c.ID), ErrNotFound)
}

func TestFailedWriteIsLoggedWithRequestLogger(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core).With(zap.String("request_id", "req-1")))

	p := newPolicy(f.alice.ID)
	require.NoError(t, f.policies.Create(ctx, p, nil, nil))

	_, err := f.policies.Get(ctx, Owner(f.bob.ID), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.policies.Delete(ctx, Owner(f.bob.ID), p.ID), ErrNotFound)
	assert.Zero(t, logs.Len(), "expected errors are not logged")

	require.NoError(t, f.db.Migrator().DropTable("claim_tags"))
	err = f.policies.Delete(ctx, Owner(f.alice.ID), p.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	entries := logs.FilterMessage("Transaction rolled back").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "delete policy", fields["operation"])
	assert.Equal(t, "req-1", fields["request_id"])

	var count int64
	require.NoError(t, f.db.Model(&model.Policy{}).Where("id = ?", p.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "policy survives the rolled back delete")
}
