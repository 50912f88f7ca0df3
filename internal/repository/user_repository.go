package repository

import (
	"context"
	"errors"
	"time"

	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/prometheus"
	"gorm.io/gorm"
)

// UserPatch carries the changeable fields of an account. Nil fields are left untouched.
type UserPatch struct {
	Email    *string
	Name     *string
	Password *string
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User, password string) error
	CreateSuperuser(ctx context.Context, user *model.User, password string) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id uint, patch UserPatch) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create stores a regular active account. The password is hashed before it is written.
func (r *userRepository) Create(ctx context.Context, user *model.User, password string) error {
	defer prometheus.TrackDBOperation("user_create")(time.Now())

	user.IsActive = true
	user.IsStaff = false
	user.IsSuperuser = false
	return r.create(ctx, user, password)
}

// CreateSuperuser stores an account with staff and superuser privileges.
func (r *userRepository) CreateSuperuser(ctx context.Context, user *model.User, password string) error {
	defer prometheus.TrackDBOperation("user_create")(time.Now())

	user.IsActive = true
	user.IsStaff = true
	user.IsSuperuser = true
	return r.create(ctx, user, password)
}

func (r *userRepository) create(ctx context.Context, user *model.User, password string) error {
	user.Email = model.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return err
	}
	if password == "" {
		verr := model.NewValidationError()
		verr.Add("password", "This field is required.")
		return verr
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := emailTaken(tx, user.Email, 0); err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	return translate(err, "create user")
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get")(time.Now())

	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get")(time.Now())

	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

// Update changes the caller's own account. A new password is hashed before it is stored.
func (r *userRepository) Update(ctx context.Context, id uint, patch UserPatch) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_update")(time.Now())

	var user model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		if patch.Email != nil {
			user.Email = model.NormalizeEmail(*patch.Email)
		}
		if patch.Name != nil {
			user.Name = *patch.Name
		}
		if err := user.Validate(); err != nil {
			return err
		}
		if patch.Password != nil {
			if *patch.Password == "" {
				verr := model.NewValidationError()
				verr.Add("password", "This field may not be blank.")
				return verr
			}
			if err := user.SetPassword(*patch.Password); err != nil {
				return err
			}
		}
		if err := emailTaken(tx, user.Email, user.ID); err != nil {
			return err
		}

		return tx.Model(&user).Select("email", "name", "password").Updates(&user).Error
	})
	if err != nil {
		return nil, translate(err, "update user")
	}
	return &user, nil
}

func emailTaken(tx *gorm.DB, email string, exceptID uint) error {
	var existing model.User
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
