package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/campaign-portal/internal/auth"
	userDatamodel "github.com/frahmantamala/campaign-portal/internal/core/datamodel/user"
	"gorm.io/gorm"
)

// Repository authenticates against the local users table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	var user userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", email, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	return &auth.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Roles: auth.RolesFor(user.Role),
	}, nil
}

// SignInWithProvider is only served by the remote backend.
func (r *Repository) SignInWithProvider(context.Context, string, string) (*auth.Identity, error) {
	return nil, auth.ErrProviderUnsupported
}

// CreateUser stores a user with a hashed password. Used by the seeder.
func (r *Repository) CreateUser(ctx context.Context, user *userDatamodel.User, password string, cost int) error {
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return r.db.WithContext(ctx).
		Where(userDatamodel.User{Email: user.Email}).
		Assign(userDatamodel.User{Name: user.Name, PasswordHash: hash, Role: user.Role, IsActive: true}).
		FirstOrCreate(user).Error
}
