package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the user store. Lookups return common.ErrorNotFound for
// unknown users; Create returns common.ErrorAlreadyExists when the username
// is taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	MarkVerified(ctx context.Context, id string) error
	SetCredential(ctx context.Context, id string, passwordHash string) error
}
