package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnold-1324/twitterClone-sub000/internal/apperr"
	"github.com/arnold-1324/twitterClone-sub000/internal/db"
	"github.com/arnold-1324/twitterClone-sub000/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository is the identity lookup collaborator. The messaging core only
// reads users; their lifecycle is owned by the external account service.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
}

func NewUserRepository(mongoRepo *db.Repository[model.User]) UserRepository {
	return &userRepository{mongoRepo: mongoRepo}
}

func (r *userRepository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperr.ErrValidation)
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("user_id", userID).Build()
	user, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
		}
		return nil, wrapStorageErr("get user", err)
	}
	return user, nil
}
