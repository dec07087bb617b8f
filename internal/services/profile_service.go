package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/alphaxx001/bookloop-connect-campus/internal/config"
	"github.com/alphaxx001/bookloop-connect-campus/internal/db"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IProfileService reads the profiles owned by the external auth provider.
type IProfileService interface {
	FindProfileByID(ctx context.Context, userID string) (*models.Profile, error)
}

type profileService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewProfileService creates a new ProfileService.
func NewProfileService(db *mongo.Database, cfg *config.Config) IProfileService {
	return &profileService{db: db, cfg: cfg}
}

// FindProfileByID returns mongo.ErrNoDocuments for unknown users.
func (s *profileService) FindProfileByID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.Collection(db.CollProfiles).FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding profile %s: %w", userID, err)
	}
	return &profile, nil
}
