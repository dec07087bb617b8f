package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/alphaxx001/bookloop-connect-campus/internal/config"
	"github.com/alphaxx001/bookloop-connect-campus/internal/db"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IBookGroupService reads curriculum bundles.
type IBookGroupService interface {
	ListBookGroups(ctx context.Context) ([]models.BookGroup, error)
	FindBookGroupByID(ctx context.Context, id utils.SixID) (*models.BookGroup, error)
}

type bookGroupService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewBookGroupService creates a new BookGroupService.
func NewBookGroupService(db *mongo.Database, cfg *config.Config) IBookGroupService {
	return &bookGroupService{db: db, cfg: cfg}
}

// ListBookGroups returns every group sorted by name.
func (s *bookGroupService) ListBookGroups(ctx context.Context) ([]models.BookGroup, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.db.Collection(db.CollBookGroups).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list book groups: %w", err)
	}
	defer cursor.Close(ctx)

	groups := []models.BookGroup{}
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode book groups: %w", err)
	}
	return groups, nil
}

func (s *bookGroupService) FindBookGroupByID(ctx context.Context, id utils.SixID) (*models.BookGroup, error) {
	var group models.BookGroup
	err := s.db.Collection(db.CollBookGroups).FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding book group %s: %w", id.String(), err)
	}
	return &group, nil
}
