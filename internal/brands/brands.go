// Package brands keeps the registry of brand names shown in catalog filters.
package brands

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"avenue/internal/apperr"
	"avenue/internal/database"
	"avenue/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, brand *models.Brand) error
	List(ctx context.Context) ([]models.Brand, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type Service interface {
	Create(ctx context.Context, name string) (*models.Brand, error)
	List(ctx context.Context) ([]models.Brand, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, errors.New("brand repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) Create(ctx context.Context, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	now := s.now().UTC()
	brand := &models.Brand{Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Insert(ctx, brand); err != nil {
		return nil, apperr.FromStore(err, "brand already exists", "")
	}
	return brand, nil
}

func (s *service) List(ctx context.Context) ([]models.Brand, error) {
	brands, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	return brands, nil
}

func (s *service) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, apperr.FromStore(err, "", "")
	}
	return ok, nil
}

const opTimeout = 5 * time.Second

type mongoRepository struct {
	coll *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(database.BrandsCollection)}
}

func (r *mongoRepository) Insert(ctx context.Context, brand *models.Brand) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, brand)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		brand.ID = id
	}
	return nil
}

func (r *mongoRepository) List(ctx context.Context) ([]models.Brand, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	brands := make([]models.Brand, 0)
	if err := cursor.All(ctx, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *mongoRepository) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
