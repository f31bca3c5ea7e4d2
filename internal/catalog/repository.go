package catalog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"avenue/internal/database"
	"avenue/internal/models"
)

const opTimeout = 5 * time.Second

type Filter struct {
	Brand *primitive.ObjectID
}

type Repository interface {
	// List returns active products newest first. A zero limit means no limit.
	List(ctx context.Context, filter Filter, skip, limit int64) ([]models.Product, int64, error)
	Insert(ctx context.Context, product *models.Product) error
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(database.ProductsCollection)}
}

func (r *mongoRepository) List(ctx context.Context, filter Filter, skip, limit int64) ([]models.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := bson.M{"isActive": true}
	if filter.Brand != nil {
		query["brand"] = *filter.Brand
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetSkip(skip).SetLimit(limit)
	}
	cursor, err := r.coll.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *mongoRepository) Insert(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, product)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = id
	}
	return nil
}
