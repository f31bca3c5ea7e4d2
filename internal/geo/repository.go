package geo

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

// Repository reads and writes the three geography collections. Lookups of
// a missing document return mongo.ErrNoDocuments.
type Repository interface {
	ListCountries(ctx context.Context) ([]models.Country, error)
	ListCounties(ctx context.Context, country primitive.ObjectID) ([]models.County, error)
	ListCities(ctx context.Context, county primitive.ObjectID) ([]models.City, error)

	GetCountry(ctx context.Context, id primitive.ObjectID) (*models.Country, error)
	GetCounty(ctx context.Context, id primitive.ObjectID) (*models.County, error)
	GetCity(ctx context.Context, id primitive.ObjectID) (*models.City, error)

	InsertCountry(ctx context.Context, country *models.Country) error
	InsertCounty(ctx context.Context, county *models.County) error
	InsertCity(ctx context.Context, city *models.City) error

	UpdateCountry(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Country, error)
	UpdateCounty(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.County, error)
	UpdateCity(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.City, error)
}

// Names sort case-insensitively, matching what shoppers expect in dropdowns.
var nameCollation = &options.Collation{Locale: "en", Strength: 2}

type mongoRepository struct {
	db *mongo.Database
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{db: db}
}

func activeByName() *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetCollation(nameCollation)
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, activeByName())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc T
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func updateOne[T any](ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, set bson.M) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var updated T
	err := coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc any) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (r *mongoRepository) countries() *mongo.Collection {
	return r.db.Collection(database.CountriesCollection)
}

func (r *mongoRepository) counties() *mongo.Collection {
	return r.db.Collection(database.CountiesCollection)
}

func (r *mongoRepository) cities() *mongo.Collection {
	return r.db.Collection(database.CitiesCollection)
}

func (r *mongoRepository) ListCountries(ctx context.Context) ([]models.Country, error) {
	return findAll[models.Country](ctx, r.countries(), bson.M{"isActive": true})
}

func (r *mongoRepository) ListCounties(ctx context.Context, country primitive.ObjectID) ([]models.County, error) {
	return findAll[models.County](ctx, r.counties(), bson.M{"isActive": true, "country": country})
}

func (r *mongoRepository) ListCities(ctx context.Context, county primitive.ObjectID) ([]models.City, error) {
	return findAll[models.City](ctx, r.cities(), bson.M{"isActive": true, "county": county})
}

func (r *mongoRepository) GetCountry(ctx context.Context, id primitive.ObjectID) (*models.Country, error) {
	return findOne[models.Country](ctx, r.countries(), id)
}

func (r *mongoRepository) GetCounty(ctx context.Context, id primitive.ObjectID) (*models.County, error) {
	return findOne[models.County](ctx, r.counties(), id)
}

func (r *mongoRepository) GetCity(ctx context.Context, id primitive.ObjectID) (*models.City, error) {
	return findOne[models.City](ctx, r.cities(), id)
}

func (r *mongoRepository) InsertCountry(ctx context.Context, country *models.Country) error {
	id, err := insertOne(ctx, r.countries(), country)
	if err != nil {
		return err
	}
	country.ID = id
	return nil
}

func (r *mongoRepository) InsertCounty(ctx context.Context, county *models.County) error {
	id, err := insertOne(ctx, r.counties(), county)
	if err != nil {
		return err
	}
	county.ID = id
	return nil
}

func (r *mongoRepository) InsertCity(ctx context.Context, city *models.City) error {
	id, err := insertOne(ctx, r.cities(), city)
	if err != nil {
		return err
	}
	city.ID = id
	return nil
}

func (r *mongoRepository) UpdateCountry(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Country, error) {
	return updateOne[models.Country](ctx, r.countries(), id, set)
}

func (r *mongoRepository) UpdateCounty(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.County, error) {
	return updateOne[models.County](ctx, r.counties(), id, set)
}

func (r *mongoRepository) UpdateCity(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.City, error) {
	return updateOne[models.City](ctx, r.cities(), id, set)
}
