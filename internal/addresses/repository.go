package addresses

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"avenue/internal/database"
	"avenue/internal/models"
)

const opTimeout = 5 * time.Second

// Repository persists addresses. The methods that touch the default flag
// run as one transaction so a user never ends up with two defaults.
type Repository interface {
	List(ctx context.Context, user primitive.ObjectID) ([]models.Address, error)
	Count(ctx context.Context, user primitive.ObjectID) (int64, error)
	// Insert stores address; with makeDefault every other address of the
	// user loses its default flag in the same transaction.
	Insert(ctx context.Context, address *models.Address, makeDefault bool) error
	// SetDefault returns mongo.ErrNoDocuments when the user does not own id.
	SetDefault(ctx context.Context, user, id primitive.ObjectID) (*models.Address, error)
	// Delete removes the address and, if it was the default, promotes the
	// most recently created remaining one.
	Delete(ctx context.Context, user, id primitive.ObjectID) (*models.Address, error)
}

type mongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		client: db.Client(),
		coll:   db.Collection(database.AddressesCollection),
	}
}

func (r *mongoRepository) List(ctx context.Context, user primitive.ObjectID) ([]models.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "isDefault", Value: -1},
		{Key: "createdAt", Value: -1},
	})
	cursor, err := r.coll.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]models.Address, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoRepository) Count(ctx context.Context, user primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{"user": user})
}

func (r *mongoRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, fn)
}

func (r *mongoRepository) clearDefault(sc mongo.SessionContext, user primitive.ObjectID, except primitive.ObjectID, now time.Time) error {
	filter := bson.M{"user": user, "isDefault": true}
	if !except.IsZero() {
		filter["_id"] = bson.M{"$ne": except}
	}
	_, err := r.coll.UpdateMany(sc, filter, bson.M{"$set": bson.M{"isDefault": false, "updatedAt": now}})
	return err
}

func (r *mongoRepository) Insert(ctx context.Context, address *models.Address, makeDefault bool) error {
	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}
	address.IsDefault = makeDefault

	if !makeDefault {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		_, err := r.coll.InsertOne(ctx, address)
		return err
	}

	_, err := r.withTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if err := r.clearDefault(sc, address.User, primitive.NilObjectID, address.UpdatedAt); err != nil {
			return nil, err
		}
		return r.coll.InsertOne(sc, address)
	})
	return err
}

func (r *mongoRepository) SetDefault(ctx context.Context, user, id primitive.ObjectID) (*models.Address, error) {
	now := time.Now().UTC()
	result, err := r.withTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if err := r.clearDefault(sc, user, id, now); err != nil {
			return nil, err
		}
		var updated models.Address
		err := r.coll.FindOneAndUpdate(
			sc,
			bson.M{"_id": id, "user": user},
			bson.M{"$set": bson.M{"isDefault": true, "updatedAt": now}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			return nil, err
		}
		return &updated, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Address), nil
}

func (r *mongoRepository) Delete(ctx context.Context, user, id primitive.ObjectID) (*models.Address, error) {
	now := time.Now().UTC()
	result, err := r.withTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		var deleted models.Address
		if err := r.coll.FindOneAndDelete(sc, bson.M{"_id": id, "user": user}).Decode(&deleted); err != nil {
			return nil, err
		}
		if !deleted.IsDefault {
			return &deleted, nil
		}

		err := r.coll.FindOneAndUpdate(
			sc,
			bson.M{"user": user},
			bson.M{"$set": bson.M{"isDefault": true, "updatedAt": now}},
			options.FindOneAndUpdate().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		).Err()
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return &deleted, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Address), nil
}
