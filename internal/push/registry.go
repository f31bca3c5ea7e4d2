// Package push stores browser push subscriptions and delivers Web Push
// notifications to them.
package push

import (
	"context"
	"errors"
	"net/url"
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

const opTimeout = 5 * time.Second

type SubscribeInput struct {
	Endpoint string          `json:"endpoint" binding:"required"`
	Keys     models.PushKeys `json:"keys" binding:"required"`
}

type Store interface {
	// Upsert keys the record by endpoint; an endpoint re-registered by another
	// account moves to that account.
	Upsert(ctx context.Context, sub *models.PushSubscription) (*models.PushSubscription, error)
	Delete(ctx context.Context, user primitive.ObjectID, endpoint string) (bool, error)
	DeleteEndpoint(ctx context.Context, endpoint string) error
	ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.PushSubscription, error)
}

type Registry struct {
	store Store
	now   func() time.Time
}

func NewRegistry(store Store, now func() time.Time) (*Registry, error) {
	if store == nil {
		return nil, errors.New("push store required")
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{store: store, now: now}, nil
}

func validEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "https" && u.Host != ""
}

func (r *Registry) Subscribe(ctx context.Context, user primitive.ObjectID, input SubscribeInput) (*models.PushSubscription, error) {
	endpoint := strings.TrimSpace(input.Endpoint)
	if !validEndpoint(endpoint) {
		return nil, apperr.Validation("endpoint must be an https url")
	}
	if strings.TrimSpace(input.Keys.P256dh) == "" || strings.TrimSpace(input.Keys.Auth) == "" {
		return nil, apperr.Validation("keys.p256dh and keys.auth are required")
	}

	now := r.now().UTC()
	sub, err := r.store.Upsert(ctx, &models.PushSubscription{
		Endpoint:  endpoint,
		Keys:      input.Keys,
		User:      user,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, apperr.FromStore(err, "subscription changed concurrently, retry", "")
	}
	return sub, nil
}

func (r *Registry) Unsubscribe(ctx context.Context, user primitive.ObjectID, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return apperr.Validation("endpoint is required")
	}
	removed, err := r.store.Delete(ctx, user, endpoint)
	if err != nil {
		return apperr.FromStore(err, "", "")
	}
	if !removed {
		return apperr.NotFound("subscription not found")
	}
	return nil
}

func (r *Registry) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.PushSubscription, error) {
	subs, err := r.store.ListByUser(ctx, user)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	return subs, nil
}

type mongoStore struct {
	coll *mongo.Collection
}

func NewStore(db *mongo.Database) Store {
	return &mongoStore{coll: db.Collection(database.PushSubscriptionsCollection)}
}

func (s *mongoStore) Upsert(ctx context.Context, sub *models.PushSubscription) (*models.PushSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"keys":      sub.Keys,
			"user":      sub.User,
			"updatedAt": sub.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": sub.CreatedAt},
	}
	var stored models.PushSubscription
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"endpoint": sub.Endpoint},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *mongoStore) Delete(ctx context.Context, user primitive.ObjectID, endpoint string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"user": user, "endpoint": endpoint})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *mongoStore) DeleteEndpoint(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.coll.DeleteOne(ctx, bson.M{"endpoint": endpoint})
	return err
}

func (s *mongoStore) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.PushSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{"user": user})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := make([]models.PushSubscription, 0)
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}
