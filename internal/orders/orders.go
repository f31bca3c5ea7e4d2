// Package orders exposes order tracking to shoppers and status changes to
// admins.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"avenue/internal/apperr"
	"avenue/internal/database"
	"avenue/internal/logger"
	"avenue/internal/models"
	"avenue/internal/push"
	"avenue/internal/timeline"
)

const (
	opTimeout     = 5 * time.Second
	notifyTimeout = 15 * time.Second
)

// ErrFinal is returned by Repository.AppendStatus when the order reached a
// final status before the update landed.
var ErrFinal = errors.New("order status is final")

type Repository interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetForUser(ctx context.Context, user, id primitive.ObjectID) (*models.Order, error)
	AppendStatus(ctx context.Context, id primitive.ObjectID, change models.StatusChange) (*models.Order, error)
}

// Notifier is satisfied by *push.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, user primitive.ObjectID, payload push.Payload) error
}

type TimelineResult struct {
	OrderID primitive.ObjectID `json:"orderId"`
	timeline.View
}

type Service interface {
	Timeline(ctx context.Context, user primitive.ObjectID, orderID string) (*TimelineResult, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error)
}

type ServiceParams struct {
	Repo     Repository
	Notifier Notifier
	Logger   *logger.Logger
	SiteURL  string
	Now      func() time.Time
}

type service struct {
	repo     Repository
	notifier Notifier
	logg     *logger.Logger
	siteURL  string
	now      func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, errors.New("order repository required")
	}
	s := &service{
		repo:     p.Repo,
		notifier: p.Notifier,
		logg:     p.Logger,
		siteURL:  strings.TrimRight(p.SiteURL, "/"),
		now:      p.Now,
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func parseOrderID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidReference("invalid order id")
	}
	return id, nil
}

func (s *service) Timeline(ctx context.Context, user primitive.ObjectID, orderID string) (*TimelineResult, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.GetForUser(ctx, user, id)
	if err != nil {
		return nil, apperr.FromStore(err, "", "order not found")
	}
	return &TimelineResult{
		OrderID: order.ID,
		View:    timeline.Build(string(order.Status), order.StatusLog),
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	next, err := models.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, apperr.Validation("status must be one of Confirmed, Processing, Shipped, Delivered, Cancelled")
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "", "order not found")
	}
	if current.Status == next {
		return current, nil
	}
	if current.Status.IsFinal() {
		return nil, apperr.Conflict(fmt.Sprintf("order is already %s", current.Status))
	}

	updated, err := s.repo.AppendStatus(ctx, id, models.StatusChange{Status: next, At: s.now().UTC()})
	if errors.Is(err, ErrFinal) {
		return nil, apperr.Conflict("order status changed concurrently")
	}
	if err != nil {
		return nil, apperr.FromStore(err, "", "order not found")
	}

	s.notify(ctx, updated)
	return updated, nil
}

// notify is best effort; the status change is already committed.
func (s *service) notify(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	payload := push.Payload{
		Title: "Order update",
		Body:  fmt.Sprintf("Your order %s is now %s.", shortID(order.ID), strings.ToLower(string(order.Status))),
		URL:   fmt.Sprintf("%s/orders/%s", s.siteURL, order.ID.Hex()),
	}
	// detached from the request so a disconnecting admin does not cancel delivery
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(notifyCtx, order.User, payload); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"orderId": order.ID.Hex(),
			"status":  string(order.Status),
		}), "orders.push.failed", err)
	}
}

func shortID(id primitive.ObjectID) string {
	hex := id.Hex()
	return "#" + strings.ToUpper(hex[len(hex)-6:])
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(database.OrdersCollection)}
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var order models.Order
	if err := r.coll.FindOne(ctx, filter).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoRepository) GetForUser(ctx context.Context, user, id primitive.ObjectID) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id, "user": user})
}

func (r *mongoRepository) AppendStatus(ctx context.Context, id primitive.ObjectID, change models.StatusChange) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$nin": bson.A{models.OrderStatusDelivered, models.OrderStatusCancelled}},
	}
	update := bson.M{
		"$set":  bson.M{"status": change.Status, "updatedAt": change.At},
		"$push": bson.M{"statusLog": change},
	}
	var updated models.Order
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish a missing order from one that became final meanwhile.
		if _, getErr := r.findOne(ctx, bson.M{"_id": id}); getErr == nil {
			return nil, ErrFinal
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
