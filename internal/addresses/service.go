// Package addresses manages a user's delivery addresses and keeps exactly
// one of them marked as the default once any exist.
package addresses

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"avenue/internal/apperr"
	"avenue/internal/models"
)

type Input struct {
	RecipientName string `json:"recipientName" binding:"required"`
	Phone         string `json:"phone" binding:"required,min=7,max=20"`
	Country       string `json:"country" binding:"required"`
	County        string `json:"county" binding:"required"`
	City          string `json:"city" binding:"required"`
	StreetAddress string `json:"streetAddress" binding:"required"`
	IsDefault     bool   `json:"isDefault"`
}

// PathResolver is satisfied by geo.Service.
type PathResolver interface {
	ResolvePath(ctx context.Context, country, county, city primitive.ObjectID) (*models.City, error)
}

type Service interface {
	List(ctx context.Context, user primitive.ObjectID) ([]models.Address, error)
	Create(ctx context.Context, user primitive.ObjectID, input Input) (*models.Address, error)
	SetDefault(ctx context.Context, user primitive.ObjectID, addressID string) (*models.Address, error)
	Delete(ctx context.Context, user primitive.ObjectID, addressID string) error
}

type service struct {
	repo Repository
	geo  PathResolver
	now  func() time.Time
}

func NewService(repo Repository, geo PathResolver, now func() time.Time) (Service, error) {
	if repo == nil || geo == nil {
		return nil, errors.New("address repository and geography resolver required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, geo: geo, now: now}, nil
}

func parseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidReference("invalid " + what + " id")
	}
	return id, nil
}

func (s *service) List(ctx context.Context, user primitive.ObjectID) ([]models.Address, error) {
	list, err := s.repo.List(ctx, user)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	return list, nil
}

func (s *service) Create(ctx context.Context, user primitive.ObjectID, input Input) (*models.Address, error) {
	recipient := strings.TrimSpace(input.RecipientName)
	phone := strings.TrimSpace(input.Phone)
	street := strings.TrimSpace(input.StreetAddress)
	switch {
	case recipient == "":
		return nil, apperr.Validation("recipientName is required")
	case phone == "":
		return nil, apperr.Validation("phone is required")
	case street == "":
		return nil, apperr.Validation("streetAddress is required")
	}

	country, err := parseID(input.Country, "country")
	if err != nil {
		return nil, err
	}
	county, err := parseID(input.County, "county")
	if err != nil {
		return nil, err
	}
	city, err := parseID(input.City, "city")
	if err != nil {
		return nil, err
	}
	if _, err := s.geo.ResolvePath(ctx, country, county, city); err != nil {
		return nil, err
	}

	existing, err := s.repo.Count(ctx, user)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}

	now := s.now().UTC()
	address := &models.Address{
		User:          user,
		RecipientName: recipient,
		Phone:         phone,
		Country:       country,
		County:        county,
		City:          city,
		StreetAddress: street,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, address, input.IsDefault || existing == 0); err != nil {
		return nil, apperr.FromStore(err, "default address changed concurrently, retry", "")
	}
	return address, nil
}

func (s *service) SetDefault(ctx context.Context, user primitive.ObjectID, addressID string) (*models.Address, error) {
	id, err := parseID(addressID, "address")
	if err != nil {
		return nil, err
	}
	address, err := s.repo.SetDefault(ctx, user, id)
	if err != nil {
		return nil, apperr.FromStore(err, "default address changed concurrently, retry", "address not found")
	}
	return address, nil
}

func (s *service) Delete(ctx context.Context, user primitive.ObjectID, addressID string) error {
	id, err := parseID(addressID, "address")
	if err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, user, id); err != nil {
		return apperr.FromStore(err, "", "address not found")
	}
	return nil
}
