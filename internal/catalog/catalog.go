// Package catalog serves the storefront product feed.
package catalog

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"avenue/internal/apperr"
	"avenue/internal/models"
)

const MaxLimit = 100

type Query struct {
	Brand string
	// Page and Limit are both zero when the caller wants every product.
	Page  int64
	Limit int64
}

type Page struct {
	Items []models.Product `json:"items"`
	Page  int64            `json:"page,omitempty"`
	Limit int64            `json:"limit,omitempty"`
	Total int64            `json:"total"`
}

type ProductInput struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	Brand       string       `json:"brand" binding:"required"`
	Price       models.Money `json:"price"`
	ImagePath   string       `json:"imagePath"`
	IsActive    *bool        `json:"isActive"`
}

// BrandChecker is satisfied by brands.Service.
type BrandChecker interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type Service interface {
	ListProducts(ctx context.Context, q Query) (*Page, error)
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
}

type service struct {
	repo   Repository
	brands BrandChecker
	now    func() time.Time
}

func NewService(repo Repository, brands BrandChecker, now func() time.Time) (Service, error) {
	if repo == nil || brands == nil {
		return nil, errors.New("catalog repository and brand checker required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, brands: brands, now: now}, nil
}

func (s *service) ListProducts(ctx context.Context, q Query) (*Page, error) {
	filter := Filter{}
	if raw := strings.TrimSpace(q.Brand); raw != "" {
		brand, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, apperr.InvalidReference("invalid brand id")
		}
		filter.Brand = &brand
	}
	if q.Page < 0 || q.Limit < 0 || (q.Page == 0) != (q.Limit == 0) {
		return nil, apperr.Validation("invalid pagination params")
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	var skip int64
	if q.Page > 0 {
		if q.Page-1 > math.MaxInt64/q.Limit {
			return nil, apperr.Validation("invalid pagination params")
		}
		skip = (q.Page - 1) * q.Limit
	}
	items, total, err := s.repo.List(ctx, filter, skip, q.Limit)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	return &Page{Items: items, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if !input.Price.IsPositive() {
		return nil, apperr.Validation("price must be greater than zero")
	}
	if err := input.Price.Validate(); err != nil {
		return nil, apperr.Validation("price " + err.Error())
	}
	brand, err := primitive.ObjectIDFromHex(strings.TrimSpace(input.Brand))
	if err != nil {
		return nil, apperr.InvalidReference("invalid brand id")
	}
	ok, err := s.brands.Exists(ctx, brand)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	if !ok {
		return nil, apperr.Validation("brand does not exist")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	now := s.now().UTC()
	product := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Brand:       brand,
		Price:       input.Price,
		ImagePath:   strings.TrimSpace(input.ImagePath),
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, product); err != nil {
		return nil, apperr.FromStore(err, "product already exists", "")
	}
	return product, nil
}
