package geo

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"avenue/internal/apperr"
	"avenue/internal/cache"
	"avenue/internal/logger"
	"avenue/internal/metrics"
	"avenue/internal/models"
)

const cacheName = "geo"

// Cache is the read-through store for active lists. cache.Client and
// cache.Nop both satisfy it.
type Cache interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Store(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, keys ...string) error
}

type Service interface {
	ListCountries(ctx context.Context) ([]models.Country, error)
	ListCounties(ctx context.Context, countryID string) ([]models.County, error)
	ListCities(ctx context.Context, countyID string) ([]models.City, error)

	CreateCountry(ctx context.Context, input CountryInput) (*models.Country, error)
	CreateCounty(ctx context.Context, input CountyInput) (*models.County, error)
	CreateCity(ctx context.Context, input CityInput) (*models.City, error)

	PatchCountry(ctx context.Context, id string, patch NodePatch) (*models.Country, error)
	PatchCounty(ctx context.Context, id string, patch NodePatch) (*models.County, error)
	PatchCity(ctx context.Context, id string, patch CityPatch) (*models.City, error)

	// ResolvePath checks that the three references exist, are active and
	// nest inside each other.
	ResolvePath(ctx context.Context, country, county, city primitive.ObjectID) (*models.City, error)
}

type CountryInput struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

type CountyInput struct {
	Name     string `json:"name" binding:"required"`
	Country  string `json:"country" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

type CityInput struct {
	Name        string        `json:"name" binding:"required"`
	County      string        `json:"county" binding:"required"`
	Country     string        `json:"country"`
	DeliveryFee *models.Money `json:"deliveryFee"`
	IsActive    *bool         `json:"isActive"`
}

type NodePatch struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"isActive"`
}

type CityPatch struct {
	NodePatch
	DeliveryFee *models.Money `json:"deliveryFee"`
}

type ServiceParams struct {
	Repo    Repository
	Cache   Cache
	Logger  *logger.Logger
	Metrics *metrics.CacheMetrics
	Now     func() time.Time
}

type service struct {
	repo    Repository
	cache   Cache
	logg    *logger.Logger
	metrics *metrics.CacheMetrics
	now     func() time.Time

	// writes counts admin writes; a list loaded across a write is not cached.
	writes atomic.Uint64
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, errors.New("geo repository required")
	}
	s := &service{
		repo:    p.Repo,
		cache:   p.Cache,
		logg:    p.Logger,
		metrics: p.Metrics,
		now:     p.Now,
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func countriesKey() string { return cache.Key("geo", "countries") }

func countiesKey(country primitive.ObjectID) string {
	return cache.Key("geo", "counties", country.Hex())
}

func citiesKey(county primitive.ObjectID) string {
	return cache.Key("geo", "cities", county.Hex())
}

func parseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidReference("invalid " + what + " id")
	}
	return id, nil
}

// readThrough serves key from the cache, falling back to load. Cache
// failures are logged and never fail the request.
func readThrough[T any](ctx context.Context, s *service, key string, load func() ([]T, error)) ([]T, error) {
	var cached []T
	found, err := s.cache.Load(ctx, key, &cached)
	switch {
	case err != nil:
		s.metrics.Inc(cacheName, "error")
		s.logg.Warn(s.logg.WithField(ctx, "key", key), "geo.cache.load_failed", err)
	case found:
		s.metrics.Inc(cacheName, "hit")
		return cached, nil
	default:
		s.metrics.Inc(cacheName, "miss")
	}

	generation := s.writes.Load()
	items, err := load()
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	if s.writes.Load() != generation {
		s.logg.Debug(s.logg.WithField(ctx, "key", key), "geo.cache.store_skipped")
		return items, nil
	}
	if err := s.cache.Store(ctx, key, items); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "key", key), "geo.cache.store_failed", err)
	}
	return items, nil
}

func (s *service) invalidate(ctx context.Context, keys ...string) {
	s.writes.Add(1)
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "keys", keys), "geo.cache.invalidate_failed", err)
	}
}

func (s *service) ListCountries(ctx context.Context) ([]models.Country, error) {
	return readThrough(ctx, s, countriesKey(), func() ([]models.Country, error) {
		return s.repo.ListCountries(ctx)
	})
}

func (s *service) ListCounties(ctx context.Context, countryID string) ([]models.County, error) {
	country, err := parseID(countryID, "country")
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, s, countiesKey(country), func() ([]models.County, error) {
		return s.repo.ListCounties(ctx, country)
	})
}

func (s *service) ListCities(ctx context.Context, countyID string) ([]models.City, error) {
	county, err := parseID(countyID, "county")
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, s, citiesKey(county), func() ([]models.City, error) {
		return s.repo.ListCities(ctx, county)
	})
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name is required")
	}
	return name, nil
}

func activeOrDefault(flag *bool) bool {
	if flag == nil {
		return true
	}
	return *flag
}

func validateFee(fee *models.Money) error {
	if fee == nil {
		return nil
	}
	if fee.IsNegative() {
		return apperr.Validation("deliveryFee must not be negative")
	}
	if err := fee.Validate(); err != nil {
		return apperr.Validation("deliveryFee " + err.Error())
	}
	return nil
}

func (s *service) CreateCountry(ctx context.Context, input CountryInput) (*models.Country, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	country := &models.Country{
		Name:      name,
		IsActive:  activeOrDefault(input.IsActive),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertCountry(ctx, country); err != nil {
		return nil, apperr.FromStore(err, "country already exists", "")
	}
	s.invalidate(ctx, countriesKey())
	return country, nil
}

func (s *service) CreateCounty(ctx context.Context, input CountyInput) (*models.County, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	countryID, err := parseID(input.Country, "country")
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCountry(ctx, countryID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Validation("country does not exist")
		}
		return nil, apperr.FromStore(err, "", "")
	}

	now := s.now().UTC()
	county := &models.County{
		Name:      name,
		Country:   countryID,
		IsActive:  activeOrDefault(input.IsActive),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertCounty(ctx, county); err != nil {
		return nil, apperr.FromStore(err, "county already exists in this country", "")
	}
	s.invalidate(ctx, countiesKey(countryID))
	return county, nil
}

func (s *service) CreateCity(ctx context.Context, input CityInput) (*models.City, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validateFee(input.DeliveryFee); err != nil {
		return nil, err
	}
	countyID, err := parseID(input.County, "county")
	if err != nil {
		return nil, err
	}
	county, err := s.repo.GetCounty(ctx, countyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Validation("county does not exist")
		}
		return nil, apperr.FromStore(err, "", "")
	}
	if strings.TrimSpace(input.Country) != "" {
		countryID, err := parseID(input.Country, "country")
		if err != nil {
			return nil, err
		}
		if countryID != county.Country {
			return nil, apperr.Validation("county does not belong to country")
		}
	}

	fee := models.Money{}
	if input.DeliveryFee != nil {
		fee = *input.DeliveryFee
	}
	now := s.now().UTC()
	city := &models.City{
		Name:        name,
		County:      county.ID,
		Country:     county.Country,
		DeliveryFee: fee,
		IsActive:    activeOrDefault(input.IsActive),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertCity(ctx, city); err != nil {
		return nil, apperr.FromStore(err, "city already exists in this county", "")
	}
	s.invalidate(ctx, citiesKey(county.ID))
	return city, nil
}

func (s *service) patchSet(patch NodePatch) (bson.M, error) {
	set := bson.M{}
	if patch.Name != nil {
		name, err := normalizeName(*patch.Name)
		if err != nil {
			return nil, err
		}
		set["name"] = name
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}
	return set, nil
}

func (s *service) PatchCountry(ctx context.Context, id string, patch NodePatch) (*models.Country, error) {
	countryID, err := parseID(id, "country")
	if err != nil {
		return nil, err
	}
	set, err := s.patchSet(patch)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, apperr.Validation("nothing to update")
	}
	set["updatedAt"] = s.now().UTC()

	country, err := s.repo.UpdateCountry(ctx, countryID, set)
	if err != nil {
		return nil, apperr.FromStore(err, "country already exists", "country not found")
	}
	s.invalidate(ctx, countriesKey())
	return country, nil
}

func (s *service) PatchCounty(ctx context.Context, id string, patch NodePatch) (*models.County, error) {
	countyID, err := parseID(id, "county")
	if err != nil {
		return nil, err
	}
	set, err := s.patchSet(patch)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, apperr.Validation("nothing to update")
	}
	set["updatedAt"] = s.now().UTC()

	county, err := s.repo.UpdateCounty(ctx, countyID, set)
	if err != nil {
		return nil, apperr.FromStore(err, "county already exists in this country", "county not found")
	}
	s.invalidate(ctx, countiesKey(county.Country))
	return county, nil
}

func (s *service) PatchCity(ctx context.Context, id string, patch CityPatch) (*models.City, error) {
	cityID, err := parseID(id, "city")
	if err != nil {
		return nil, err
	}
	set, err := s.patchSet(patch.NodePatch)
	if err != nil {
		return nil, err
	}
	if patch.DeliveryFee != nil {
		if err := validateFee(patch.DeliveryFee); err != nil {
			return nil, err
		}
		set["deliveryFee"] = *patch.DeliveryFee
	}
	if len(set) == 0 {
		return nil, apperr.Validation("nothing to update")
	}
	set["updatedAt"] = s.now().UTC()

	city, err := s.repo.UpdateCity(ctx, cityID, set)
	if err != nil {
		return nil, apperr.FromStore(err, "city already exists in this county", "city not found")
	}
	s.invalidate(ctx, citiesKey(city.County))
	return city, nil
}

func (s *service) ResolvePath(ctx context.Context, countryID, countyID, cityID primitive.ObjectID) (*models.City, error) {
	city, err := s.repo.GetCity(ctx, cityID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Validation("city does not exist")
		}
		return nil, apperr.FromStore(err, "", "")
	}
	if !city.IsActive {
		return nil, apperr.Validation("city is not available")
	}
	if city.County != countyID {
		return nil, apperr.Validation("city does not belong to county")
	}

	county, err := s.repo.GetCounty(ctx, countyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Validation("county does not exist")
		}
		return nil, apperr.FromStore(err, "", "")
	}
	if !county.IsActive {
		return nil, apperr.Validation("county is not available")
	}
	if county.Country != countryID {
		return nil, apperr.Validation("county does not belong to country")
	}

	country, err := s.repo.GetCountry(ctx, countryID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Validation("country does not exist")
		}
		return nil, apperr.FromStore(err, "", "")
	}
	if !country.IsActive {
		return nil, apperr.Validation("country is not available")
	}
	return city, nil
}
