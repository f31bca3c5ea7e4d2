package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"avenue/internal/addresses"
	"avenue/internal/apperr"
	"avenue/internal/auth"
	"avenue/internal/catalog"
	"avenue/internal/geo"
	"avenue/internal/models"
	"avenue/internal/orders"
	"avenue/internal/push"
	"avenue/internal/timeline"
)

// calls counts every service invocation so tests can prove a guard
// short-circuited before any store access.
type calls struct {
	n int
}

func (c *calls) hit() { c.n++ }

type fakeGeo struct {
	*calls
	countries []models.Country
	cities    []models.City
	err       error
}

func (f *fakeGeo) ListCountries(context.Context) ([]models.Country, error) {
	f.hit()
	return f.countries, f.err
}

func (f *fakeGeo) ListCounties(_ context.Context, id string) ([]models.County, error) {
	f.hit()
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, apperr.InvalidReference("invalid country id")
	}
	return []models.County{}, f.err
}

func (f *fakeGeo) ListCities(_ context.Context, id string) ([]models.City, error) {
	f.hit()
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, apperr.InvalidReference("invalid county id")
	}
	return f.cities, f.err
}

func (f *fakeGeo) CreateCountry(_ context.Context, in geo.CountryInput) (*models.Country, error) {
	f.hit()
	if f.err != nil {
		return nil, f.err
	}
	return &models.Country{ID: primitive.NewObjectID(), Name: in.Name, IsActive: true}, nil
}

func (f *fakeGeo) CreateCounty(_ context.Context, in geo.CountyInput) (*models.County, error) {
	f.hit()
	return &models.County{ID: primitive.NewObjectID(), Name: in.Name}, f.err
}

func (f *fakeGeo) CreateCity(_ context.Context, in geo.CityInput) (*models.City, error) {
	f.hit()
	if f.err != nil {
		return nil, f.err
	}
	return &models.City{ID: primitive.NewObjectID(), Name: in.Name}, nil
}

func (f *fakeGeo) PatchCountry(context.Context, string, geo.NodePatch) (*models.Country, error) {
	f.hit()
	return &models.Country{}, f.err
}

func (f *fakeGeo) PatchCounty(context.Context, string, geo.NodePatch) (*models.County, error) {
	f.hit()
	return &models.County{}, f.err
}

func (f *fakeGeo) PatchCity(_ context.Context, _ string, p geo.CityPatch) (*models.City, error) {
	f.hit()
	if f.err != nil {
		return nil, f.err
	}
	city := &models.City{}
	if p.DeliveryFee != nil {
		city.DeliveryFee = *p.DeliveryFee
	}
	return city, nil
}

func (f *fakeGeo) ResolvePath(context.Context, primitive.ObjectID, primitive.ObjectID, primitive.ObjectID) (*models.City, error) {
	f.hit()
	return &models.City{}, nil
}

type fakeBrands struct {
	*calls
	list []models.Brand
	err  error
}

func (f *fakeBrands) Create(_ context.Context, name string) (*models.Brand, error) {
	f.hit()
	if f.err != nil {
		return nil, f.err
	}
	return &models.Brand{ID: primitive.NewObjectID(), Name: name}, nil
}

func (f *fakeBrands) List(context.Context) ([]models.Brand, error) {
	f.hit()
	return f.list, f.err
}

func (f *fakeBrands) Exists(context.Context, primitive.ObjectID) (bool, error) {
	f.hit()
	return true, nil
}

type fakeCatalog struct {
	*calls
	lastQuery catalog.Query
	products  []models.Product
}

func (f *fakeCatalog) ListProducts(_ context.Context, q catalog.Query) (*catalog.Page, error) {
	f.hit()
	f.lastQuery = q
	return &catalog.Page{Items: f.products, Page: q.Page, Limit: q.Limit, Total: int64(len(f.products))}, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, in catalog.ProductInput) (*models.Product, error) {
	f.hit()
	return &models.Product{ID: primitive.NewObjectID(), Name: in.Name, Price: in.Price}, nil
}

type fakeAddresses struct {
	*calls
	lastUser primitive.ObjectID
}

func (f *fakeAddresses) List(_ context.Context, user primitive.ObjectID) ([]models.Address, error) {
	f.hit()
	f.lastUser = user
	return []models.Address{{User: user, IsDefault: true}}, nil
}

func (f *fakeAddresses) Create(_ context.Context, user primitive.ObjectID, in addresses.Input) (*models.Address, error) {
	f.hit()
	f.lastUser = user
	return &models.Address{ID: primitive.NewObjectID(), User: user, RecipientName: in.RecipientName, IsDefault: true}, nil
}

func (f *fakeAddresses) SetDefault(_ context.Context, user primitive.ObjectID, id string) (*models.Address, error) {
	f.hit()
	f.lastUser = user
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.InvalidReference("invalid address id")
	}
	return &models.Address{ID: oid, User: user, IsDefault: true}, nil
}

func (f *fakeAddresses) Delete(_ context.Context, user primitive.ObjectID, _ string) error {
	f.hit()
	f.lastUser = user
	return apperr.NotFound("address not found")
}

type fakeOrders struct {
	*calls
	status string
	err    error
}

func (f *fakeOrders) Timeline(_ context.Context, _ primitive.ObjectID, id string) (*orders.TimelineResult, error) {
	f.hit()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.InvalidReference("invalid order id")
	}
	return &orders.TimelineResult{OrderID: oid, View: timeline.Build(f.status, nil)}, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, _ string, status string) (*models.Order, error) {
	f.hit()
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{Status: models.OrderStatus(status)}, nil
}

type fakePush struct {
	*calls
}

func (f *fakePush) Subscribe(_ context.Context, user primitive.ObjectID, in push.SubscribeInput) (*models.PushSubscription, error) {
	f.hit()
	return &models.PushSubscription{Endpoint: in.Endpoint, Keys: in.Keys, User: user}, nil
}

func (f *fakePush) Unsubscribe(context.Context, primitive.ObjectID, string) error {
	f.hit()
	return nil
}

type fakeAuth struct {
	*calls
}

func (f *fakeAuth) Register(_ context.Context, in auth.RegisterInput) (*auth.Session, error) {
	f.hit()
	return &auth.Session{Token: "t", User: &models.User{Email: in.Email, Role: models.RoleUser}}, nil
}

func (f *fakeAuth) Login(context.Context, auth.LoginInput) (*auth.Session, error) {
	f.hit()
	return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
}
