package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/multierr"

	"avenue/internal/logger"
)

const (
	CountriesCollection         = "countries"
	CountiesCollection          = "counties"
	CitiesCollection            = "cities"
	AddressesCollection         = "addresses"
	BrandsCollection            = "brands"
	ProductsCollection          = "products"
	OrdersCollection            = "orders"
	PushSubscriptionsCollection = "push_subscriptions"
	UsersCollection             = "users"
)

// Schema describes one entity's collection and the indexes that carry its
// uniqueness rules.
type Schema struct {
	Collection string
	Indexes    []mongo.IndexModel
}

// Schemas is keyed by entity name. It is a literal so every process sees the
// same set, and applying it twice creates nothing new.
var Schemas = map[string]Schema{
	"Country": {
		Collection: CountriesCollection,
		Indexes: []mongo.IndexModel{
			unique("name_unique", bson.D{{Key: "name", Value: 1}}),
		},
	},
	"County": {
		Collection: CountiesCollection,
		Indexes: []mongo.IndexModel{
			unique("country_name_unique", bson.D{{Key: "country", Value: 1}, {Key: "name", Value: 1}}),
		},
	},
	"City": {
		Collection: CitiesCollection,
		Indexes: []mongo.IndexModel{
			unique("county_name_unique", bson.D{{Key: "county", Value: 1}, {Key: "name", Value: 1}}),
		},
	},
	"Address": {
		Collection: AddressesCollection,
		Indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("user_createdAt"),
			},
			{
				Keys: bson.D{{Key: "user", Value: 1}},
				Options: options.Index().
					SetName("user_default_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"isDefault": true}),
			},
		},
	},
	"Brand": {
		Collection: BrandsCollection,
		Indexes: []mongo.IndexModel{
			unique("name_unique", bson.D{{Key: "name", Value: 1}}),
		},
	},
	"Product": {
		Collection: ProductsCollection,
		Indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("isActive_createdAt"),
			},
			{
				Keys:    bson.D{{Key: "brand", Value: 1}},
				Options: options.Index().SetName("brand_index"),
			},
		},
	},
	"Order": {
		Collection: OrdersCollection,
		Indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "user", Value: 1}},
				Options: options.Index().SetName("user_index"),
			},
		},
	},
	"PushSubscription": {
		Collection: PushSubscriptionsCollection,
		Indexes: []mongo.IndexModel{
			unique("endpoint_unique", bson.D{{Key: "endpoint", Value: 1}}),
			{
				Keys:    bson.D{{Key: "user", Value: 1}},
				Options: options.Index().SetName("user_index"),
			},
		},
	},
	"User": {
		Collection: UsersCollection,
		Indexes: []mongo.IndexModel{
			unique("email_unique", bson.D{{Key: "email", Value: 1}}),
		},
	},
}

func unique(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(name).SetUnique(true),
	}
}

// EnsureSchemas creates every registered collection's indexes. It runs at
// startup, before any transaction could need the collections to exist.
func EnsureSchemas(ctx context.Context, db *mongo.Database, logg *logger.Logger) error {
	names := make([]string, 0, len(Schemas))
	for name := range Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs error
	for _, name := range names {
		schema := Schemas[name]
		idxCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		created, err := db.Collection(schema.Collection).Indexes().CreateMany(idxCtx, schema.Indexes)
		cancel()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s indexes: %w", name, err))
			continue
		}
		logg.Debug(logg.WithFields(ctx, map[string]any{
			"entity":  name,
			"indexes": created,
		}), "schema.ensured")
	}
	return errs
}
