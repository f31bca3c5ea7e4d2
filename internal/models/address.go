package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a delivery address owned by one user.
type Address struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	RecipientName string             `bson:"recipientName" json:"recipientName"`
	Phone         string             `bson:"phone" json:"phone"`
	Country       primitive.ObjectID `bson:"country" json:"country"`
	County        primitive.ObjectID `bson:"county" json:"county"`
	City          primitive.ObjectID `bson:"city" json:"city"`
	StreetAddress string             `bson:"streetAddress" json:"streetAddress"`
	IsDefault     bool               `bson:"isDefault" json:"isDefault"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
