package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func TestMoneyStoresDecimal128(t *testing.T) {
	city := City{Name: "Westlands", DeliveryFee: MustMoney("250.50")}

	data, err := bson.Marshal(city)
	require.NoError(t, err)

	raw := bson.Raw(data).Lookup("deliveryFee")
	assert.Equal(t, bsontype.Decimal128, raw.Type)

	var decoded City
	require.NoError(t, bson.Unmarshal(data, &decoded))
	assert.True(t, decoded.DeliveryFee.Equal(city.DeliveryFee.Decimal))
}

func TestMoneyDecodesLegacyNumbers(t *testing.T) {
	for _, doc := range []bson.M{
		{"deliveryFee": 300.0},
		{"deliveryFee": int32(300)},
		{"deliveryFee": int64(300)},
		{"deliveryFee": "300"},
	} {
		data, err := bson.Marshal(doc)
		require.NoError(t, err)

		var city City
		require.NoError(t, bson.Unmarshal(data, &city))
		assert.Equal(t, "300.00", city.DeliveryFee.StringFixed(2), doc)
	}
}

func TestMoneyRejectsUnexpectedTypes(t *testing.T) {
	data, err := bson.Marshal(bson.M{"deliveryFee": true})
	require.NoError(t, err)

	var city City
	assert.Error(t, bson.Unmarshal(data, &city))
}

func TestMoneyJSON(t *testing.T) {
	body, err := json.Marshal(Product{Name: "Linen shirt", Price: MustMoney("1499.9")})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"price":"1499.90"`)

	var in struct {
		Fee Money `json:"fee"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"fee":120.5}`), &in))
	assert.Equal(t, "120.50", in.Fee.StringFixed(2))
	require.NoError(t, json.Unmarshal([]byte(`{"fee":"99"}`), &in))
	assert.Equal(t, "99.00", in.Fee.StringFixed(2))
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("Shipped")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)
	assert.False(t, status.IsFinal())
	assert.True(t, OrderStatusCancelled.IsFinal())

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestMoneyValidate(t *testing.T) {
	assert.NoError(t, MustMoney("4500").Validate())
	assert.NoError(t, MustMoney("250.50").Validate())
	assert.NoError(t, MustMoney("1.500").Validate())

	assert.ErrorIs(t, MustMoney("0.001").Validate(), ErrMoneyPrecision)
	assert.ErrorIs(t, MustMoney("1.999").Validate(), ErrMoneyPrecision)
	assert.ErrorIs(t, MustMoney("123456789012345678901234567890123456.5").Validate(), ErrMoneyRange)
}
