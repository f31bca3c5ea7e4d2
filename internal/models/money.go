package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is a decimal amount persisted as Decimal128 and rendered in JSON as a
// string ("350.00") to avoid float rounding in clients.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

// MustMoney parses a literal amount and panics on bad input. Test and seed helper.
func MustMoney(value string) Money {
	return Money{Decimal: decimal.RequireFromString(value)}
}

var (
	ErrMoneyPrecision = errors.New("must have at most 2 decimal places")
	ErrMoneyRange     = errors.New("is out of range")
)

// Validate reports whether m can be stored and displayed without losing
// digits: cents precision and within Decimal128 range.
func (m Money) Validate() error {
	if !m.Decimal.Equal(m.Decimal.Truncate(2)) {
		return ErrMoneyPrecision
	}
	if _, err := primitive.ParseDecimal128(m.Decimal.String()); err != nil {
		return ErrMoneyRange
	}
	return nil
}

// MarshalBSONValue always writes Decimal128 so range queries and sorts behave.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("encode money %s: %w", m.Decimal.String(), err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue accepts Decimal128 plus the numeric and string types
// older documents were written with.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null:
		m.Decimal = decimal.Zero
		return nil
	case bsontype.Decimal128:
		parsed, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return err
		}
		m.Decimal = parsed
		return nil
	case bsontype.Double:
		m.Decimal = decimal.NewFromFloat(raw.Double())
		return nil
	case bsontype.Int32:
		m.Decimal = decimal.NewFromInt32(raw.Int32())
		return nil
	case bsontype.Int64:
		m.Decimal = decimal.NewFromInt(raw.Int64())
		return nil
	case bsontype.String:
		parsed, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return err
		}
		m.Decimal = parsed
		return nil
	default:
		return fmt.Errorf("cannot decode %s into Money", t)
	}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Decimal.StringFixed(2) + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}
