package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Amount is a money value. It decodes from JSON numbers, numeric strings and
// empty values alike because the shop's forms submit whatever the input held.
type Amount float64

func ParseAmount(raw string) Amount {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return Amount(value)
}

func (a Amount) Float() float64 {
	return float64(a)
}

// Count truncates the amount to a whole number, never below zero.
func (a Amount) Count() int {
	n := int(math.Trunc(float64(a)))
	if n < 0 {
		return 0
	}
	return n
}

func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = ParseAmount(s)
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(value)
	return nil
}

// UnmarshalBSONValue accepts the string amounts written by earlier versions
// of the shop app next to proper doubles.
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	value := bsoncore.Value{Type: t, Data: data}
	switch t {
	case bsontype.Double:
		f, ok := value.DoubleOK()
		if !ok {
			return fmt.Errorf("amount: malformed double")
		}
		*a = Amount(f)
	case bsontype.Int32:
		i, ok := value.Int32OK()
		if !ok {
			return fmt.Errorf("amount: malformed int32")
		}
		*a = Amount(i)
	case bsontype.Int64:
		i, ok := value.Int64OK()
		if !ok {
			return fmt.Errorf("amount: malformed int64")
		}
		*a = Amount(i)
	case bsontype.String:
		s, ok := value.StringValueOK()
		if !ok {
			return fmt.Errorf("amount: malformed string")
		}
		*a = ParseAmount(s)
	case bsontype.Null, bsontype.Undefined:
		*a = 0
	default:
		return fmt.Errorf("amount: unsupported bson type %s", t)
	}
	return nil
}
