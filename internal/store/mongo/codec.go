package mongo

import (
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var timeType = reflect.TypeOf(time.Time{})

// newRegistry decodes timestamps written as epoch milliseconds by older
// clients alongside regular BSON dates.
func newRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeDecoder(timeType, bsoncodec.ValueDecoderFunc(decodeTime))
	return reg
}

func decodeTime(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != timeType {
		return bsoncodec.ValueDecoderError{Name: "decodeTime", Types: []reflect.Type{timeType}, Received: val}
	}

	var t time.Time
	switch vr.Type() {
	case bsontype.DateTime:
		ms, err := vr.ReadDateTime()
		if err != nil {
			return err
		}
		t = time.UnixMilli(ms)
	case bsontype.Double:
		f, err := vr.ReadDouble()
		if err != nil {
			return err
		}
		t = time.UnixMilli(int64(f))
	case bsontype.Int64:
		ms, err := vr.ReadInt64()
		if err != nil {
			return err
		}
		t = time.UnixMilli(ms)
	case bsontype.Int32:
		ms, err := vr.ReadInt32()
		if err != nil {
			return err
		}
		t = time.UnixMilli(int64(ms))
	case bsontype.String:
		raw, err := vr.ReadString()
		if err != nil {
			return err
		}
		if parsed, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			t = parsed
		}
	case bsontype.Null:
		if err := vr.ReadNull(); err != nil {
			return err
		}
	case bsontype.Undefined:
		if err := vr.ReadUndefined(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("cannot decode %v into time.Time", vr.Type())
	}
	if !t.IsZero() {
		t = t.UTC()
	}
	val.Set(reflect.ValueOf(t))
	return nil
}
