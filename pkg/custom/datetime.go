package custom

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Datetime represents a datetime. It is stored as an RFC3339 string in UTC.
type Datetime time.Time

// NewDatetime creates a Datetime from a time.
func NewDatetime(t time.Time) Datetime {
	return Datetime(t.UTC())
}

// Time returns the underlying time.
func (d Datetime) Time() time.Time {
	return time.Time(d)
}

// IsZero reports whether the datetime is unset.
func (d Datetime) IsZero() bool {
	return time.Time(d).IsZero()
}

// MarshalJSON implements the json.Marshaler interface.
func (d Datetime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf(`%q`, time.Time(d).UTC().Format(time.RFC3339))), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Datetime) UnmarshalJSON(text []byte) error {
	got := strings.Trim(string(text), `"`)
	if got == "" || got == "null" {
		*d = Datetime{}
		return nil
	}

	t, err := time.Parse(time.RFC3339, got)
	if err != nil {
		return fmt.Errorf("invalid datetime: %w", err)
	}
	*d = Datetime(t)
	return nil
}

// MarshalBSONValue implements the bson.ValueMarshaler interface.
func (d Datetime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if d.IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(time.Time(d).UTC().Format(time.RFC3339))
}

// UnmarshalBSONValue implements the bson.ValueUnmarshaler interface. Native BSON datetimes are accepted
// as well as the string form written by MarshalBSONValue.
func (d *Datetime) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*d = Datetime{}
		return nil
	case bson.TypeString:
		s, _, ok := bsoncore.ReadString(data)
		if !ok {
			return fmt.Errorf("invalid datetime: malformed string")
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid datetime: %s", s)
		}
		*d = Datetime(parsed)
		return nil
	case bson.TypeDateTime:
		ms, _, ok := bsoncore.ReadDateTime(data)
		if !ok {
			return fmt.Errorf("invalid datetime: malformed datetime")
		}
		*d = Datetime(time.UnixMilli(ms).UTC())
		return nil
	default:
		return fmt.Errorf("invalid datetime: unsupported bson type %s", t)
	}
}

// String implements the fmt.Stringer interface.
func (d Datetime) String() string {
	return time.Time(d).Format(time.RFC3339)
}
