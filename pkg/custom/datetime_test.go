package custom

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type record struct {
	At Datetime `json:"at" bson:"at"`
}

func TestDatetime_BSON(t *testing.T) {
	at := NewDatetime(time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC))

	raw, err := bson.Marshal(record{At: at})
	require.NoError(t, err)

	var got record
	require.NoError(t, bson.Unmarshal(raw, &got))
	require.True(t, at.Time().Equal(got.At.Time()))
}

func TestDatetime_BSONNativeDate(t *testing.T) {
	want := time.Date(2023, 12, 1, 8, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{"at": want})
	require.NoError(t, err)

	var got record
	require.NoError(t, bson.Unmarshal(raw, &got))
	require.True(t, want.Equal(got.At.Time()))
}

func TestDatetime_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		zero bool
	}{
		{name: "value", in: `{"at":"2024-03-09T14:05:00Z"}`},
		{name: "null", in: `{"at":null}`, zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got record
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			require.Equal(t, tt.zero, got.At.IsZero())

			out, err := json.Marshal(got)
			require.NoError(t, err)
			require.JSONEq(t, tt.in, string(out))
		})
	}
}
