package remote

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"mongo id", `{"_id":"a"}`, `{"id":"a"}`},
		{"id wins", `{"_id":"a","id":"b"}`, `{"id":"b"}`},
		{"empty id replaced", `{"_id":"a","id":""}`, `{"id":"a"}`},
		{"user id", `{"userId":"u"}`, `{"ownerId":"u"}`},
		{"version dropped", `{"id":"a","__v":3}`, `{"id":"a"}`},
		{"nested habit", `{"habitId":{"_id":"h","name":"x"}}`, `{"habitId":"h"}`},
		{"nested habit plain id", `{"habitId":{"id":"h"}}`, `{"habitId":"h"}`},
		{"scalar habit", `{"habitId":"h"}`, `{"habitId":"h"}`},
		{"completedAt", `{"completedAt":"2024-01-01T00:00:00Z"}`, `{"timestamp":"2024-01-01T00:00:00Z"}`},
		{"timestamp kept", `{"completedAt":"x","timestamp":"y"}`, `{"timestamp":"y"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize(json.RawMessage(tt.in))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestNormalize_BadReference(t *testing.T) {
	_, err := normalize(json.RawMessage(`{"habitId":{"name":"x"}}`))
	assert.Error(t, err)
}

func TestNormalizeList_Null(t *testing.T) {
	got, err := normalizeList(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))
}
