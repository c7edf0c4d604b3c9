package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateStruct(v any) error {
	return shared.ValidateRequest(v)
}

func TestNullableTime(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSet bool
		wantNil bool
	}{
		{name: "absent", body: `{}`, wantSet: false, wantNil: true},
		{name: "null", body: `{"due_date":null}`, wantSet: true, wantNil: true},
		{name: "value", body: `{"due_date":"2030-01-02T03:04:05Z"}`, wantSet: true, wantNil: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req UpdateTaskRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.wantSet, req.DueDate.Set)
			assert.Equal(t, tc.wantNil, req.DueDate.Value == nil)
			if !tc.wantNil {
				assert.True(t, req.DueDate.Value.Equal(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)))
			}
		})
	}

	var req UpdateTaskRequest
	assert.Error(t, json.Unmarshal([]byte(`{"due_date":"next week"}`), &req))
}
