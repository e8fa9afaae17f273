package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

func TestDecodeActivity_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"single string user", `{"user":"alice","host":"z1r1p1","type":"login","at":"2024-03-04T10:00:00Z"}`, 1},
		{"object user", `{"user":{"login":"alice"},"host":"z1r1p1","type":"logout","at":"2024-03-04T10:00:00Z"}`, 1},
		{"array", `[{"user":"a","host":"z1r1p1","type":"login","at":"2024-03-04T10:00:00Z"},{"user":"b","host":"z1r1p2","type":"login","at":"2024-03-04T10:00:00Z"}]`, 2},
		{"missing host skipped", `{"user":"alice","type":"login","at":"2024-03-04T10:00:00Z"}`, 0},
		{"bad time skipped", `{"user":"alice","host":"z1r1p1","type":"login","at":"yesterday"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := DecodeActivity([]byte(tt.payload))
			require.NoError(t, err)
			assert.Len(t, events, tt.want)
		})
	}
}

func TestDecodeActivity_Malformed(t *testing.T) {
	_, err := DecodeActivity([]byte(`"just a string"`))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = DecodeActivity([]byte("   "))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestEncodeActivity_Decodes(t *testing.T) {
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	payload, err := EncodeActivity(domain.ActivityEvent{User: "alice", Host: "z1r1p1", Type: domain.EventLogin, At: at})
	require.NoError(t, err)

	events, err := DecodeActivity(payload)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].User)
	assert.True(t, events[0].At.Equal(at))
}
