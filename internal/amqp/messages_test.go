package amqp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitAlertWireFormat(t *testing.T) {
	msg := &LimitAlertMessage{
		UserID:     "u1",
		Category:   "Food",
		Status:     "exceeded",
		LimitCents: 50000,
		SpentCents: 52000,
		Percentage: 104.0,
		Message:    "Food limit exceeded",
		Timestamp:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	require.NoError(t, err)

	// Field names are the wire contract with external workers.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	for _, key := range []string{"user_id", "category", "status", "limit_cents",
		"spent_cents", "percentage", "message", "timestamp"} {
		assert.Contains(t, raw, key)
	}

	decoded, err := LimitAlertMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)

	_, err = LimitAlertMessageFromJSON([]byte("{not json"))
	assert.Error(t, err)
}
