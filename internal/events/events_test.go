package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

func TestSerializeEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	ev := Event{
		Kind:  KindCreated,
		RunID: "01JH2M3N4P",
		Record: &alert.Record{
			ID:        "rec-1",
			Type:      alert.TypeWind,
			Country:   "BE",
			Certainty: 95,
			Workflow:  alert.WorkflowPublished,
		},
		OccurredAt: now,
	}

	msg, err := serializeEvent(ev)
	require.NoError(t, err)

	assert.Equal(t, []byte("rec-1"), msg.Key, "messages must be keyed by record ID")
	assert.Contains(t, string(msg.Value), `"kind":"created"`)
	assert.Contains(t, string(msg.Value), `"run_id":"01JH2M3N4P"`)
	assert.Contains(t, string(msg.Value), `"certainty":95`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("created"), msg.Headers[0].Value)
	assert.Equal(t, "run_id", msg.Headers[1].Key)
}
