package sink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/resqlink/internal/config"
	"github.com/mr1hm/resqlink/internal/models"
)

func TestSerializeToMessage(t *testing.T) {
	raw := time.Date(2024, 10, 18, 5, 11, 0, 0, time.UTC)
	event := models.DisasterEvent{
		ID:       1000123,
		Type:     models.DisasterTypeEarthquake,
		Title:    "Earthquake in Nepal",
		Severity: models.SeverityLow,
		RawDate:  raw,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("1000123"), msg.Key)
	assert.Contains(t, string(msg.Value), `"type":"Earthquake"`)
	assert.Contains(t, string(msg.Value), `"occurred_at":"2024-10-18T05:11:00Z"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("Earthquake"), msg.Headers[0].Value)
	assert.Equal(t, "severity", msg.Headers[1].Key)
	assert.Equal(t, []byte("low"), msg.Headers[1].Value)
}

func TestSerializeToMessage_UnknownDate(t *testing.T) {
	msg, err := serializeToMessage(models.DisasterEvent{ID: 5, Date: "Unknown date"})
	require.NoError(t, err)

	assert.NotContains(t, string(msg.Value), "occurred_at")
}

func TestNew_DisabledIsNop(t *testing.T) {
	s := New(config.KafkaConfig{Enabled: false})

	_, ok := s.(Nop)
	assert.True(t, ok)
	assert.NoError(t, s.Publish(context.Background(), models.DisasterEvent{ID: 1}))
	assert.NoError(t, s.Close())
}

func TestNew_EnabledIsKafka(t *testing.T) {
	s := New(config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "disaster-events"})
	defer s.Close()

	ks, ok := s.(*KafkaSink)
	require.True(t, ok)
	assert.Equal(t, "disaster-events", ks.writer.Topic)
}
