package eventbus

import (
	"testing"
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRebuildsTypedEvent(t *testing.T) {
	sender := uuid.New()
	in := events.TransactionRecorded{
		TransactionID: uuid.New(),
		Kind:          "expense",
		Amount:        2550,
		SenderID:      &sender,
		Description:   "Snacks",
		ActorID:       sender,
		OccurredAt:    time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	raw, err := encode(in)
	require.NoError(t, err)

	out, err := decode(raw)
	require.NoError(t, err)
	rec, ok := out.(*events.TransactionRecorded)
	require.True(t, ok, "decoded events are pointers, got %T", out)
	assert.Equal(t, in.TransactionID, rec.TransactionID)
	assert.Equal(t, int64(2550), rec.Amount)
	require.NotNil(t, rec.SenderID)
	assert.Equal(t, sender, *rec.SenderID)
	assert.Nil(t, rec.ReceiverID)
	assert.True(t, in.OccurredAt.Equal(rec.OccurredAt))
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := decode([]byte("not json"))
	assert.Error(t, err)

	_, err = decode([]byte(`{"type":"Unheard","payload":{}}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = decode([]byte(`{"type":"DependentCreated","payload":"oops"}`))
	assert.Error(t, err)
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "masroofy.transactionrecorded", topicNameFor("masroofy", events.EventTypeTransactionRecorded))
	assert.Equal(t, "masroofy.dlq.dependentdeleted", dlqNameFor("masroofy", events.EventTypeDependentDeleted))
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, parseBrokers(" a:9092 , ,b:9092"))
	assert.Empty(t, parseBrokers(""))
}
