package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"realtime-threads/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageCreatedIsKeyedByRecipient(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "threads.activity" {
			return fmt.Errorf("unexpected topic %q", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "2" {
			return fmt.Errorf("unexpected key %q", key)
		}

		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var record struct {
			Kind            string                       `json:"kind"`
			RecipientUserID uint                         `json:"recipientUserId"`
			Payload         models.DirectMessageResponse `json:"payload"`
		}
		if err := json.Unmarshal(value, &record); err != nil {
			return err
		}
		if record.Kind != KindDirectMessage || record.RecipientUserID != 2 || record.Payload.ID != 11 {
			return fmt.Errorf("unexpected record %+v", record)
		}
		return nil
	})

	publisher := NewActivityPublisher(producer, "threads.activity")
	body := "hello"
	err := publisher.MessageCreated(context.Background(), models.DirectMessageResponse{
		ID:              11,
		SenderUserID:    1,
		RecipientUserID: 2,
		Body:            &body,
		CreatedAt:       time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Close())
}

func TestNotificationCreated(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var record ActivityRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return err
		}
		if record.Kind != KindNotification || record.RecipientUserID != 7 {
			return fmt.Errorf("unexpected record %+v", record)
		}
		return nil
	})

	publisher := NewActivityPublisher(producer, "threads.activity")
	err := publisher.NotificationCreated(context.Background(), 7, models.NotificationResponse{ID: 3, Type: models.NotificationLikeOnThread})
	require.NoError(t, err)
	require.NoError(t, publisher.Close())
}

func TestProduceFailureIsReturned(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	brokerDown := errors.New("broker down")
	producer.ExpectSendMessageAndFail(brokerDown)

	publisher := NewActivityPublisher(producer, "threads.activity")
	err := publisher.NotificationCreated(context.Background(), 7, models.NotificationResponse{ID: 3})
	assert.ErrorIs(t, err, brokerDown)
	require.NoError(t, publisher.Close())
}

func TestCancelledContextSkipsProduce(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := NewActivityPublisher(producer, "threads.activity")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, publisher.MessageCreated(ctx, models.DirectMessageResponse{ID: 1}), context.Canceled)
	require.NoError(t, publisher.Close())
}
