package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"realtime-threads/internal/models"

	"github.com/IBM/sarama"
)

// Activity kinds.
const (
	KindDirectMessage = "direct_message"
	KindNotification  = "notification"
)

func InitKafkaProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy  // Enable compression
	config.Producer.Partitioner = sarama.NewHashPartitioner // Consistent hashing per recipient key
	config.Version = sarama.V2_0_0_0
	config.ClientID = clientID
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// ActivityRecord is one entry on the activity topic.
type ActivityRecord struct {
	Kind            string      `json:"kind"`
	RecipientUserID uint        `json:"recipientUserId"`
	OccurredAt      time.Time   `json:"occurredAt"`
	Payload         interface{} `json:"payload"`
}

// ActivityPublisher writes persisted messages and notifications to a topic,
// keyed by recipient so each user's activity stays ordered in one partition.
type ActivityPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewActivityPublisher(producer sarama.SyncProducer, topic string) *ActivityPublisher {
	return &ActivityPublisher{producer: producer, topic: topic}
}

func (p *ActivityPublisher) MessageCreated(ctx context.Context, msg models.DirectMessageResponse) error {
	return p.publish(ctx, ActivityRecord{
		Kind:            KindDirectMessage,
		RecipientUserID: msg.RecipientUserID,
		OccurredAt:      msg.CreatedAt,
		Payload:         msg,
	})
}

func (p *ActivityPublisher) NotificationCreated(ctx context.Context, recipientUserID uint, n models.NotificationResponse) error {
	return p.publish(ctx, ActivityRecord{
		Kind:            KindNotification,
		RecipientUserID: recipientUserID,
		OccurredAt:      n.CreatedAt,
		Payload:         n,
	})
}

func (p *ActivityPublisher) publish(ctx context.Context, record ActivityRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", record.Kind, err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(record.RecipientUserID), 10)),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(record.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("produce %s record: %w", record.Kind, err)
	}
	return nil
}

func (p *ActivityPublisher) Close() error {
	return p.producer.Close()
}
