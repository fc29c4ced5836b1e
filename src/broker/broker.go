// Package broker publishes citriage lifecycle events to a message broker.
package broker

import "context"

// Broker abstracts message publishing and consumption.
// InMemoryBroker serves single-process use and tests; RedpandaBroker
// publishes to a Kafka-compatible cluster.
type Broker interface {
	// Publish sends a message to a topic. key selects the partition on
	// Redpanda and is carried through unchanged in memory.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Subscribe returns a channel for consuming messages from a topic.
	// groupID is used for consumer group coordination in Kafka.
	Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error)

	// Close shuts down the broker connection gracefully.
	Close() error
}

// Message represents a consumed message from a broker.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Offset    int64
	Partition int32
	Timestamp int64
}

// Open returns a RedpandaBroker when brokers are configured and an
// InMemoryBroker otherwise.
func Open(brokers []string) (Broker, error) {
	if len(brokers) == 0 {
		return NewInMemoryBroker(), nil
	}
	return NewRedpandaBroker(brokers)
}
