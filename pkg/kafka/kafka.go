package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prohmpiriya/session-ticketing/pkg/retry"
	"github.com/twmb/franz-go/pkg/kgo"
)

// ErrClosed is returned by Poll after Close
var ErrClosed = errors.New("kafka client closed")

// Message is an outgoing record
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Record is a consumed record
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time

	raw *kgo.Record
}

// ProducerConfig configures a Producer
type ProducerConfig struct {
	Brokers       []string
	ClientID      string
	MaxRetries    int
	RetryInterval time.Duration
	Linger        time.Duration
}

// Producer publishes messages synchronously
type Producer struct {
	client *kgo.Client
	policy retry.Policy
}

// NewProducer creates a producer and verifies broker connectivity
func NewProducer(ctx context.Context, cfg *ProducerConfig) (*Producer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.Linger > 0 {
		opts = append(opts, kgo.ProducerLinger(cfg.Linger))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Kafka: %w", err)
	}

	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	return &Producer{
		client: client,
		policy: retry.Policy{
			Attempts:       cfg.MaxRetries + 1,
			InitialBackoff: interval,
			MaxBackoff:     10 * interval,
			Multiplier:     2,
			Jitter:         0.1,
		},
	}, nil
}

// Produce writes msg and waits for the broker ack, retrying transient failures
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	rec := toKgoRecord(msg)
	return retry.Do(ctx, p.policy, func(ctx context.Context) error {
		return p.client.ProduceSync(ctx, rec).FirstErr()
	}, nil)
}

// Close flushes pending records and closes the client
func (p *Producer) Close() {
	p.client.Close()
}

// ConsumerConfig configures a Consumer
type ConsumerConfig struct {
	Brokers        []string
	GroupID        string
	Topics         []string
	ClientID       string
	SessionTimeout time.Duration
	// MaxPollRecords caps how many records Poll returns (0 = no cap)
	MaxPollRecords int
}

// Consumer is a group consumer with manual commits
type Consumer struct {
	client  *kgo.Client
	maxPoll int
}

// NewConsumer joins the consumer group and verifies connectivity
func NewConsumer(ctx context.Context, cfg *ConsumerConfig) (*Consumer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.GroupID == "" || len(cfg.Topics) == 0 {
		return nil, errors.New("kafka: group id and topics are required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.SessionTimeout > 0 {
		opts = append(opts, kgo.SessionTimeout(cfg.SessionTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Kafka: %w", err)
	}

	return &Consumer{client: client, maxPoll: cfg.MaxPollRecords}, nil
}

// Poll blocks until records are available or ctx is done
func (c *Consumer) Poll(ctx context.Context) ([]*Record, error) {
	var fetches kgo.Fetches
	if c.maxPoll > 0 {
		fetches = c.client.PollRecords(ctx, c.maxPoll)
	} else {
		fetches = c.client.PollFetches(ctx)
	}

	if fetches.IsClientClosed() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var errs []error
	fetches.EachError(func(topic string, partition int32, err error) {
		errs = append(errs, fmt.Errorf("fetch %s[%d]: %w", topic, partition, err))
	})

	var records []*Record
	fetches.EachRecord(func(r *kgo.Record) {
		records = append(records, fromKgoRecord(r))
	})

	return records, errors.Join(errs...)
}

// CommitRecords commits the offsets of the given records
func (c *Consumer) CommitRecords(ctx context.Context, records []*Record) error {
	raw := make([]*kgo.Record, 0, len(records))
	for _, r := range records {
		if r.raw != nil {
			raw = append(raw, r.raw)
		}
	}
	if len(raw) == 0 {
		return nil
	}
	return c.client.CommitRecords(ctx, raw...)
}

// Close leaves the group and closes the client
func (c *Consumer) Close() {
	c.client.Close()
}

func toKgoRecord(msg *Message) *kgo.Record {
	rec := &kgo.Record{
		Topic:     msg.Topic,
		Value:     msg.Value,
		Timestamp: msg.Timestamp,
	}
	if msg.Key != "" {
		rec.Key = []byte(msg.Key)
	}
	for k, v := range msg.Headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return rec
}

func fromKgoRecord(r *kgo.Record) *Record {
	rec := &Record{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Timestamp: r.Timestamp,
		raw:       r,
	}
	if len(r.Headers) > 0 {
		rec.Headers = make(map[string]string, len(r.Headers))
		for _, h := range r.Headers {
			rec.Headers[h.Key] = string(h.Value)
		}
	}
	return rec
}
