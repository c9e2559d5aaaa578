package kafka

import (
	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	cb "github.com/Astemirdum/library-records/pkg/circuit_breaker"
)

const LoanTopic = "library.loans"

type Config struct {
	Addrs     []string `envconfig:"KAFKA_ADDRS"`
	LoanTopic string   `envconfig:"KAFKA_LOAN_TOPIC" default:"library.loans"`
	Breaker   cb.Config
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 1

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

// Enqueuer publishes a JSON encoded value keyed by key.
type Enqueuer interface {
	Enqueue(key string, v any) error
}

type enqueuer struct {
	producer sarama.SyncProducer
	topic    string
	breaker  cb.CircuitBreaker
}

func NewEnqueuer(producer sarama.SyncProducer, topic string, breaker cb.CircuitBreaker) Enqueuer {
	if topic == "" {
		topic = LoanTopic
	}
	return &enqueuer{
		producer: producer,
		topic:    topic,
		breaker:  breaker,
	}
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (q *enqueuer) Enqueue(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	msg := &sarama.ProducerMessage{
		Topic: q.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	return q.breaker.Call(func() error {
		_, _, err := q.producer.SendMessage(msg)
		return err
	})
}

// NopEnqueuer drops everything; used when no broker is configured.
type NopEnqueuer struct{}

func (NopEnqueuer) Enqueue(string, any) error { return nil }
