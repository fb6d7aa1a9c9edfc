package app

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
	"github.com/Dasieloski/dasieloski-store/internal/messaging/kafka"
	"github.com/Dasieloski/dasieloski-store/internal/service/outbox"
)

// Kafka-публикация размыкается после серии сбоев, чтобы воркер не ждал таймаутов брокера.
const (
	kafkaCircuitMaxFailures  = 5
	kafkaCircuitResetTimeout = 30 * time.Second
)

// initKafkaProducer создаёт producer, если brokers не пустой.
// Возвращает nil, nil для пустого brokers.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	brokerList := splitBrokers(brokers)
	if len(brokerList) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// initOutboxPublishers выбирает publisher событий каталога: Kafka при наличии
// брокеров, иначе логирование. DLQ доступна только с Kafka.
func initOutboxPublishers(cfg Config, logger *log.Entry) (publisher, dlq domain.OutboxPublisher, producer *kafka.Producer) {
	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil || producer == nil {
		return outbox.NewLogPublisher(log.WithField("component", "outbox-log-publisher")), nil, nil
	}
	dlqTopic := cfg.KafkaDLQTopic
	if dlqTopic == "" {
		dlqTopic = kafka.TopicDeadLetterQueue
	}
	primary := outbox.NewCircuitPublisher(
		kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
		kafkaCircuitMaxFailures,
		kafkaCircuitResetTimeout,
		log.WithField("component", "outbox-circuit"),
	)
	return primary, kafka.NewOutboxPublisher(producer, dlqTopic), producer
}

// closeKafka закрывает producer, если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
