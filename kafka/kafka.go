package kafka

import (
	"os"

	"bloom-planner/api/logger"
	"bloom-planner/api/worker"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
)

var (
	MessageProducer *kafka.Producer
	MessageTopic    = "planner_message"
	ResponseTopic   = "assistant_response"
	GroupID         = "assistant-response-consumer"
)

func InitProducer() error {
	config := &kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		"sasl.username":     os.Getenv("KAFKA_API_KEY"),
		"sasl.password":     os.Getenv("KAFKA_API_SECRET"),
		"security.protocol": "SASL_SSL",
		"sasl.mechanism":    "PLAIN",
	}

	var err error
	MessageProducer, err = kafka.NewProducer(config)
	if err != nil {
		logger.Get().Error("failed to initialize Kafka producer",
			zap.String("bootstrap_servers", os.Getenv("KAFKA_BOOTSTRAP_SERVERS")),
			zap.Error(err))
		return err
	}

	logger.Get().Info("Kafka producer initialized successfully",
		zap.String("bootstrap_servers", os.Getenv("KAFKA_BOOTSTRAP_SERVERS")))
	return nil
}

func ProduceMessage(topic string, message []byte) error {
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          message,
	}

	err := MessageProducer.Produce(msg, nil)
	if err != nil {
		logger.Get().Error("failed to produce message",
			zap.String("topic", topic),
			zap.Error(err))
		return err
	}

	logger.Get().Debug("message produced successfully",
		zap.String("topic", topic))
	return nil
}

// StartConsumer reads assistant responses and hands them to the worker pool,
// partition-affine so one session's chunks stay ordered.
func StartConsumer(pool *worker.Pool) error {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		"security.protocol":  "SASL_SSL",
		"sasl.mechanisms":    "PLAIN",
		"sasl.username":      os.Getenv("KAFKA_API_KEY"),
		"sasl.password":      os.Getenv("KAFKA_API_SECRET"),
		"session.timeout.ms": "45000",
		"client.id":          "planner-api",
		"group.id":           GroupID,
		"auto.offset.reset":  "latest",
	})
	if err != nil {
		logger.Get().Error("failed to create consumer",
			zap.String("bootstrap_servers", os.Getenv("KAFKA_BOOTSTRAP_SERVERS")),
			zap.Error(err))
		return err
	}

	err = consumer.Subscribe(ResponseTopic, nil)
	if err != nil {
		logger.Get().Error("failed to subscribe to topic",
			zap.String("topic", ResponseTopic),
			zap.Error(err))
		return err
	}

	logger.Get().Info("Kafka consumer started successfully",
		zap.String("topic", ResponseTopic),
		zap.String("group_id", GroupID))

	go func() {
		for {
			msg, err := consumer.ReadMessage(-1)
			if err != nil {
				logger.Get().Error("consumer error",
					zap.String("topic", ResponseTopic),
					zap.Error(err))
				continue
			}
			pool.Submit(msg.Value, msg.TopicPartition.Partition)
		}
	}()
	return nil
}
