package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/necronomicon/backend/internal/util"
	"github.com/necronomicon/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// retryTTL is how long a message waits in a _retry queue before it is
// dead-lettered back to its work queue.
const retryTTL = 10 * time.Second

// Publisher is the part of *amqp091.Channel used to publish messages.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

func Init() *amqp091.Connection {
	user := util.GetEnvString("RABBITMQ_USER", "guest")
	pass := util.GetEnvString("RABBITMQ_PASSWORD", "guest")
	host := util.GetEnvString("RABBITMQ_HOST", "localhost")
	port := util.GetEnvString("RABBITMQ_PORT", "5672")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares every work queue together with its _dlq and _retry
// companions. Messages in a _retry queue return to the work queue after
// retryTTL.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}

		dlqName := DeadLetterQueue(name)
		_, err = ch.QueueDeclare(dlqName, true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue declare %s: %w", dlqName, err)
		}

		retryName := RetryQueue(name)
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryTTL.Milliseconds()),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("queue declare %s: %w", retryName, err)
		}
	}

	return nil
}

func DeadLetterQueue(name string) string {
	return name + "_dlq"
}

func RetryQueue(name string) string {
	return name + "_retry"
}

// PublishFIFO publishes data as a persistent message on the default
// exchange, routed straight to queueName.
func PublishFIFO(p Publisher, queueName string, contentType string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:  contentType,
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}
	return p.Publish("", queueName, false, false, publishing)
}

// PublishJSON encodes v and publishes it with PublishFIFO.
func PublishJSON(p Publisher, queueName string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return PublishFIFO(p, queueName, "application/json", data)
}
