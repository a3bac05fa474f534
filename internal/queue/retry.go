package queue

import (
	"errors"

	"github.com/necronomicon/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	retriesHeader = "x-retries"
	// MaxRetries is the number of redeliveries before a message is
	// dead-lettered.
	MaxRetries = 10
)

// ErrPermanent marks a failure that retrying cannot fix. Messages failing
// with it go to the dead-letter queue immediately.
var ErrPermanent = errors.New("permanent failure")

// RetryCount reads the redelivery counter from message headers.
func RetryCount(headers amqp091.Table) int {
	switch v := headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	default:
		return 0
	}
}

// Route decides where a failed message goes next and returns the headers to
// publish it with. The incoming headers are not modified.
func Route(queueName string, headers amqp091.Table, err error) (target string, out amqp091.Table) {
	retries := RetryCount(headers)

	out = amqp091.Table{}
	for k, v := range headers {
		out[k] = v
	}

	if retries >= MaxRetries || errors.Is(err, ErrPermanent) {
		return DeadLetterQueue(queueName), out
	}
	out[retriesHeader] = int32(retries + 1)
	return RetryQueue(queueName), out
}

// HandleProcessingError republishes a failed delivery to the retry or
// dead-letter queue of queueName and acknowledges the original. If the
// republish fails the delivery is requeued instead.
func HandleProcessingError(p Publisher, msg amqp091.Delivery, queueName string, cause error) {
	target, headers := Route(queueName, msg.Headers, cause)
	if target == DeadLetterQueue(queueName) {
		logger.Warn("[Queue] Sending message to DLQ", "dlq", target, "retries", RetryCount(msg.Headers), "err", cause)
	}

	pubErr := p.Publish(
		"",
		target,
		false,
		false,
		amqp091.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			Headers:      headers,
			DeliveryMode: amqp091.Persistent,
		},
	)
	if pubErr != nil {
		logger.Error("[Queue] Failed to republish message", "queue", target, "err", pubErr)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
