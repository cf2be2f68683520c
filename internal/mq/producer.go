package mq

import (
	"encoding/json"
	"log"

	"github.com/streadway/amqp"

	"moba/server/sync-service/pkg/config"
)

// Producer publishes moderation reports to the queue the analytics service
// consumes.
type Producer struct {
	channel *amqp.Channel
	queue   string
}

func InitMQ(cfg config.MQConfig) *Producer {
	conn, err := amqp.Dial(cfg.Url)
	if err != nil {
		log.Fatalf("MQ connect failed: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("MQ channel failed: %v", err)
	}

	_, err = ch.QueueDeclare(
		cfg.QueueName,
		true, false, false, false, nil,
	)
	if err != nil {
		log.Fatalf("MQ queue declare failed: %v", err)
	}
	return &Producer{channel: ch, queue: cfg.QueueName}
}

// PublishViolationReport hands one entity's accumulated violations to the
// moderation collaborator. Publishing failures are logged, never fatal.
func (p *Producer) PublishViolationReport(report interface{}) {
	body, _ := json.Marshal(report)
	err := p.channel.Publish(
		"",
		p.queue,
		false, false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		log.Printf("Failed to publish violation report: %v", err)
	}
}
