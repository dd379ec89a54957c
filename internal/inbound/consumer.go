package inbound

import (
	"encoding/json"
	"log"

	"github.com/rabbitmq/amqp091-go"
)

// Consumer reads inbound customer messages from an AMQP queue as an
// alternative to the HTTP webhook. Each delivery is one JSON Message.
type Consumer struct {
	service *Service
	conn    *amqp091.Connection
	ch      *amqp091.Channel
	queue   string
	done    chan struct{}
}

func NewConsumer(url, queue string, service *Service) (*Consumer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &Consumer{
		service: service,
		conn:    conn,
		ch:      ch,
		queue:   queue,
		done:    make(chan struct{}),
	}, nil
}

// Start consumes deliveries until Close is called. Malformed payloads are
// dropped; failed recordings are requeued once by the broker.
func (c *Consumer) Start() error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-c.done:
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				var in Message
				if err := json.Unmarshal(d.Body, &in); err != nil {
					log.Printf("Dropping malformed inbound payload: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				if _, err := c.service.Record(in); err != nil {
					log.Printf("Error recording inbound message: %v", err)
					_ = d.Nack(false, !d.Redelivered)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	log.Printf("AMQP consumer started on queue %s", c.queue)
	return nil
}

func (c *Consumer) Close() error {
	close(c.done)
	if err := c.ch.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}
