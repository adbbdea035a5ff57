package rabbit

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

//DeclareQueue declares durable queue
func DeclareQueue(ch *amqp.Channel, qName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		qName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

//NewChannel starts consuming the queue with manual ack
func NewChannel(ch *amqp.Channel, qName string) (<-chan amqp.Delivery, error) {
	msgs, err := ch.Consume(
		qName, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, errors.Wrap(err, "Can't consume "+qName)
	}
	return msgs, nil
}
