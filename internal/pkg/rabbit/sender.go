package rabbit

import (
	"encoding/json"
	"sync"

	"github.com/airenas/bpoc/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

//Sender publishes JSON messages to rabbit mq queues
type Sender struct {
	ChannelProvider *ChannelProvider
	declared        map[string]bool
	m               sync.Mutex
}

//NewSender initializes rabbit sender
func NewSender(provider *ChannelProvider) *Sender {
	return &Sender{ChannelProvider: provider, declared: make(map[string]bool)}
}

//Send marshals msg and publishes it to the queue, the queue is declared on first use
func (sender *Sender) Send(msg interface{}, queue string) error {
	msgBytes, err := getBytes(msg)
	if err != nil {
		return errors.Wrap(err, "Can't marshal message")
	}
	qName := sender.ChannelProvider.QueueName(queue)
	cmdapp.Log.Debugf("Sending message to %s", qName)

	sender.m.Lock()
	defer sender.m.Unlock()
	err = sender.ChannelProvider.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
		if !sender.declared[qName] {
			if _, err := DeclareQueue(ch, qName); err != nil {
				return err
			}
			sender.declared[qName] = true
		}
		return ch.Publish(
			"", // exchange
			qName,
			false, // mandatory
			false,
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				ContentType:  "application/json",
				Body:         msgBytes,
			})
	})
	if err != nil {
		sender.declared = make(map[string]bool)
		return errors.Wrap(err, "Can't send message")
	}
	return nil
}

func getBytes(msg interface{}) ([]byte, error) {
	if b, ok := msg.([]byte); ok {
		return b, nil
	}
	return json.Marshal(msg)
}
