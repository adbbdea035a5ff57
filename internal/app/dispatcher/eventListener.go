package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/airenas/bpoc/internal/pkg/cmdapp"
	"github.com/airenas/bpoc/internal/pkg/messages"
	"github.com/airenas/bpoc/internal/pkg/planner"
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

type eventChannelFunc func() (<-chan amqp.Delivery, error)

type backoffProvider interface {
	Get() backoff.BackOff
}

//expBackOffProvider retries forever with the interval capped at a minute
type expBackOffProvider struct {
}

func (bp *expBackOffProvider) Get() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         time.Minute,
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

var errChannelClosed = errors.New("Event channel closed")

//listenEvents consumes lifecycle events and reconnects until ctx is canceled
func listenEvents(ctx context.Context, data *ServiceData, chFunc eventChannelFunc, bp backoffProvider) error {
	bo := bp.Get()
	op := func() error {
		cmdapp.Log.Infof("Trying listening event queue")
		msgs, err := chFunc()
		if err != nil {
			return err
		}
		bo.Reset()
		return listenQueue(ctx, msgs, data)
	}
	notify := func(err error, d time.Duration) {
		cmdapp.Log.Errorf("Event queue failed: %v. Wait %s before reconnect", err, d.String())
	}
	return backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify)
}

func listenQueue(ctx context.Context, msgs <-chan amqp.Delivery, data *ServiceData) error {
	for {
		select {
		case <-ctx.Done():
			cmdapp.Log.Infof("Stopped listening event queue")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errChannelClosed
			}
			processEventMsg(&d, data)
		}
	}
}

//processEventMsg acks handled events, rejected ones are not requeued
func processEventMsg(d *amqp.Delivery, data *ServiceData) {
	err := handleEventMsg(d.Body, data)
	if err != nil {
		cmdapp.Log.Errorf("Can't process event %s: %v", string(d.Body), err)
		if planner.IsInvariant(err) {
			data.metrics.violations.Inc()
		}
		cmdapp.LogIf(d.Nack(false, false))
		return
	}
	cmdapp.LogIf(d.Ack(false))
}

func handleEventMsg(body []byte, data *ServiceData) error {
	var msg messages.EventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return errors.Wrap(err, "Can't unmarshal event")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return reportEvent(data, &msg)
}
