package rabbitmq_test

import (
	"errors"
	"testing"

	"storefront/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeAcknowledger records how a delivery was settled.
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func TestDispatch(t *testing.T) {
	logger := zap.NewNop()

	t.Run("success acks", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		var seen string
		rabbitmq.Dispatch(logger, amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{"orderId":"o1"}`)}, func(msg amqp.Delivery) error {
			seen = string(msg.Body)
			return nil
		})
		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
		assert.Equal(t, `{"orderId":"o1"}`, seen)
	})

	t.Run("first failure requeues", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		rabbitmq.Dispatch(logger, amqp.Delivery{Acknowledger: ack, DeliveryTag: 2}, func(amqp.Delivery) error {
			return errors.New("boom")
		})
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
		assert.False(t, ack.acked)
	})

	t.Run("redelivered failure is dropped", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		rabbitmq.Dispatch(logger, amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Redelivered: true}, func(amqp.Delivery) error {
			return errors.New("boom")
		})
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})
}
