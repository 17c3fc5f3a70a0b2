package rabbitmq_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/dpyhq/cryptobill/db/models"
	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/dpyhq/cryptobill/rabbitmq"
	"github.com/dpyhq/cryptobill/rabbitmq/mock_rabbitmq"
	"github.com/golang/mock/gomock"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:generate mockgen -destination=./mock_rabbitmq/rabbitmq.go github.com/dpyhq/cryptobill/rabbitmq AMQPClient

func confirmedEvent() service.PaymentEvent {
	return service.PaymentEvent{
		Event: common.EventPaymentConfirmed,
		Invoice: models.Invoice{
			ID:            7,
			InvoiceNumber: "DPY-2025-0007",
			Status:        common.InvoiceStatusPaid,
		},
		Payment: models.PaymentTransaction{
			ID:              3,
			InvoiceID:       7,
			TransactionHash: "0xabc",
			AmountReceived:  decimal.RequireFromString("100.5"),
			Currency:        "USDT",
			Network:         "TRX",
		},
		OccurredAt: time.Date(2025, 10, 8, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewClientDeclaresPaymentExchange(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	amqpClient.EXPECT().
		ExchangeDeclare("billing_events", amqp.ExchangeTopic, true, false, false, false, gomock.Nil()).
		Times(1).
		Return(nil)

	_, err := rabbitmq.NewClient(amqpClient, rabbitmq.WithPaymentExchange("billing_events"))
	assert.NoError(t, err)
}

func TestNewClientFailsWhenExchangeCannotBeDeclared(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	amqpClient.EXPECT().
		ExchangeDeclare(rabbitmq.DefaultPaymentExchange, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("channel closed"))

	_, err := rabbitmq.NewClient(amqpClient)
	assert.ErrorContains(t, err, "channel closed")
}

func TestPublishPaymentEvent(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	amqpClient.EXPECT().ExchangeDeclare(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	var published amqp.Publishing
	amqpClient.EXPECT().
		PublishWithContext(gomock.Any(), rabbitmq.DefaultPaymentExchange, "payment.payment_confirmed", false, false, gomock.Any()).
		Times(1).
		DoAndReturn(func(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
			// the body buffer goes back to the pool once publishing returns
			published = msg
			published.Body = append([]byte(nil), msg.Body...)
			return nil
		})

	client, err := rabbitmq.NewClient(amqpClient)
	require.NoError(t, err)

	event := confirmedEvent()
	require.NoError(t, client.Notify(context.Background(), event))

	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, amqp.Persistent, published.DeliveryMode)
	assert.NotEmpty(t, published.MessageId)
	assert.Equal(t, event.OccurredAt, published.Timestamp)

	var decoded service.PaymentEvent
	require.NoError(t, json.Unmarshal(published.Body, &decoded))
	assert.Equal(t, common.EventPaymentConfirmed, decoded.Event)
	assert.Equal(t, int64(7), decoded.Invoice.ID)
	assert.Equal(t, "0xabc", decoded.Payment.TransactionHash)
	assert.True(t, decoded.Payment.AmountReceived.Equal(event.Payment.AmountReceived))
}

func TestPublishUsesFreshMessageIDs(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	amqpClient.EXPECT().ExchangeDeclare(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	ids := map[string]bool{}
	amqpClient.EXPECT().
		PublishWithContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Times(3).
		DoAndReturn(func(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
			ids[msg.MessageId] = true
			return nil
		})

	client, err := rabbitmq.NewClient(amqpClient)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, client.PublishPaymentEvent(context.Background(), confirmedEvent()))
	}
	assert.Len(t, ids, 3)
}

func TestPublishErrorIsReturned(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	amqpClient.EXPECT().ExchangeDeclare(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	amqpClient.EXPECT().
		PublishWithContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(rabbitmq.ErrReconnecting)

	client, err := rabbitmq.NewClient(amqpClient)
	require.NoError(t, err)
	assert.ErrorIs(t, client.Notify(context.Background(), confirmedEvent()), rabbitmq.ErrReconnecting)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "payment.payment_detected", rabbitmq.RoutingKey(service.PaymentEvent{Event: common.EventPaymentDetected}))
	assert.Equal(t, "payment.payment_confirmed", rabbitmq.RoutingKey(service.PaymentEvent{Event: common.EventPaymentConfirmed}))
}

func TestTailStopsWhenChannelCloses(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	ch := make(chan amqp.Delivery)
	close(ch)
	amqpClient.EXPECT().
		Listen(gomock.Any(), rabbitmq.DefaultPaymentExchange, rabbitmq.AllPaymentEvents, "tail", gomock.Any(), gomock.Any()).
		Return((<-chan amqp.Delivery)(ch), nil)

	err := rabbitmq.Tail(context.Background(), amqpClient, rabbitmq.DefaultPaymentExchange, "tail", func(service.PaymentEvent) error {
		t.Fatal("no event expected")
		return nil
	})
	assert.Error(t, err)
}

func TestTailStopsWithContext(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	ch := make(chan amqp.Delivery)
	amqpClient.EXPECT().
		Listen(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return((<-chan amqp.Delivery)(ch), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := rabbitmq.Tail(ctx, amqpClient, rabbitmq.DefaultPaymentExchange, "tail", func(service.PaymentEvent) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTailHandsDecodedEventsToHandler(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	body, err := json.Marshal(confirmedEvent())
	require.NoError(t, err)

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	ch := make(chan amqp.Delivery, 2)
	ch <- amqp.Delivery{Body: []byte("not json")}
	ch <- amqp.Delivery{Body: body}
	close(ch)
	amqpClient.EXPECT().
		Listen(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return((<-chan amqp.Delivery)(ch), nil)

	var received []service.PaymentEvent
	_ = rabbitmq.Tail(context.Background(), amqpClient, rabbitmq.DefaultPaymentExchange, "tail", func(event service.PaymentEvent) error {
		received = append(received, event)
		return nil
	})
	require.Len(t, received, 1)
	assert.Equal(t, int64(7), received[0].Invoice.ID)
}
