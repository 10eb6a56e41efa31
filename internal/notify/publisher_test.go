package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	Exchange string
	Key      string
	Msg      amqp091.Publishing
}

// MockChannel records publishings.
type MockChannel struct {
	PublishErr error
	Published  []published
	Closed     bool
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Published = append(m.Published, published{Exchange: exchange, Key: key, Msg: msg})
	return nil
}

func (m *MockChannel) Close() error {
	m.Closed = true
	return nil
}

var run = domain.Run{
	ID:                  "run-7",
	Fingerprint:         "new",
	PreviousFingerprint: "old",
	GeneratedAt:         time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	RecordCount:         3,
}

func views() []aggregate.View {
	return []aggregate.View{
		{
			Name: aggregate.ViewByCategory,
			Rows: []aggregate.Row{
				{Key: []string{"Food"}, Total: decimal.NewFromInt(150), Count: 2},
				{Key: []string{"Transport"}, Total: decimal.RequireFromString("12.5"), Count: 1},
			},
		},
		{Name: aggregate.ViewByAccount, Rows: []aggregate.Row{}},
	}
}

func TestPublisher_NotifyUpdated(t *testing.T) {
	ch := &MockChannel{}
	p := NewPublisherWithChannel(ch, "expense_dashboard", "")

	require.NoError(t, p.NotifyUpdated(context.Background(), run, views()))
	require.Len(t, ch.Published, 1)

	got := ch.Published[0]
	assert.Equal(t, "expense_dashboard", got.Exchange)
	assert.Equal(t, DefaultRoutingKey, got.Key)
	assert.Equal(t, "application/json", got.Msg.ContentType)
	assert.Equal(t, amqp091.Persistent, got.Msg.DeliveryMode)
	assert.Equal(t, "run-7", got.Msg.MessageId)

	msg, err := ReportUpdatedMessageFromJSON(got.Msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "run-7", msg.RunID)
	assert.Equal(t, "old", msg.PreviousFingerprint)
	assert.Equal(t, 3, msg.RecordCount)
	assert.Equal(t, []ViewSummary{
		{Name: aggregate.ViewByCategory, Rows: 2, Total: "162.50"},
		{Name: aggregate.ViewByAccount, Rows: 0, Total: "0.00"},
	}, msg.Views)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &MockChannel{PublishErr: errors.New("channel closed")}
	p := NewPublisherWithChannel(ch, "x", "custom.key")

	err := p.NotifyUpdated(context.Background(), run, nil)
	assert.ErrorIs(t, err, ch.PublishErr)
}

func TestPublisher_Close(t *testing.T) {
	ch := &MockChannel{}
	require.NoError(t, NewPublisherWithChannel(ch, "x", "").Close())
	assert.True(t, ch.Closed)
}
