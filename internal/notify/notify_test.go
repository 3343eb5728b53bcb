package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"designcraft/internal/config"
	"designcraft/internal/logger"
	"designcraft/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func newTestLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

type fakeDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.messages = append(d.messages, m...)
	return d.err
}

type recordingSender struct {
	sent []Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func TestNewSender_SelectsImplementation(t *testing.T) {
	log := newTestLogger()

	_, isLog := NewSender(&config.MailConfig{}, log).(*LogSender)
	assert.True(t, isLog)

	_, isSMTP := NewSender(&config.MailConfig{Host: "smtp.example.com", Port: 587}, log).(*SMTPSender)
	assert.True(t, isSMTP)
}

func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d, from: "DesignCraft <no-reply@designcraft.com>", log: newTestLogger()}

	err := s.Send(context.Background(), Message{To: "ann@example.com", Subject: "Hi", HTML: "<p>x</p>", Text: "x"})
	require.NoError(t, err)
	require.Len(t, d.messages, 1)
	assert.Equal(t, []string{"ann@example.com"}, d.messages[0].GetHeader("To"))
	assert.Equal(t, []string{"Hi"}, d.messages[0].GetHeader("Subject"))
}

func TestSMTPSender_SendError(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	s := &SMTPSender{dialer: d, log: newTestLogger()}

	err := s.Send(context.Background(), Message{To: "ann@example.com", Subject: "Hi", Text: "x"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d, log: newTestLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Send(ctx, Message{To: "a@b.c", Subject: "s"}), context.Canceled)
	assert.Empty(t, d.messages)
}

func TestSenders_ValidateMessage(t *testing.T) {
	log := newTestLogger()
	assert.Error(t, NewLogSender(log).Send(context.Background(), Message{Subject: "s"}))
	assert.Error(t, NewLogSender(log).Send(context.Background(), Message{To: "a@b.c"}))
	assert.NoError(t, NewLogSender(log).Send(context.Background(), Message{To: "a@b.c", Subject: "s"}))
}

func TestTemplates_EscapeContent(t *testing.T) {
	tpl := NewTemplates("", "http://front/", "http://api/")

	msg, err := tpl.Campaign("a@b.c", "News", "<script>alert(1)</script>", "tok")
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "http://api/api/newsletter/unsubscribe/tok")
	assert.Contains(t, msg.HTML, "DesignCraft")
}

func TestTemplates_Welcome(t *testing.T) {
	tpl := NewTemplates("Studio", "http://front", "http://api")

	msg, err := tpl.Welcome("reader@example.com", "tok")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Studio")
	assert.Contains(t, msg.Text, "http://api/api/newsletter/unsubscribe/tok")
}

func newCreatedEvent(t *testing.T) *models.Event {
	t.Helper()
	code := "SAVE10"
	event, err := models.NewEvent(models.EventTypeOrderCreated, models.OrderCreatedData{
		OrderID:         uuid.New(),
		ClientName:      "Ann",
		ClientEmail:     "ann@example.com",
		ServiceName:     "Logo",
		ServicePrice:    decimal.NewFromInt(200),
		CouponCode:      &code,
		DiscountPercent: 10,
		FinalPrice:      decimal.NewFromInt(180),
		CreatedAt:       time.Now(),
	})
	require.NoError(t, err)
	return &event
}

func TestOrderNotifier_HandleOrderCreated(t *testing.T) {
	sender := &recordingSender{}
	n := NewOrderNotifier(sender, NewTemplates("DesignCraft", "http://front", "http://api"), newTestLogger())

	require.NoError(t, n.HandleOrderCreated(context.Background(), newCreatedEvent(t)))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "ann@example.com", msg.To)
	assert.True(t, strings.Contains(msg.HTML, "180.00"))
	assert.Contains(t, msg.HTML, "SAVE10")
}

func TestOrderNotifier_SendFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	n := NewOrderNotifier(sender, NewTemplates("", "", ""), newTestLogger())

	assert.NoError(t, n.HandleOrderCreated(context.Background(), newCreatedEvent(t)))
}

func TestOrderNotifier_BadPayload(t *testing.T) {
	n := NewOrderNotifier(&recordingSender{}, NewTemplates("", "", ""), newTestLogger())

	err := n.HandleOrderCreated(context.Background(), &models.Event{ID: uuid.New(), Type: models.EventTypeOrderCreated})
	assert.Error(t, err)
}
