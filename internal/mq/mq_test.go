package mq

import (
	"testing"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeMail(t *testing.T) {
	publishing, err := EncodeMail(domain.MailMessage{
		Type: domain.MailTypeInvoice,
		To:   "student@example.com",
		Data: domain.InvoiceMailData{Name: "Rahul Kumar", SID: 12, AmountPaid: 300, RemainingDue: -50},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", publishing.ContentType)
	assert.Equal(t, amqp.Persistent, publishing.DeliveryMode)

	typ, to, data, err := DecodeMail(publishing.Body)
	require.NoError(t, err)
	assert.Equal(t, domain.MailTypeInvoice, typ)
	assert.Equal(t, "student@example.com", to)
	assert.Equal(t, "Rahul Kumar", data["name"])
	assert.EqualValues(t, -50, data["remainingDue"])
}

func TestDecodeMailRejectsIncomplete(t *testing.T) {
	_, _, _, err := DecodeMail([]byte(`{"type":"invoice"}`))
	assert.Error(t, err)

	_, _, _, err = DecodeMail([]byte(`not json`))
	assert.Error(t, err)
}
