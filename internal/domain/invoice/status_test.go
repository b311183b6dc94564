package invoice

import (
	"testing"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStatusTransition(t *testing.T) {
	allowed := map[InvoiceStatus][]InvoiceStatus{
		InvoiceStatusDraft:     {InvoiceStatusPending, InvoiceStatusSubmitted, InvoiceStatusCancelled},
		InvoiceStatusPending:   {InvoiceStatusSubmitted, InvoiceStatusCancelled},
		InvoiceStatusSubmitted: {InvoiceStatusApproved, InvoiceStatusCancelled},
		InvoiceStatusApproved:  {InvoiceStatusPaid, InvoiceStatusCancelled},
		InvoiceStatusPaid:      {InvoiceStatusCancelled},
		InvoiceStatusCancelled: {},
	}

	for _, from := range AllInvoiceStatuses {
		for _, to := range AllInvoiceStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}

			err := ValidateStatusTransition(from, to)
			if want {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, shared.IsStatusTransitionError(err))
			assert.False(t, shared.IsValidationError(err))

			var terr *shared.StatusTransitionError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, from.String(), terr.From)
			assert.Equal(t, to.String(), terr.To)
		}
	}
}

func TestInvoiceStatus_UnknownStatus(t *testing.T) {
	unknown := InvoiceStatus("ARCHIVED")
	assert.False(t, unknown.IsValid())
	assert.False(t, unknown.CanTransitionTo(InvoiceStatusCancelled))
	assert.False(t, InvoiceStatusDraft.CanTransitionTo(unknown))

	_, err := ParseInvoiceStatus("ARCHIVED")
	assert.True(t, shared.IsValidationError(err))

	status, err := ParseInvoiceStatus("APPROVED")
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusApproved, status)
}

func TestInvoiceStatus_Predicates(t *testing.T) {
	assert.True(t, InvoiceStatusCancelled.IsTerminal())
	assert.False(t, InvoiceStatusPaid.IsTerminal())
	assert.True(t, InvoiceStatusPaid.IsClosed())
	assert.True(t, InvoiceStatusCancelled.IsClosed())
	assert.False(t, InvoiceStatusApproved.IsClosed())
}

func TestPaymentStatus(t *testing.T) {
	assert.True(t, PaymentStatusPending.IsInFlight())
	assert.True(t, PaymentStatusProcessing.IsInFlight())
	for _, s := range []PaymentStatus{PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusVoided} {
		assert.True(t, s.IsValid())
		assert.False(t, s.IsInFlight(), s.String())
	}
	assert.False(t, PaymentStatus("LOST").IsValid())
	assert.True(t, PaymentMethodACH.IsValid())
	assert.False(t, PaymentMethod("BARTER").IsValid())
}
