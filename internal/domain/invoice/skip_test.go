package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestService_ShouldSkipInvoice(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name   string
		mutate func(*Invoice)
		opts   SkipOptions
		skip   bool
		reason SkipReason
	}{
		{
			name: "processable",
			opts: DefaultSkipOptions(),
		},
		{
			name:   "paid",
			mutate: func(inv *Invoice) { inv.Status = InvoiceStatusPaid },
			opts:   DefaultSkipOptions(),
			skip:   true,
			reason: SkipReasonClosed,
		},
		{
			name:   "cancelled wins over every other check",
			mutate: func(inv *Invoice) {
				inv.Status = InvoiceStatusCancelled
				inv.Details = nil
				inv.DueDate = testNow.AddDate(0, 0, -1)
			},
			opts:   DefaultSkipOptions(),
			skip:   true,
			reason: SkipReasonClosed,
		},
		{
			name:   "future invoice date",
			mutate: func(inv *Invoice) { inv.InvoiceDate = testNow.AddDate(0, 0, 1) },
			opts:   DefaultSkipOptions(),
			skip:   true,
			reason: SkipReasonFutureInvoice,
		},
		{
			name:   "past due",
			mutate: func(inv *Invoice) { inv.DueDate = testNow.AddDate(0, 0, -1) },
			opts:   DefaultSkipOptions(),
			skip:   true,
			reason: SkipReasonPastDue,
		},
		{
			name: "due today is not past due",
			mutate: func(inv *Invoice) {
				inv.DueDate = time.Date(testNow.Year(), testNow.Month(), testNow.Day(), 0, 0, 0, 0, time.UTC)
			},
			opts: DefaultSkipOptions(),
		},
		{
			name:   "invoiced later today is not in the future",
			mutate: func(inv *Invoice) { inv.InvoiceDate = testNow.Add(6 * time.Hour) },
			opts:   DefaultSkipOptions(),
		},
		{
			name:   "dates not checked",
			mutate: func(inv *Invoice) { inv.DueDate = testNow.AddDate(0, 0, -1) },
			opts:   SkipOptions{CheckDetails: true, CheckPayments: true},
		},
		{
			name:   "dates before details",
			mutate: func(inv *Invoice) {
				inv.DueDate = testNow.AddDate(0, 0, -1)
				inv.Details = nil
			},
			opts:   DefaultSkipOptions(),
			skip:   true,
			reason: SkipReasonPastDue,
		},
		{
			name:   "no details",
			mutate: func(inv *Invoice) { inv.Details = nil },
			opts:   DefaultSkipOptions(),
			skip:   true,
			reason: SkipReasonNoActiveDetails,
		},
		{
			name: "only closed details",
			mutate: func(inv *Invoice) {
				inv.Details[0].Status = InvoiceStatusCancelled
				paid := newDetail(inv.ID, "1", "1", "0", "0")
				paid.Status = InvoiceStatusPaid
				inv.Details = append(inv.Details, paid)
			},
			opts:   DefaultSkipOptions(),
			skip:   true,
			reason: SkipReasonNoActiveDetails,
		},
		{
			name:   "details not checked",
			mutate: func(inv *Invoice) { inv.Details = nil },
			opts:   SkipOptions{CheckDates: true, CheckPayments: true},
		},
		{
			name:   "pending payment",
			mutate: func(inv *Invoice) { inv.Payments = []Payment{newPayment(inv.ID, "5", PaymentStatusPending)} },
			opts:   DefaultSkipOptions(),
			skip:   true,
			reason: SkipReasonUnsettledPayments,
		},
		{
			name:   "refunded payment",
			mutate: func(inv *Invoice) { inv.Payments = []Payment{newPayment(inv.ID, "5", PaymentStatusRefunded)} },
			opts:   DefaultSkipOptions(),
			skip:   true,
			reason: SkipReasonUnsettledPayments,
		},
		{
			name: "settled payments",
			mutate: func(inv *Invoice) {
				inv.Payments = []Payment{
					newPayment(inv.ID, "5", PaymentStatusCompleted),
					newPayment(inv.ID, "5", PaymentStatusVoided),
					newPayment(inv.ID, "5", PaymentStatusFailed),
				}
			},
			opts: DefaultSkipOptions(),
		},
		{
			name:   "payments not checked",
			mutate: func(inv *Invoice) { inv.Payments = []Payment{newPayment(inv.ID, "5", PaymentStatusProcessing)} },
			opts:   SkipOptions{CheckDates: true, CheckDetails: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := pricedInvoice(t, svc)
			if tt.mutate != nil {
				tt.mutate(&inv)
			}
			skip, reason := svc.ShouldSkipInvoice(inv, tt.opts)
			assert.Equal(t, tt.skip, skip)
			assert.Equal(t, tt.reason, reason)
			if tt.skip {
				assert.NotEmpty(t, reason.Description())
			}
		})
	}
}

func TestService_FilterProcessableInvoices(t *testing.T) {
	svc := newTestService()

	a := pricedInvoice(t, svc)
	b := pricedInvoice(t, svc)
	b.Status = InvoiceStatusCancelled
	c := pricedInvoice(t, svc)
	d := pricedInvoice(t, svc)
	d.Details = nil
	e := pricedInvoice(t, svc)

	processable, skipped := svc.FilterProcessableInvoices([]Invoice{a, b, c, d, e}, DefaultSkipOptions())

	assert.Len(t, processable, 3)
	assert.Equal(t, a.ID, processable[0].ID)
	assert.Equal(t, c.ID, processable[1].ID)
	assert.Equal(t, e.ID, processable[2].ID)

	assert.Len(t, skipped, 2)
	assert.Equal(t, b.ID, skipped[0].Invoice.ID)
	assert.Equal(t, SkipReasonClosed, skipped[0].Reason)
	assert.Equal(t, d.ID, skipped[1].Invoice.ID)
	assert.Equal(t, SkipReasonNoActiveDetails, skipped[1].Reason)

	processable, skipped = svc.FilterProcessableInvoices(nil, DefaultSkipOptions())
	assert.Empty(t, processable)
	assert.Empty(t, skipped)
}
