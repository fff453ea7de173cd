package core_test

import (
	"errors"
	"testing"
	"time"

	"billing-service/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newInvoice() *core.Document {
	return &core.Document{
		UserID:     "acct-1",
		Type:       core.TypeInvoice,
		ClientName: "Acme S.A.",
		Currency:   "USD",
		Items:      []core.LineItem{item("2", "100", "7"), item("1", "50", "0")},
		Discount:   &core.Discount{Kind: core.DiscountPercent, Value: dec("10")},
	}
}

func eventTypes(d *core.Document) []core.TimelineEventType {
	out := make([]core.TimelineEventType, len(d.Timeline))
	for i, e := range d.Timeline {
		out[i] = e.Type
	}
	return out
}

func TestOpen_DraftKeepsProvisionalID(t *testing.T) {
	doc := newInvoice()
	require.NoError(t, doc.Open(true, now))

	assert.Equal(t, core.StatusDraft, doc.Status)
	assert.True(t, core.IsProvisionalID(doc.ID))
	assertDecimal(t, "237.6", doc.Total, "total")
	assertDecimal(t, "10", doc.DiscountRate, "discount rate")
	assert.Equal(t, []core.TimelineEventType{core.EventDraft}, eventTypes(doc))
}

func TestOpen_CreatedNeedsAllocatedID(t *testing.T) {
	doc := newInvoice()
	require.Error(t, doc.Open(false, now))

	doc = newInvoice()
	doc.ID = "FAC-0001"
	require.NoError(t, doc.Open(false, now))
	assert.Equal(t, core.StatusCreated, doc.Status)
	assert.Equal(t, []core.TimelineEventType{core.EventCreated}, eventTypes(doc))
}

func TestOpen_ExpenseIsSettled(t *testing.T) {
	doc := newInvoice()
	doc.Type = core.TypeExpense
	doc.ID = "GAS-0001"
	require.NoError(t, doc.Open(false, now))

	assert.Equal(t, core.StatusPaid, doc.Status)
	assert.True(t, doc.AmountPaid.Equal(doc.Total))
	assert.True(t, doc.Balance().IsZero())
}

func TestFinalize(t *testing.T) {
	doc := newInvoice()
	require.NoError(t, doc.Open(true, now))
	draftID := doc.ID

	provisional, err := doc.Finalize("FAC-0007", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, draftID, provisional)
	assert.Equal(t, "FAC-0007", doc.ID)
	assert.Equal(t, core.StatusCreated, doc.Status)
	assert.Equal(t, []core.TimelineEventType{core.EventDraft, core.EventCreated}, eventTypes(doc))

	_, err = doc.Finalize("FAC-0008", now)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to core.DocumentStatus
		ok       bool
	}{
		{core.StatusDraft, core.StatusCreated, true},
		{core.StatusDraft, core.StatusPaid, false},
		{core.StatusCreated, core.StatusNegotiation, true},
		{core.StatusCreated, core.StatusAccepted, true},
		{core.StatusCreated, core.StatusRejected, true},
		{core.StatusCreated, core.StatusPartiallyPaid, true},
		{core.StatusCreated, core.StatusDraft, false},
		{core.StatusNegotiation, core.StatusAccepted, true},
		{core.StatusNegotiation, core.StatusPaid, false},
		{core.StatusAccepted, core.StatusPaid, true},
		{core.StatusPartiallyPaid, core.StatusPaid, true},
		{core.StatusPartiallyPaid, core.StatusUncollectible, true},
		{core.StatusPaid, core.StatusCreated, false},
		{core.StatusRejected, core.StatusAccepted, false},
		{core.StatusUncollectible, core.StatusPaid, false},
		{core.StatusPendingSync, core.StatusCreated, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, core.CanTransition(tt.from, tt.to))
		})
	}

	for _, s := range []core.DocumentStatus{core.StatusPaid, core.StatusRejected, core.StatusUncollectible} {
		assert.True(t, core.IsTerminal(s), s)
	}
	assert.False(t, core.IsTerminal(core.StatusPartiallyPaid))
}

func TestTransition_AppendsOneEvent(t *testing.T) {
	doc := newInvoice()
	doc.Type = core.TypeQuote
	doc.ID = "COT-0001"
	require.NoError(t, doc.Open(false, now))

	require.NoError(t, doc.Transition(core.StatusNegotiation, now, "client asked for 5% off"))
	require.NoError(t, doc.Transition(core.StatusAccepted, now, ""))

	err := doc.Transition(core.StatusNegotiation, now, "")
	var terr *core.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, core.StatusAccepted, terr.From)

	assert.Equal(t, []core.TimelineEventType{core.EventCreated, core.EventNegotiation, core.EventAccepted}, eventTypes(doc))
	assert.Equal(t, "client asked for 5% off", doc.Timeline[1].Note)
}

func TestTransition_PartiallyPaidNeedsPayment(t *testing.T) {
	doc := newInvoice()
	doc.ID = "FAC-0001"
	require.NoError(t, doc.Open(false, now))

	err := doc.Transition(core.StatusPartiallyPaid, now, "")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.Equal(t, core.StatusCreated, doc.Status)
	assert.True(t, doc.AmountPaid.IsZero())
	assert.Equal(t, []core.TimelineEventType{core.EventCreated}, eventTypes(doc))
}

func TestRecordDelivery(t *testing.T) {
	doc := newInvoice()
	doc.ID = "FAC-0001"
	require.NoError(t, doc.Open(false, now))

	assert.ErrorIs(t, doc.RecordDelivery(core.EventOpened, now, ""), core.ErrInvalidTransition, "opened before sent")
	assert.ErrorIs(t, doc.RecordDelivery(core.EventPaid, now, ""), core.ErrValidation)

	require.NoError(t, doc.RecordDelivery(core.EventSent, now, "billing@acme.test"))
	require.NoError(t, doc.RecordDelivery(core.EventOpened, now, ""))
	assert.Equal(t, core.StatusCreated, doc.Status)
	assert.Equal(t, []core.TimelineEventType{core.EventCreated, core.EventSent, core.EventOpened}, eventTypes(doc))
	assert.Equal(t, "billing@acme.test", doc.Timeline[1].Note)

	require.NoError(t, doc.Transition(core.StatusPaid, now, ""))
	assert.ErrorIs(t, doc.RecordDelivery(core.EventSent, now, ""), core.ErrDocumentLocked)

	draft := newInvoice()
	require.NoError(t, draft.Open(true, now))
	assert.ErrorIs(t, draft.RecordDelivery(core.EventSent, now, ""), core.ErrInvalidTransition)
}

func TestRecordPayment(t *testing.T) {
	doc := newInvoice()
	doc.ID = "FAC-0001"
	require.NoError(t, doc.Open(false, now))

	require.NoError(t, doc.RecordPayment(dec("100"), now))
	assert.Equal(t, core.StatusPartiallyPaid, doc.Status)
	assertDecimal(t, "137.6", doc.Balance(), "balance")

	require.NoError(t, doc.RecordPayment(dec("137.6"), now))
	assert.Equal(t, core.StatusPaid, doc.Status)
	assert.True(t, doc.Balance().IsZero())
	assert.Equal(t, []core.TimelineEventType{
		core.EventCreated, core.EventPayment, core.EventPayment, core.EventPaid,
	}, eventTypes(doc))

	assert.ErrorIs(t, doc.RecordPayment(dec("1"), now), core.ErrInvalidTransition)
	assert.ErrorIs(t, doc.RecordPayment(dec("0"), now), core.ErrValidation)
}

func TestEdit_LockedOnceTerminal(t *testing.T) {
	doc := newInvoice()
	doc.ID = "FAC-0001"
	require.NoError(t, doc.Open(false, now))
	require.NoError(t, doc.Edit([]core.LineItem{item("1", "10", "7")}, nil, now))
	assertDecimal(t, "10.7", doc.Total, "total")

	require.NoError(t, doc.Transition(core.StatusPaid, now, ""))
	assert.True(t, doc.AmountPaid.Equal(doc.Total))
	assert.ErrorIs(t, doc.Edit(nil, nil, now), core.ErrDocumentLocked)
}

func TestSyncStateIsOrthogonalToStatus(t *testing.T) {
	doc := newInvoice()
	doc.ID = "FAC-0001"
	doc.Normalize("USD")
	require.NoError(t, doc.Open(false, now))

	doc.MarkPendingSync(now)
	doc.MarkPendingSync(now)
	assert.Equal(t, core.StatusCreated, doc.Status)
	assert.Equal(t, core.SyncPending, doc.SyncState)

	doc.MarkSynced(now, "")
	assert.Equal(t, core.StatusCreated, doc.Status)
	assert.Equal(t, core.SyncSynced, doc.SyncState)
	assert.Equal(t, []core.TimelineEventType{core.EventCreated, core.EventSyncPending, core.EventSynced}, eventTypes(doc))
}
