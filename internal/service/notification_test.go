package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/model"
)

const testEventID = 3

func seed(quota, quantity int) *memStore {
	store := newMemStore()
	store.addEvent(model.Event{ID: testEventID, OrganizerID: 1, Title: "Jazz Night", Price: decimal.NewFromInt(150000), Quota: quota})
	store.addPayment(model.Payment{
		OrderID:  "ORDER-1",
		EventID:  testEventID,
		UserID:   9,
		Quantity: quantity,
		Amount:   decimal.NewFromInt(int64(150000 * quantity)),
		Status:   model.PaymentPending,
	})
	return store
}

func success(orderID string) Notification {
	return Notification{OrderID: orderID, StatusCode: "200", TransactionStatus: "settlement", GrossAmount: "300000.00"}
}

func TestHandleNotification_SuccessIssuesTickets(t *testing.T) {
	store := seed(10, 2)
	pub := &fakePublisher{}
	svc := newTestService(store, &fakeGateway{}, pub, PaymentOptions{})

	res, err := svc.HandleNotification(context.Background(), success("ORDER-1"))
	require.NoError(t, err)

	assert.Equal(t, OutcomePaid, res.Outcome)
	assert.Equal(t, model.PaymentPaid, res.Payment.Status)
	require.NotNil(t, res.Payment.PaidAt)
	assert.Equal(t, "Jazz Night", res.Payment.EventTitle)
	require.Len(t, res.Tickets, 2)
	assert.Equal(t, "Ticket 1", res.Tickets[0].Name)
	assert.Equal(t, "Ticket 2", res.Tickets[1].Name)
	assert.NotEqual(t, res.Tickets[0].Code, res.Tickets[1].Code)
	for _, tk := range res.Tickets {
		assert.Equal(t, model.TicketAvailable, tk.Status)
		assert.Regexp(t, `^\d{17}$`, tk.Code)
		decoded, err := decodeQRDataURI(tk.QRCode)
		require.NoError(t, err)
		assert.Equal(t, tk.Code, decoded)
	}

	assert.Equal(t, 8, store.quota(testEventID))
	assert.Equal(t, model.PaymentPaid, store.payment("ORDER-1").Status)
	assert.Equal(t, 2, store.ticketCount())

	svc.Wait()
	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, "ORDER-1", events[0].OrderID)
	assert.Equal(t, 2, events[0].Quantity)
	assert.Equal(t, "300000.00", events[0].Amount)
	assert.ElementsMatch(t, []string{res.Tickets[0].Code, res.Tickets[1].Code}, events[0].TicketCodes)
}

func TestHandleNotification_TransactionStatusWithoutCode(t *testing.T) {
	store := seed(5, 1)
	svc := newTestService(store, &fakeGateway{}, nil, PaymentOptions{})

	res, err := svc.HandleNotification(context.Background(), Notification{OrderID: "ORDER-1", TransactionStatus: "capture"})
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, res.Outcome)
	assert.Equal(t, 4, store.quota(testEventID))
}

func TestHandleNotification_ExactQuotaIsFulfilled(t *testing.T) {
	store := seed(2, 2)
	svc := newTestService(store, &fakeGateway{}, nil, PaymentOptions{})

	res, err := svc.HandleNotification(context.Background(), success("ORDER-1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, res.Outcome)
	assert.Equal(t, 0, store.quota(testEventID))
}

func TestHandleNotification_InsufficientQuota(t *testing.T) {
	store := seed(1, 2)
	pub := &fakePublisher{}
	svc := newTestService(store, &fakeGateway{}, pub, PaymentOptions{})

	_, err := svc.HandleNotification(context.Background(), success("ORDER-1"))
	require.ErrorIs(t, err, ErrInsufficientQuota)

	assert.Equal(t, 1, store.quota(testEventID))
	assert.Equal(t, model.PaymentPending, store.payment("ORDER-1").Status)
	assert.Zero(t, store.ticketCount())
	svc.Wait()
	assert.Empty(t, pub.published())
}

func TestHandleNotification_Pending(t *testing.T) {
	for _, n := range []Notification{
		{OrderID: "ORDER-1", StatusCode: "201"},
		{OrderID: "ORDER-1", TransactionStatus: "pending"},
	} {
		store := seed(10, 2)
		svc := newTestService(store, &fakeGateway{}, nil, PaymentOptions{})

		res, err := svc.HandleNotification(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, OutcomePending, res.Outcome)
		assert.Empty(t, res.Tickets)
		assert.Equal(t, 10, store.quota(testEventID))
		assert.Equal(t, model.PaymentPending, store.payment("ORDER-1").Status)
	}
}

func TestHandleNotification_UnrecognizedStatus(t *testing.T) {
	for _, n := range []Notification{
		{OrderID: "ORDER-1", StatusCode: "202", TransactionStatus: "deny"},
		{OrderID: "ORDER-1", TransactionStatus: "expire"},
		{OrderID: "ORDER-1"},
	} {
		store := seed(10, 2)
		svc := newTestService(store, &fakeGateway{}, nil, PaymentOptions{})

		_, err := svc.HandleNotification(context.Background(), n)
		require.ErrorIs(t, err, ErrUnrecognizedStatus)
		assert.Equal(t, 10, store.quota(testEventID))
		assert.Equal(t, model.PaymentPending, store.payment("ORDER-1").Status)
		assert.Zero(t, store.ticketCount())
	}
}

func TestHandleNotification_NotFound(t *testing.T) {
	store := seed(10, 1)
	svc := newTestService(store, &fakeGateway{}, nil, PaymentOptions{})

	_, err := svc.HandleNotification(context.Background(), success("ORDER-missing"))
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	store.addPayment(model.Payment{OrderID: "ORDER-orphan", EventID: 404, Quantity: 1, Status: model.PaymentPending})
	_, err = svc.HandleNotification(context.Background(), success("ORDER-orphan"))
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Equal(t, model.PaymentPending, store.payment("ORDER-orphan").Status)
}

func TestHandleNotification_ReplayIsNoOp(t *testing.T) {
	store := seed(10, 3)
	pub := &fakePublisher{}
	svc := newTestService(store, &fakeGateway{}, pub, PaymentOptions{})

	first, err := svc.HandleNotification(context.Background(), success("ORDER-1"))
	require.NoError(t, err)
	paidAt := *store.payment("ORDER-1").PaidAt

	second, err := svc.HandleNotification(context.Background(), success("ORDER-1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyPaid, second.Outcome)
	assert.Equal(t, first.Tickets, second.Tickets)

	pending, err := svc.HandleNotification(context.Background(), Notification{OrderID: "ORDER-1", StatusCode: "201"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyPaid, pending.Outcome)

	assert.Equal(t, 7, store.quota(testEventID))
	assert.Equal(t, 3, store.ticketCount())
	assert.Equal(t, model.PaymentPaid, store.payment("ORDER-1").Status)
	assert.Equal(t, paidAt, *store.payment("ORDER-1").PaidAt)
	svc.Wait()
	assert.Len(t, pub.published(), 1)
}

func TestHandleNotification_AllOrNothing(t *testing.T) {
	store := seed(10, 3)
	store.failOnTicketInsert = 2
	svc := newTestService(store, &fakeGateway{}, nil, PaymentOptions{})

	_, err := svc.HandleNotification(context.Background(), success("ORDER-1"))
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, 10, store.quota(testEventID))
	assert.Zero(t, store.ticketCount())
	assert.Equal(t, model.PaymentPending, store.payment("ORDER-1").Status)
	assert.Nil(t, store.payment("ORDER-1").PaidAt)
}

func TestHandleNotification_ConcurrentConfirmationsNeverOversell(t *testing.T) {
	const quota, buyers = 5, 12
	store := newMemStore()
	store.addEvent(model.Event{ID: testEventID, Title: "Jazz Night", Price: decimal.NewFromInt(10), Quota: quota})
	for i := 0; i < buyers; i++ {
		store.addPayment(model.Payment{OrderID: fmt.Sprintf("ORDER-%d", i), EventID: testEventID, Quantity: 1, Status: model.PaymentPending})
	}
	svc := newTestService(store, &fakeGateway{}, nil, PaymentOptions{})

	var (
		wg                 sync.WaitGroup
		mu                 sync.Mutex
		paid, insufficient int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			_, err := svc.HandleNotification(context.Background(), success(orderID))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				paid++
			case assert.ErrorIs(t, err, ErrInsufficientQuota):
				insufficient++
			}
		}(fmt.Sprintf("ORDER-%d", i))
	}
	wg.Wait()

	assert.Equal(t, quota, paid)
	assert.Equal(t, buyers-quota, insufficient)
	assert.Equal(t, 0, store.quota(testEventID))
	assert.Equal(t, quota, store.ticketCount())
}

func TestHandleNotification_Signature(t *testing.T) {
	opts := PaymentOptions{ServerKey: "server-key", VerifySignature: true}

	store := seed(10, 2)
	svc := newTestService(store, &fakeGateway{}, nil, opts)
	n := success("ORDER-1")
	n.SignatureKey = "deadbeef"
	_, err := svc.HandleNotification(context.Background(), n)
	require.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, 10, store.quota(testEventID))

	n.SignatureKey = gateway.Signature(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")
	res, err := svc.HandleNotification(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, res.Outcome)

	// Verification switched off accepts unsigned notifications.
	store = seed(10, 1)
	svc = newTestService(store, &fakeGateway{}, nil, PaymentOptions{ServerKey: "server-key"})
	_, err = svc.HandleNotification(context.Background(), success("ORDER-1"))
	assert.NoError(t, err)
}

func TestHandleNotification_PublishFailureDoesNotFail(t *testing.T) {
	store := seed(10, 1)
	pub := &fakePublisher{err: assert.AnError}
	svc := newTestService(store, &fakeGateway{}, pub, PaymentOptions{})

	res, err := svc.HandleNotification(context.Background(), success("ORDER-1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, res.Outcome)
	svc.Wait()
	assert.Len(t, pub.published(), 1)
}
