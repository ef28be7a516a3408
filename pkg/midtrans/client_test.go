package midtrans

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/payment"
)

type fakeSnap struct {
	resp  *snap.Response
	err   *midtrans.Error
	delay time.Duration
	last  *snap.Request
	calls int
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.calls++
	f.last = req
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.resp, f.err
}

type fakeCore struct {
	resp *coreapi.TransactionStatusResponse
	err  *midtrans.Error
}

func (f *fakeCore) CheckTransaction(string) (*coreapi.TransactionStatusResponse, *midtrans.Error) {
	return f.resp, f.err
}

func testClient(s snapAPI, c coreAPI, cfg Config) *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return newClient(s, c, cfg, log)
}

func TestCreateTransaction(t *testing.T) {
	s := &fakeSnap{resp: &snap.Response{Token: "tok", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/tok"}}
	client := testClient(s, &fakeCore{}, Config{Timeout: time.Second, MaxFailures: 3})

	tx, err := client.CreateTransaction(context.Background(), "B1", 300000, payment.Customer{Name: "Siti", Email: "siti@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "B1", tx.OrderID)
	assert.Equal(t, "tok", tx.Token)
	assert.NotEmpty(t, tx.Raw)
	require.NotNil(t, s.last)
	assert.Equal(t, int64(300000), s.last.TransactionDetails.GrossAmt)
	assert.Equal(t, "Siti", s.last.CustomerDetail.FName)
	assert.True(t, s.last.CreditCard.Secure)
}

func TestCreateTransactionRejected(t *testing.T) {
	s := &fakeSnap{err: &midtrans.Error{Message: "order_id has already been taken", StatusCode: http.StatusBadRequest}}
	client := testClient(s, &fakeCore{}, Config{Timeout: time.Second, MaxFailures: 0})

	_, err := client.CreateTransaction(context.Background(), "B1", 1, payment.Customer{})
	assert.ErrorIs(t, err, apperr.ErrGatewayRejected)

	_, err = client.CreateTransaction(context.Background(), "B1", 1, payment.Customer{})
	assert.ErrorIs(t, err, apperr.ErrGatewayRejected)
	assert.Equal(t, 2, s.calls)
}

func TestCreateTransactionTimeout(t *testing.T) {
	s := &fakeSnap{resp: &snap.Response{Token: "tok"}, delay: 200 * time.Millisecond}
	client := testClient(s, &fakeCore{}, Config{Timeout: 20 * time.Millisecond, MaxFailures: 5})

	_, err := client.CreateTransaction(context.Background(), "B1", 1, payment.Customer{})

	assert.ErrorIs(t, err, apperr.ErrGatewayTimeout)
	assert.NotErrorIs(t, err, apperr.ErrGatewayRejected)
}

func TestBreakerOpensOnUnavailableGateway(t *testing.T) {
	s := &fakeSnap{err: &midtrans.Error{Message: "internal error", StatusCode: http.StatusInternalServerError}}
	client := testClient(s, &fakeCore{}, Config{Timeout: time.Second, MaxFailures: 0, Cooldown: time.Minute})

	_, err := client.CreateTransaction(context.Background(), "B1", 1, payment.Customer{})
	assert.ErrorIs(t, err, apperr.ErrGatewayRejected)

	_, err = client.CreateTransaction(context.Background(), "B1", 1, payment.Customer{})
	assert.ErrorIs(t, err, apperr.ErrGatewayRejected)
	assert.Equal(t, 1, s.calls)
}

func TestTransactionStatus(t *testing.T) {
	tests := []struct {
		name     string
		core     *fakeCore
		expected payment.State
		code     string
	}{
		{
			name:     "settled",
			core:     &fakeCore{resp: &coreapi.TransactionStatusResponse{StatusCode: "200", TransactionStatus: "settlement"}},
			expected: payment.StateSettled,
			code:     "200",
		},
		{
			name:     "pending",
			core:     &fakeCore{resp: &coreapi.TransactionStatusResponse{StatusCode: "201", TransactionStatus: "pending"}},
			expected: payment.StatePending,
			code:     "201",
		},
		{
			name:     "expired in body",
			core:     &fakeCore{resp: &coreapi.TransactionStatusResponse{StatusCode: "407", TransactionStatus: "expire"}},
			expected: payment.StateExpired,
			code:     payment.CodeExpired,
		},
		{
			name:     "expired as error",
			core:     &fakeCore{err: &midtrans.Error{StatusCode: 407, Message: "expired"}},
			expected: payment.StateExpired,
			code:     payment.CodeExpired,
		},
		{
			name:     "unknown order",
			core:     &fakeCore{err: &midtrans.Error{StatusCode: http.StatusNotFound, Message: "Transaction doesn't exist."}},
			expected: payment.StatePending,
			code:     "404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(&fakeSnap{}, tt.core, Config{Timeout: time.Second, MaxFailures: 3})

			status, err := client.TransactionStatus(context.Background(), "B1")

			require.NoError(t, err)
			assert.Equal(t, tt.expected, status.State)
			assert.Equal(t, tt.code, status.Code)
		})
	}
}

func TestTransactionStatusUnauthorized(t *testing.T) {
	client := testClient(&fakeSnap{}, &fakeCore{err: &midtrans.Error{StatusCode: http.StatusUnauthorized, Message: "unauthorized"}}, Config{Timeout: time.Second})

	_, err := client.TransactionStatus(context.Background(), "B1")

	assert.ErrorIs(t, err, apperr.ErrGatewayRejected)
}
