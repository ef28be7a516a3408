package midtrans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/sirupsen/logrus"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/circuitbreaker"
	"hotel_management/pkg/payment"
)

type Config struct {
	ServerKey   string
	Production  bool
	Timeout     time.Duration
	MaxFailures int
	Cooldown    time.Duration
}

type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type coreAPI interface {
	CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, *midtrans.Error)
}

// errUnavailable marks failures that count against the breaker.
var errUnavailable = errors.New("gateway unavailable")

// Client implements payment.Gateway on the Midtrans Snap and Core APIs.
type Client struct {
	snap    snapAPI
	core    coreAPI
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
	log     logrus.FieldLogger
}

var _ payment.Gateway = (*Client)(nil)

func NewClient(cfg Config, log logrus.FieldLogger) *Client {
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}

	var snapClient snap.Client
	snapClient.New(cfg.ServerKey, env)
	var coreClient coreapi.Client
	coreClient.New(cfg.ServerKey, env)

	return newClient(&snapClient, &coreClient, cfg, log)
}

func newClient(s snapAPI, c coreAPI, cfg Config, log logrus.FieldLogger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	breaker := circuitbreaker.New(cfg.MaxFailures, cfg.Cooldown)
	breaker.IsFailure = func(err error) bool {
		return errors.Is(err, apperr.ErrGatewayTimeout) || errors.Is(err, errUnavailable)
	}

	return &Client{
		snap:    s,
		core:    c,
		breaker: breaker,
		timeout: cfg.Timeout,
		log:     log.WithField("component", "midtrans"),
	}
}

func (c *Client) CreateTransaction(ctx context.Context, orderID string, amount int64, customer payment.Customer) (*payment.Transaction, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customer.Name,
			Email: customer.Email,
		},
	}

	var resp *snap.Response
	err := c.call(ctx, "create transaction", func() error {
		r, merr := c.snap.CreateTransaction(req)
		if merr != nil {
			return classify(merr)
		}
		if r == nil || r.Token == "" {
			return fmt.Errorf("%w: empty snap token", apperr.ErrGatewayRejected)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(resp)
	return &payment.Transaction{
		OrderID:     orderID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		Raw:         raw,
	}, nil
}

func (c *Client) TransactionStatus(ctx context.Context, orderID string) (*payment.TransactionStatus, error) {
	var status *payment.TransactionStatus
	err := c.call(ctx, "check transaction", func() error {
		r, merr := c.core.CheckTransaction(orderID)
		if merr != nil {
			switch merr.StatusCode {
			case http.StatusNotFound:
				status = &payment.TransactionStatus{OrderID: orderID, Code: "404", State: payment.StatePending}
				return nil
			case 407:
				status = &payment.TransactionStatus{OrderID: orderID, Code: payment.CodeExpired, State: payment.StateExpired}
				return nil
			}
			return classify(merr)
		}
		if r == nil {
			return fmt.Errorf("%w: empty status response", apperr.ErrGatewayRejected)
		}

		raw, _ := json.Marshal(r)
		state := MapTransactionStatus(r.TransactionStatus, r.FraudStatus)
		if r.StatusCode == payment.CodeExpired {
			state = payment.StateExpired
		}
		status = &payment.TransactionStatus{OrderID: orderID, Code: r.StatusCode, State: state, Raw: raw}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// call runs fn behind the breaker and gives up when the timeout elapses.
// The SDK takes no context, so an abandoned call finishes in the background.
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.breaker.Execute(func() error {
		done := make(chan error, 1)
		go func() { done <- fn() }()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", apperr.ErrGatewayTimeout, op, ctx.Err())
		}
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		err = fmt.Errorf("%w: %s: %v", apperr.ErrGatewayRejected, op, err)
	}
	if err != nil {
		c.log.WithError(err).WithField("operation", op).Warn("gateway call failed")
	}
	return err
}

func classify(merr *midtrans.Error) error {
	code := merr.StatusCode
	if code == 0 || code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %w: %s", apperr.ErrGatewayRejected, errUnavailable, merr.Message)
	}
	return fmt.Errorf("%w: status %d: %s", apperr.ErrGatewayRejected, code, merr.Message)
}
