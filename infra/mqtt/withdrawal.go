package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/infra/logger"
)

// WithdrawalTopic is the subscription pattern for failure reports; the
// wildcard segment carries the route.
const WithdrawalTopic = "induction/withdrawal/+"

// WithdrawalHandler receives decoded withdrawals.
type WithdrawalHandler func(ctx context.Context, w model.Withdrawal)

// WithdrawalListener decodes withdrawal messages off the broker and hands
// them to the engine.
type WithdrawalListener struct {
	client  Client
	handler WithdrawalHandler
	log     logger.Logger
}

// NewWithdrawalListener builds a listener.
func NewWithdrawalListener(client Client, handler WithdrawalHandler, log logger.Logger) *WithdrawalListener {
	return &WithdrawalListener{client: client, handler: handler, log: log}
}

// Start connects and subscribes. Messages are handled until ctx is done;
// the broker connection is closed on cancellation.
func (l *WithdrawalListener) Start(ctx context.Context) error {
	if err := l.client.Connect(); err != nil {
		return err
	}
	err := l.client.Subscribe(WithdrawalTopic, 1, func(topic string, payload []byte) {
		if ctx.Err() != nil {
			return
		}
		w, err := decodeWithdrawal(topic, payload)
		if err != nil {
			l.log.Warnf("dropping malformed withdrawal on %s: %v", topic, err)
			return
		}
		l.log.Infof("withdrawal reported: train %s on %s (%s)", w.TrainID, w.Route, w.Reason)
		l.handler(ctx, w)
	})
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		l.client.Disconnect()
	}()
	return nil
}

func decodeWithdrawal(topic string, payload []byte) (model.Withdrawal, error) {
	var w model.Withdrawal
	if err := json.Unmarshal(payload, &w); err != nil {
		return w, err
	}
	if w.Route == "" {
		if i := strings.LastIndex(topic, "/"); i >= 0 {
			w.Route = topic[i+1:]
		}
	}
	if w.ReportedAt.IsZero() {
		w.ReportedAt = time.Now()
	}
	return w, nil
}
