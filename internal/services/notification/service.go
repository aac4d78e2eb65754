// Package notification tells admins and users about workflow transitions.
// Delivery is best effort: a failed send is logged and never reaches the
// ledger transaction that triggered it.
package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"hydrofund/internal/config"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	WithdrawalRequested EventKind = "withdrawal_requested"
	WithdrawalCompleted EventKind = "withdrawal_completed"
	WithdrawalRejected  EventKind = "withdrawal_rejected"
	WithdrawalCanceled  EventKind = "withdrawal_canceled"
	DepositSubmitted    EventKind = "deposit_submitted"
	DepositApproved     EventKind = "deposit_approved"
	OrderClaimed        EventKind = "order_claimed"
	BonusClaimed        EventKind = "bonus_claimed"
)

// Event is one committed transition.
type Event struct {
	Kind     EventKind
	UserID   uint
	RecordID string
	Amount   decimal.Decimal
	Note     string
	At       time.Time
}

// Text renders the event for humans.
func (e Event) Text() string {
	text := fmt.Sprintf("%s\nUser: %d\nAmount: %s %s\nRef: %s",
		e.title(), e.UserID, config.Currency, e.Amount.StringFixed(2), e.RecordID)
	if e.Note != "" {
		text += "\nNote: " + e.Note
	}
	return text
}

func (e Event) title() string {
	switch e.Kind {
	case WithdrawalRequested:
		return "💸 Withdrawal requested"
	case WithdrawalCompleted:
		return "✅ Withdrawal paid"
	case WithdrawalRejected:
		return "⛔ Withdrawal rejected"
	case WithdrawalCanceled:
		return "↩️ Withdrawal canceled"
	case DepositSubmitted:
		return "📥 Deposit submitted"
	case DepositApproved:
		return "✅ Deposit approved"
	case OrderClaimed:
		return "🌱 Earnings claimed"
	case BonusClaimed:
		return "🎁 Bonus claimed"
	}
	return string(e.Kind)
}

// Notifier delivers one event.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Publisher is what workflows call after commit.
type Publisher interface {
	Publish(e Event)
}

// LogNotifier writes events to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, e Event) error {
	log.Printf("notify [%s] user=%d ref=%s amount=%s", e.Kind, e.UserID, e.RecordID, e.Amount.StringFixed(2))
	return nil
}

// Dispatcher fans events out to notifiers on background goroutines.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout}
}

// Publish returns immediately.
func (d *Dispatcher) Publish(e Event) {
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go d.deliver(n, e)
	}
}

func (d *Dispatcher) deliver(n Notifier, e Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notifier panic on %s %s: %v", e.Kind, e.RecordID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := n.Notify(ctx, e); err != nil {
		log.Printf("notification %s for %s failed: %v", e.Kind, e.RecordID, err)
	}
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}
