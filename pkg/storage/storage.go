package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found in storage")

// DeliveryOutcome is the terminal state of one webhook delivery.
type DeliveryOutcome string

const (
	OutcomeDispatched DeliveryOutcome = "dispatched"
	OutcomeSkipped    DeliveryOutcome = "skipped"
	OutcomeFailed     DeliveryOutcome = "failed"
)

// Delivery records how one inbound webhook was handled. It exists for
// operator visibility only; the dispatch path never reads it back.
type Delivery struct {
	ID         int64           `json:"id"`
	Source     string          `json:"source"`
	Event      string          `json:"event"`
	Outcome    DeliveryOutcome `json:"outcome"`
	Detail     string          `json:"detail,omitempty"`
	Title      string          `json:"title,omitempty"`
	Season     int             `json:"season,omitempty"`
	Episode    int             `json:"episode,omitempty"`
	TaskKey    string          `json:"taskKey,omitempty"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

type Storage interface {
	Init(ctx context.Context) error
	DeliveryStorage
}

type DeliveryStorage interface {
	CreateDelivery(ctx context.Context, delivery Delivery) (int64, error)
	ListDeliveries(ctx context.Context, limit int) ([]Delivery, error)
}
