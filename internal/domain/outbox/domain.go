// Package outbox describes messages written in the same transaction as the
// change they announce and relayed to the broker afterwards.
package outbox

import (
	"context"
	"strconv"
	"time"
)

type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
)

type Kind int

const KindAlertDispatched Kind = 1

func (k Kind) String() string {
	if k == KindAlertDispatched {
		return "alert.dispatched"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Trace is the W3C context of the transaction that enqueued a message.
type Trace struct {
	Parent  string
	State   string
	Baggage string
}

func TraceFromHeaders(h map[string]string) Trace {
	return Trace{Parent: h["traceparent"], State: h["tracestate"], Baggage: h["baggage"]}
}

// Headers returns the non-empty fields keyed the way propagators expect.
func (t Trace) Headers() map[string]string {
	h := make(map[string]string, 3)
	for k, v := range map[string]string{"traceparent": t.Parent, "tracestate": t.State, "baggage": t.Baggage} {
		if v != "" {
			h[k] = v
		}
	}
	return h
}

type Message struct {
	Key       string
	Kind      Kind
	Payload   []byte
	Status    Status
	Trace     Trace
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	// Enqueue joins the transaction carried by ctx, if any. A repeated key is ignored.
	Enqueue(ctx context.Context, key string, kind Kind, payload []byte) error
	// PickBatch claims up to batch messages, including in-progress ones older than inProgressTTL.
	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)
	MarkSuccess(ctx context.Context, keys []string) error
}

type KindHandler func(ctx context.Context, payload []byte) error

// GlobalHandler resolves the handler for a message kind.
type GlobalHandler func(kind Kind) (KindHandler, error)
