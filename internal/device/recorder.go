package device

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Recorder forwards messages to an inner Sender and records successful deliveries.
type Recorder struct {
	next     Sender
	recorder DeliveryRecorder
	now      func() time.Time
}

// NewRecorder wraps next so that every accepted message lands in recorder.
func NewRecorder(next Sender, recorder DeliveryRecorder) *Recorder {
	return &Recorder{
		next:     next,
		recorder: recorder,
		now:      time.Now,
	}
}

// Send implements Sender.
func (r *Recorder) Send(ctx context.Context, msg Message) error {
	if err := r.next.Send(ctx, msg); err != nil {
		return err
	}

	size := 0
	if b, err := Encode(msg); err == nil {
		size = len(b)
	}

	r.recorder.SaveDelivery(Delivery{
		ID:      uuid.NewString(),
		Kind:    msg.Kind(),
		SentAt:  r.now().UTC(),
		Size:    size,
		Message: msg,
	})
	return nil
}
