package notifiers

import (
	"context"
	"errors"

	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
)

var (
	// ErrTransportConfigInvalid is returned at selection time when the network transport
	// cannot be built from the configuration.
	ErrTransportConfigInvalid = errors.New("transport config invalid")
	// ErrTransportDelivery wraps every failure to hand a message to the relay.
	ErrTransportDelivery = errors.New("transport delivery failed")
)

// Transport defines the interface for any delivery backend.
// Implementations must be safe for concurrent Deliver calls.
type Transport interface {
	// Name identifies the transport in receipts and logs.
	Name() string

	// Deliver hands a fully rendered message to the backend.
	Deliver(ctx context.Context, to string, msg *model.RenderedMessage) (*model.DeliveryReceipt, error)
}
