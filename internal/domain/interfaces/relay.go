package interfaces

import (
	"context"

	domaintypes "wcnotify/internal/domain/types"
)

// Relay is how we talk to the pub/sub relay, all with context. Payloads are
// opaque encrypted envelopes; the relay routes purely by topic string.
type Relay interface {
	Publish(
		ctx context.Context,
		topic domaintypes.Topic,
		payload []byte,
		opts domaintypes.PublishOptions,
	) error
	Subscribe(ctx context.Context, topic domaintypes.Topic) error
	Unsubscribe(ctx context.Context, topic domaintypes.Topic) error

	// RegisterHandler installs the single inbound listener. The handler must
	// not block; per-topic delivery order follows the relay's ordering.
	RegisterHandler(fn func(domaintypes.RelayEvent))
}
