package events

import (
	"context"

	"github.com/asaskevich/EventBus"
)

const allTopic = "*"

// Bus publishes emitted events to in-process subscribers.
type Bus struct {
	bus EventBus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

func (b *Bus) Emit(_ context.Context, e Event) error {
	b.bus.Publish(string(e.Name), e)
	b.bus.Publish(allTopic, e)
	return nil
}

func (b *Bus) Subscribe(name Name, fn func(Event)) error {
	return b.bus.Subscribe(string(name), fn)
}

func (b *Bus) SubscribeAll(fn func(Event)) error {
	return b.bus.Subscribe(allTopic, fn)
}

func (b *Bus) Unsubscribe(name Name, fn func(Event)) error {
	return b.bus.Unsubscribe(string(name), fn)
}
