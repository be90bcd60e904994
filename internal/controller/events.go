// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package controller

import "sync"

// EventType distinguishes state snapshots from user alerts.
type EventType string

const (
	EventState EventType = "state"
	EventAlert EventType = "alert"
)

// Event is published on every state change.
type Event struct {
	Type    EventType `json:"type"`
	View    *View     `json:"view,omitempty"`
	Message string    `json:"message,omitempty"`
}

// DefaultEventBuffer is the per-subscriber channel size.
const DefaultEventBuffer = 16

// Subscribe returns a channel of events and a function that ends the
// subscription. A subscriber that falls behind misses events.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe(DefaultEventBuffer)
}

func (c *Controller) publishState() {
	if !c.events.active() {
		return
	}
	v := c.View()
	c.events.publish(Event{Type: EventState, View: &v})
}

type broker struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan Event
	closed bool
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs) > 0
}

func (b *broker) subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
