package mqtt

import (
	"sort"
	"strings"
	"sync"
)

// Interface guard
var _ Conn = (*Fake)(nil)

// Fake is an in-memory Conn for tests. Published messages are kept in
// a topic map the way a broker keeps retained messages; subscriptions
// match exact topics or a trailing "#" wildcard.
type Fake struct {
	mu       sync.Mutex
	messages map[string][]string
	retained map[string]string
	subs     map[string]func(topic, payload string)

	// UnsubscribeErr, when non-nil, is returned by Unsubscribe.
	UnsubscribeErr error
}

func NewFake() *Fake {
	return &Fake{
		messages: make(map[string][]string),
		retained: make(map[string]string),
		subs:     make(map[string]func(topic, payload string)),
	}
}

func (f *Fake) Publish(topic string, qos byte, retained bool, payload string) error {
	f.mu.Lock()
	f.messages[topic] = append(f.messages[topic], payload)
	if retained {
		f.retained[topic] = payload
	}
	handlers := f.matching(topic)
	f.mu.Unlock()
	for _, h := range handlers {
		h(topic, payload)
	}
	return nil
}

func (f *Fake) Subscribe(topic string, qos byte, handler func(topic, payload string)) error {
	f.mu.Lock()
	f.subs[topic] = handler
	f.mu.Unlock()
	return nil
}

func (f *Fake) Unsubscribe(topics ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UnsubscribeErr != nil {
		return f.UnsubscribeErr
	}
	for _, t := range topics {
		delete(f.subs, t)
	}
	return nil
}

// Deliver simulates an inbound message from the broker, e.g. a command
// published by the platform.
func (f *Fake) Deliver(topic, payload string) {
	f.mu.Lock()
	handlers := f.matching(topic)
	f.mu.Unlock()
	for _, h := range handlers {
		h(topic, payload)
	}
}

func (f *Fake) matching(topic string) []func(topic, payload string) {
	var out []func(topic, payload string)
	for sub, h := range f.subs {
		if sub == topic {
			out = append(out, h)
			continue
		}
		if strings.HasSuffix(sub, "#") && strings.HasPrefix(topic, strings.TrimSuffix(sub, "#")) {
			out = append(out, h)
		}
	}
	return out
}

// Retained returns the retained payload for topic and whether one
// exists.
func (f *Fake) Retained(topic string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.retained[topic]
	return p, ok
}

// Messages returns every payload published to topic, in order.
func (f *Fake) Messages(topic string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages[topic]...)
}

// Topics returns every topic that has received a publish, sorted.
func (f *Fake) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for t := range f.messages {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
