// Package notify carries transient, user-visible messages from the host to whatever front end is attached.
package notify

import (
	"sync"
	"time"

	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/log"
)

// Level is the severity of a notification.
type Level uint8

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Message is a single dismissible notification.
type Message struct {
	Level Level
	Text  string
	// Kind is set when the message reports a classified failure.
	Kind failure.Kind
	At   time.Time
}

// Notifier fans messages out to subscribers. Slow subscribers lose messages
// instead of blocking the publisher.
type Notifier struct {
	mu     sync.Mutex
	subs   []chan Message
	closed bool
}

// New returns an empty Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers a subscriber with the given buffer size.
func (n *Notifier) Subscribe(buffer int) <-chan Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Message, buffer)
	if n.closed {
		close(ch)
		return ch
	}
	n.subs = append(n.subs, ch)
	return ch
}

func (n *Notifier) publish(msg Message) {
	msg.At = time.Now()

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	for _, ch := range n.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (n *Notifier) Info(text string) {
	n.publish(Message{Level: LevelInfo, Text: text})
}

func (n *Notifier) Warn(text string) {
	log.Warn(text)
	n.publish(Message{Level: LevelWarn, Text: text})
}

// Failure logs err and publishes it as an error notification.
func (n *Notifier) Failure(err error) {
	if err == nil {
		return
	}
	log.Error(err)
	n.publish(Message{Level: LevelError, Text: err.Error(), Kind: failure.KindOf(err)})
}

// Close closes every subscriber channel. Later messages are dropped.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for _, ch := range n.subs {
		close(ch)
	}
	n.subs = nil
}
