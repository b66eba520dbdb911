package session

import "sync/atomic"

// ChannelPublisher forwards events to a buffered channel. When the buffer is
// full the event is dropped and counted; a surface that re-reads Snapshot on
// each event loses nothing by missing one.
type ChannelPublisher struct {
	ch      chan Event
	dropped atomic.Uint64
}

// NewChannelPublisher creates a publisher with the given buffer size (min 1).
func NewChannelPublisher(size int) *ChannelPublisher {
	if size < 1 {
		size = 1
	}
	return &ChannelPublisher{ch: make(chan Event, size)}
}

func (p *ChannelPublisher) Publish(e Event) {
	select {
	case p.ch <- e:
	default:
		p.dropped.Add(1)
	}
}

// C is the receive side of the channel.
func (p *ChannelPublisher) C() <-chan Event { return p.ch }

// Dropped is the number of events discarded because the buffer was full.
func (p *ChannelPublisher) Dropped() uint64 { return p.dropped.Load() }

// MultiPublisher fans one event out to several publishers.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}
