package events

import "sync"

type message struct {
	Kind string
	Data []byte
}

// buffer is an unbounded fifo queue of pending events.
type buffer struct {
	lock sync.Mutex
	msgs []*message
}

func newBuffer() *buffer {
	return &buffer{}
}

func (b *buffer) PushBack(msg *message) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.msgs = append(b.msgs, msg)
}

func (b *buffer) Pop() *message {
	b.lock.Lock()
	defer b.lock.Unlock()

	if len(b.msgs) == 0 {
		return nil
	}

	msg := b.msgs[0]
	b.msgs = b.msgs[1:]
	return msg
}

func (b *buffer) Size() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return len(b.msgs)
}
