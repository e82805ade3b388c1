package mqtt

import (
	"io"
	"sync"
)

// Reader receives messages of a topic as packets.
type Reader struct {
	queue     *Queue
	sub       *Subscription
	packetCh  chan []byte
	doneCh    chan struct{}
	closeOnce sync.Once
}

// OpenReader connects q and subscribes topic. The Reader owns q, which is
// closed together with the Reader, or immediately if opening fails.
func OpenReader(q *Queue, topic string) (*Reader, error) {
	r := &Reader{
		queue:    q,
		packetCh: make(chan []byte, 16),
		doneCh:   make(chan struct{}),
	}
	err := q.Connect()
	if err == nil {
		r.sub, err = q.Subscribe(topic, r.handleMsg)
	}
	if err != nil {
		q.Close()
		return nil, err
	}
	return r, nil
}

// ReadPacket implements PacketReader. It returns io.EOF after Close.
func (r *Reader) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-r.packetCh:
		return pkt, nil
	case <-r.doneCh:
		return nil, io.EOF
	}
}

// Close implements io.Closer.
func (r *Reader) Close() (err error) {
	r.closeOnce.Do(func() {
		close(r.doneCh)
		err = r.sub.Close()
		r.queue.Close()
	})
	return
}

func (r *Reader) handleMsg(_ string, payload []byte) {
	select {
	case r.packetCh <- payload:
	case <-r.doneCh:
	}
}
