package modem

import (
	"context"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Port reads bytes from the serial link in the background and hands
// them to receivers which apply their own idle timeout.
type Port struct {
	ReadWriter io.ReadWriter

	byteCh chan byte
	doneCh chan struct{}
	err    error

	writeLock sync.Mutex
}

// NewPort creates a Port.
func NewPort(rw io.ReadWriter) *Port {
	return &Port{
		ReadWriter: rw,
		byteCh:     make(chan byte, 256),
		doneCh:     make(chan struct{}),
	}
}

// Run reads from ReadWriter until it fails or ctx is done.
// A blocking Read is only interrupted by closing ReadWriter.
func (p *Port) Run(ctx context.Context) (err error) {
	defer func() {
		p.err = err
		close(p.doneCh)
	}()
	buf := make([]byte, 1)
	for {
		n, readErr := p.ReadWriter.Read(buf)
		if n > 0 {
			select {
			case p.byteCh <- buf[0]:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return readErr
		}
	}
}

// Done is closed when Run exits.
func (p *Port) Done() <-chan struct{} {
	return p.doneCh
}

// Err returns the error which stopped Run.
func (p *Port) Err() error {
	select {
	case <-p.doneCh:
		return p.err
	default:
		return nil
	}
}

// Write writes raw bytes to the link.
func (p *Port) Write(data []byte) error {
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	glog.V(3).Infof("TX %q", data)
	_, err := p.ReadWriter.Write(data)
	return err
}

// Flush discards bytes already received.
func (p *Port) Flush() (n int) {
	for {
		select {
		case <-p.byteCh:
			n++
		default:
			return
		}
	}
}

// Recv yields received bytes until no byte arrives within idle,
// ctx is done or Run exits.
func (p *Port) Recv(ctx context.Context, idle time.Duration) iter.Seq[byte] {
	return func(yield func(byte) bool) {
		timer := time.NewTimer(idle)
		defer timer.Stop()
		for {
			select {
			case b := <-p.byteCh:
				if !yield(b) {
					return
				}
				timer.Reset(idle)
			case <-timer.C:
				return
			case <-ctx.Done():
				return
			case <-p.doneCh:
				for {
					select {
					case b := <-p.byteCh:
						if !yield(b) {
							return
						}
					default:
						return
					}
				}
			}
		}
	}
}
