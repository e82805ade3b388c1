package comm

import (
	"fmt"
	"io"
	"iter"
	"net"
	"net/url"
	"os"

	xws "golang.org/x/net/websocket"

	"github.com/robotalks/sim800.go/pkg/comm/mqtt"
	"github.com/robotalks/sim800.go/pkg/comm/stream"
	"github.com/robotalks/sim800.go/pkg/comm/websocket"
)

// ReaderSource reads bytes from an io.Reader one at a time, so nothing
// is consumed from the reader beyond the last byte yielded.
type ReaderSource struct {
	reader io.Reader
	err    error
}

// NewReaderSource creates a ReaderSource.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{reader: r}
}

// Bytes implements Source.
func (s *ReaderSource) Bytes() iter.Seq[byte] {
	return func(yield func(byte) bool) {
		buf := make([]byte, 1)
		for s.err == nil {
			n, err := s.reader.Read(buf)
			if err != nil {
				s.err = err
			}
			if n > 0 && !yield(buf[0]) {
				return
			}
		}
	}
}

// Err implements Source.
func (s *ReaderSource) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Close implements io.Closer.
func (s *ReaderSource) Close() error {
	if closer, ok := s.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// PacketSource flattens packets into bytes.
type PacketSource struct {
	reader  PacketReader
	pending []byte
	err     error
}

// NewPacketSource creates a PacketSource.
func NewPacketSource(r PacketReader) *PacketSource {
	return &PacketSource{reader: r}
}

// Bytes implements Source.
func (s *PacketSource) Bytes() iter.Seq[byte] {
	return func(yield func(byte) bool) {
		for {
			for len(s.pending) > 0 {
				b := s.pending[0]
				s.pending = s.pending[1:]
				if !yield(b) {
					return
				}
			}
			if s.err != nil {
				return
			}
			s.pending, s.err = s.reader.ReadPacket()
		}
	}
}

// Err implements Source.
func (s *PacketSource) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Close implements io.Closer.
func (s *PacketSource) Close() error {
	if closer, ok := s.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// OpenSource opens a Source from URL:
//
//	/dev/ttyUSB0, file:///dev/ttyUSB0     device or file
//	tcp://host:port                       raw TCP stream
//	tcp+packet://host:port                length-prefixed packets over TCP
//	ws://host:port/path                   websocket binary messages
//	mqtt://host:port/prefix/?topic=name   MQTT messages on prefix+name
func OpenSource(rawURL string) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL: %v", err)
	}
	switch u.Scheme {
	case "", "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, err
		}
		return NewReaderSource(f), nil
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewReaderSource(conn), nil
	case "tcp+packet":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewPacketSource(&closingReadWriter{ReadWriter: stream.New(conn), Closer: conn}), nil
	case "ws", "wss":
		origin := "http://" + u.Host
		if u.Scheme == "wss" {
			origin = "https://" + u.Host
		}
		conn, err := xws.Dial(rawURL, "", origin)
		if err != nil {
			return nil, err
		}
		return NewPacketSource(websocket.New(conn)), nil
	case "mqtt":
		topic := u.Query().Get("topic")
		if topic == "" {
			return nil, fmt.Errorf("topic is required in MQTT source URL")
		}
		q, err := mqtt.NewQueueFromURL(rawURL)
		if err != nil {
			return nil, err
		}
		r, err := mqtt.OpenReader(q, topic)
		if err != nil {
			return nil, err
		}
		return NewPacketSource(r), nil
	default:
		return nil, fmt.Errorf("unknown source URL scheme: %q", u.Scheme)
	}
}

type closingReadWriter struct {
	*stream.ReadWriter
	io.Closer
}
