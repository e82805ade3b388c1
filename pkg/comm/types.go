// Package comm provides byte and packet transports feeding matchers.
package comm

import (
	"io"
	"iter"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Source is a stream of bytes.
type Source interface {
	// Bytes yields bytes until the stream ends or fails.
	// It can be called again to continue after breaking out early.
	Bytes() iter.Seq[byte]
	// Err returns the error which ended the stream, nil on io.EOF.
	Err() error

	io.Closer
}
