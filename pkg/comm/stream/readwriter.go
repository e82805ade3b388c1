// Package stream frames packets over a byte stream.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
)

// MaxPacketSize limits the size of a packet accepted by ReadPacket.
const MaxPacketSize = 1 << 20

// ErrPacketTooLarge indicates the length prefix exceeds MaxPacketSize.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter implements PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	size := uint32(len(pkt))
	if err := binary.Write(p, binary.LittleEndian, size); err != nil {
		return err
	}
	_, err := p.Write(pkt[:size])
	return err
}
