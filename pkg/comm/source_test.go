package comm

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	xws "golang.org/x/net/websocket"

	"github.com/robotalks/sim800.go/pkg/comm/stream"
	"github.com/robotalks/sim800.go/pkg/match"
)

type packetList struct {
	packets [][]byte
	err     error
	closed  bool
}

func (l *packetList) ReadPacket() ([]byte, error) {
	if len(l.packets) == 0 {
		return nil, l.err
	}
	pkt := l.packets[0]
	l.packets = l.packets[1:]
	return pkt, nil
}

func (l *packetList) Close() error {
	l.closed = true
	return nil
}

func TestReaderSource(t *testing.T) {
	r := strings.NewReader("AT\r\r\nOK\r\nrest")
	src := NewReaderSource(r)
	require.True(t, match.NewString("OK\r\n").SkipIn(src.Bytes()))
	require.Equal(t, 4, r.Len())
	require.NoError(t, src.Err())

	require.False(t, match.NewString("OK").FindIn(src.Bytes()))
	require.NoError(t, src.Err())
	require.Zero(t, r.Len())
}

func TestPacketSource(t *testing.T) {
	errBroken := errors.New("broken")
	packets := &packetList{
		packets: [][]byte{[]byte("AT+CI"), []byte("FSR\r\r\n10.0"), nil, []byte(".0.1\r\n")},
		err:     errBroken,
	}
	src := NewPacketSource(packets)
	require.True(t, match.NewString("AT+CIFSR").SkipIn(src.Bytes()))

	var rest []byte
	for b := range src.Bytes() {
		rest = append(rest, b)
	}
	require.Equal(t, "\r\r\n10.0.0.1\r\n", string(rest))
	require.Equal(t, errBroken, src.Err())

	require.NoError(t, src.Close())
	require.True(t, packets.closed)
}

func TestPacketSourceEOF(t *testing.T) {
	var buf bytes.Buffer
	rw := stream.New(&buf)
	require.NoError(t, rw.WritePacket([]byte("--->hello")))
	require.NoError(t, rw.WritePacket([]byte("!<----")))
	src := NewPacketSource(rw)
	require.True(t, match.NewString("hello!").FindIn(src.Bytes()))
	require.NoError(t, src.Err())
}

func TestOpenSourceTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.WriteString(conn, "+CREG: 0,1\r\n\r\nOK\r\n")
	}()

	src, err := OpenSource("tcp://" + ln.Addr().String())
	require.NoError(t, err)
	defer src.Close()
	require.True(t, match.NewString("+CREG: 0,1").FindIn(src.Bytes()))
	require.NoError(t, src.Err())
}

func TestOpenSourceInvalid(t *testing.T) {
	_, err := OpenSource("gopher://localhost")
	require.Error(t, err)
	_, err = OpenSource("mqtt://localhost:1883/robo/")
	require.Error(t, err)
	_, err = OpenSource("/nonexistent/device")
	require.Error(t, err)
}

func TestOpenSourceWebsocket(t *testing.T) {
	server := httptest.NewServer(xws.Handler(func(conn *xws.Conn) {
		for _, msg := range []string{"+CREG: ", "0,1\r\n", "OK\r\n"} {
			xws.Message.Send(conn, []byte(msg))
		}
		conn.Close()
	}))
	defer server.Close()

	src, err := OpenSource("ws://" + strings.TrimPrefix(server.URL, "http://") + "/")
	require.NoError(t, err)
	defer src.Close()
	require.True(t, match.NewString("+CREG: 0,1").FindIn(src.Bytes()))
}
