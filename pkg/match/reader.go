package match

import (
	"io"
	"iter"
)

// SkipReader is SkipIn over bytes read from r. The reader is left
// positioned right after the match.
func SkipReader(m *Matcher[byte], r io.Reader) (bool, error) {
	seq, errFn := readBytes(r)
	found := m.SkipIn(seq)
	return found, errFn()
}

// FindReader is FindIn over bytes read from r until io.EOF.
func FindReader(m *Matcher[byte], r io.Reader) (bool, error) {
	seq, errFn := readBytes(r)
	found := m.FindIn(seq)
	return found, errFn()
}

// readBytes reads one byte per Read, never ahead of the consumer.
func readBytes(r io.Reader) (iter.Seq[byte], func() error) {
	var err error
	seq := func(yield func(byte) bool) {
		if br, ok := r.(io.ByteReader); ok {
			for {
				var b byte
				if b, err = br.ReadByte(); err != nil {
					return
				}
				if !yield(b) {
					return
				}
			}
		}
		buf := make([]byte, 1)
		for {
			var n int
			n, err = r.Read(buf)
			if n > 0 && !yield(buf[0]) {
				return
			}
			if err != nil {
				return
			}
		}
	}
	return seq, func() error {
		if err == io.EOF {
			return nil
		}
		return err
	}
}
