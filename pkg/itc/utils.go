package itc

import "io"

const zeroBufSize = 512

var zeroBuf [zeroBufSize]byte

func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

func writeZeros(w io.Writer, n int) error {
	for n > 0 {
		toWrite := min(n, len(zeroBuf))
		if err := writeFull(w, zeroBuf[:toWrite]); err != nil {
			return err
		}
		n -= toWrite
	}
	return nil
}
