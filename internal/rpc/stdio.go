package rpc

import "io"

// stdio joins a reader and a writer, typically os.Stdin and os.Stdout, into
// the io.ReadWriteCloser a connection runs on.
type stdio struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

// Stdio returns a connection over r and w. Closing it closes both.
func Stdio(r io.ReadCloser, w io.WriteCloser) io.ReadWriteCloser {
	return &stdio{reader: r, writer: w}
}

func (s *stdio) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdio) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdio) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}
