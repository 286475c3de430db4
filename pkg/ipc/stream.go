package ipc

import (
	"errors"
	"io"
	"sync"
)

// stream adapts a Handle to io.ReadWriteCloser.
type stream struct {
	h    Handle
	once sync.Once
	err  error
}

// NewStream returns an io.ReadWriteCloser backed by h. Read maps a closed
// peer to io.EOF and Write delivers every byte through SendAll. Close shuts
// h down (when the transport supports it, unblocking a pending Read) and
// destroys it once. The stream takes ownership of h.
func NewStream(h Handle) io.ReadWriteCloser {
	return &stream{h: h}
}

func (s *stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.h.Receive(p)
	if errors.Is(err, ErrPeerClosed) {
		return n, io.EOF
	}
	return n, err
}

func (s *stream) Write(p []byte) (int, error) {
	return SendAll(s.h, p)
}

func (s *stream) Close() error {
	s.once.Do(func() {
		if sd, ok := s.h.(interface{ Shutdown() error }); ok {
			_ = sd.Shutdown()
		}
		s.err = s.h.Destroy()
	})
	return s.err
}
