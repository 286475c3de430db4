package log

import (
	"errors"
	"fmt"
	"os"

	"dominicbreuker/goipc/pkg/ipc"
)

// loggedHandle wraps an ipc.Handle and logs all data sent and received to a file.
type loggedHandle struct {
	h       ipc.Handle
	logFile *os.File
}

func (lh *loggedHandle) Init() error {
	return lh.h.Init()
}

func (lh *loggedHandle) Send(data []byte) (int, error) {
	n, err := lh.h.Send(data)
	if n > 0 {
		if _, werr := lh.logFile.Write(data[:n]); werr != nil {
			return n, fmt.Errorf("logging sent data: %s", werr)
		}
	}
	return n, err
}

func (lh *loggedHandle) Receive(buf []byte) (int, error) {
	n, err := lh.h.Receive(buf)
	if n > 0 {
		if _, werr := lh.logFile.Write(buf[:n]); werr != nil {
			return n, fmt.Errorf("logging received data: %s", werr)
		}
	}
	return n, err
}

func (lh *loggedHandle) Destroy() error {
	return errors.Join(lh.h.Destroy(), lh.logFile.Close())
}

// Shutdown forwards to the wrapped handle if it supports it.
func (lh *loggedHandle) Shutdown() error {
	if sd, ok := lh.h.(interface{ Shutdown() error }); ok {
		return sd.Shutdown()
	}
	return nil
}

// NewLoggedHandle wraps a connection handle to log all data sent and received through it.
// The log file is created or appended to at the specified path. Destroying the
// returned handle destroys h and closes the file.
func NewLoggedHandle(h ipc.Handle, logFilePath string) (ipc.Handle, error) {
	logFile, err := os.OpenFile(logFilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &loggedHandle{h: h, logFile: logFile}, nil
}
