package mocks

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// MockStdio stands in for the terminal of an interactive session. Input is
// fed through an in-memory pipe, output is collected in a buffer that tests
// can wait on.
type MockStdio struct {
	stdinReader *io.PipeReader
	stdinWriter *io.PipeWriter

	mu   sync.Mutex
	cond *sync.Cond
	out  bytes.Buffer
}

// NewMockStdio creates a mock terminal with empty input and output.
func NewMockStdio() *MockStdio {
	r, w := io.Pipe()

	m := &MockStdio{
		stdinReader: r,
		stdinWriter: w,
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// WriteToStdin simulates the user typing data. It blocks until the
// application reads it.
func (m *MockStdio) WriteToStdin(data []byte) (int, error) {
	return m.stdinWriter.Write(data)
}

// CloseStdin simulates end of input, like Ctrl-D on a terminal.
func (m *MockStdio) CloseStdin() error {
	return m.stdinWriter.Close()
}

// GetStdin returns the reader the application consumes as stdin.
func (m *MockStdio) GetStdin() io.Reader {
	return m.stdinReader
}

// GetStdout returns the writer the application writes stdout to.
func (m *MockStdio) GetStdout() io.Writer {
	return stdoutWriter{m}
}

// ReadFromStdout returns everything written to stdout so far.
func (m *MockStdio) ReadFromStdout() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.out.String()
}

// WaitForOutput waits until stdout contains expected. The timeout is in milliseconds.
func (m *MockStdio) WaitForOutput(expected string, timeoutMs int) error {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()

	for !strings.Contains(m.out.String(), expected) {
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for output %q, got: %q", expected, m.out.String())
		}

		go func() {
			time.Sleep(20 * time.Millisecond)
			m.cond.Broadcast()
		}()
		m.cond.Wait()
	}
	return nil
}

// Close ends both streams.
func (m *MockStdio) Close() error {
	m.stdinWriter.Close()
	return m.stdinReader.Close()
}

type stdoutWriter struct {
	m *MockStdio
}

func (w stdoutWriter) Write(p []byte) (int, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()

	n, err := w.m.out.Write(p)
	w.m.cond.Broadcast()
	return n, err
}
