package pipeio

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"dominicbreuker/goipc/mocks"
)

func TestNewStdio(t *testing.T) {
	t.Parallel()

	stdio := NewStdio(strings.NewReader(""), io.Discard)

	if stdio == nil {
		t.Fatal("NewStdio() returned nil")
	}
	if stdio.stdin == nil {
		t.Error("NewStdio() stdin is nil")
	}
	if stdio.stdout == nil {
		t.Error("NewStdio() stdout is nil")
	}
	if err := stdio.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestStdio_Read(t *testing.T) {
	t.Parallel()

	testData := []byte("Hello from client!")
	stdio := NewStdio(bytes.NewReader(testData), io.Discard)

	buf := make([]byte, 1024)
	n, err := stdio.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(buf[:n], testData) {
		t.Errorf("Read() = %q, want %q", buf[:n], testData)
	}
}

func TestStdio_Write(t *testing.T) {
	t.Parallel()

	mockStdio := mocks.NewMockStdio()
	defer mockStdio.Close()

	stdio := NewStdio(mockStdio.GetStdin(), mockStdio.GetStdout())

	testData := []byte("Hello from server!")
	n, err := stdio.Write(testData)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(testData) {
		t.Errorf("Write() wrote %d bytes, want %d", n, len(testData))
	}

	if err := mockStdio.WaitForOutput(string(testData), 1000); err != nil {
		t.Fatalf("WaitForOutput() error = %v", err)
	}
}

func TestStdio_CloseCancelsRead(t *testing.T) {
	t.Parallel()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	defer r.Close()
	defer w.Close()

	stdio := NewStdio(r, io.Discard)
	if stdio.cancellableStdin == nil {
		t.Skip("cancelable reads not supported on this platform")
	}

	if err := stdio.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	buf := make([]byte, 10)
	if _, err := stdio.Read(buf); err == nil {
		t.Error("Read() after Close() should fail")
	}
}
