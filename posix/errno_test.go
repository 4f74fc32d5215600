//go:build unix

package posix

import (
	"errors"
	"fmt"
	"testing"

	"duet/kernel"

	"golang.org/x/sys/unix"
)

func TestErrno(t *testing.T) {
	tests := []struct {
		err  error
		want unix.Errno
	}{
		{nil, 0},
		{kernel.ErrNotFound, unix.ESRCH},
		{kernel.ErrPermission, unix.EPERM},
		{kernel.ErrWouldBlock, unix.EAGAIN},
		{kernel.ErrInterrupted, unix.EINTR},
		{kernel.ErrTimedOut, unix.ETIMEDOUT},
		{kernel.ErrExhausted, unix.EAGAIN},
		{kernel.ErrInvalid, unix.EINVAL},
		{kernel.ErrValueChanged, unix.EAGAIN},
		{kernel.ErrCancelled, unix.ECANCELED},
		{fmt.Errorf("names lookup: %w", kernel.ErrNotFound), unix.ESRCH},
		{&kernel.Fatal{Reason: "corrupt"}, unix.EFAULT},
		{errors.New("other"), unix.EIO},
	}
	for _, tt := range tests {
		if got := Errno(tt.err); got != tt.want {
			t.Errorf("Errno(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestSignalName(t *testing.T) {
	if got := SignalName(kernel.SIGTERM); got != "SIGTERM" {
		t.Fatalf("SignalName(SIGTERM) = %q", got)
	}
	if got := SignalName(kernel.SIGKILL); got != "SIGKILL" {
		t.Fatalf("SignalName(SIGKILL) = %q", got)
	}
	if got := Signal(kernel.SIGUSR1); got != unix.SIGUSR1 {
		t.Fatalf("Signal(SIGUSR1) = %d, want %d", got, unix.SIGUSR1)
	}
}
