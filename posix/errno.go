//go:build unix

// Package posix maps kernel results onto host POSIX numbers for code that
// reports through errno-style interfaces.
package posix

import (
	"errors"
	"strconv"
	"syscall"

	"duet/kernel"

	"golang.org/x/sys/unix"
)

// Errno translates a system call error. nil maps to 0; errors that carry
// no kernel errno map to EIO.
func Errno(err error) unix.Errno {
	if err == nil {
		return 0
	}
	var fatal *kernel.Fatal
	if errors.As(err, &fatal) {
		return unix.EFAULT
	}
	var e kernel.Errno
	if !errors.As(err, &e) {
		return unix.EIO
	}
	switch e {
	case kernel.ErrNotFound:
		return unix.ESRCH
	case kernel.ErrPermission:
		return unix.EPERM
	case kernel.ErrWouldBlock, kernel.ErrExhausted, kernel.ErrValueChanged:
		return unix.EAGAIN
	case kernel.ErrInterrupted:
		return unix.EINTR
	case kernel.ErrTimedOut:
		return unix.ETIMEDOUT
	case kernel.ErrInvalid:
		return unix.EINVAL
	case kernel.ErrCancelled:
		return unix.ECANCELED
	default:
		return unix.EIO
	}
}

// Signal converts a kernel signal to the host's number for it.
func Signal(sig kernel.Signal) syscall.Signal {
	switch sig {
	case kernel.SIGHUP:
		return unix.SIGHUP
	case kernel.SIGINT:
		return unix.SIGINT
	case kernel.SIGQUIT:
		return unix.SIGQUIT
	case kernel.SIGKILL:
		return unix.SIGKILL
	case kernel.SIGUSR1:
		return unix.SIGUSR1
	case kernel.SIGUSR2:
		return unix.SIGUSR2
	case kernel.SIGALRM:
		return unix.SIGALRM
	case kernel.SIGTERM:
		return unix.SIGTERM
	case kernel.SIGCHLD:
		return unix.SIGCHLD
	case kernel.SIGURG:
		return unix.SIGURG
	case kernel.SIGWINCH:
		return unix.SIGWINCH
	default:
		return syscall.Signal(sig)
	}
}

// SignalName returns the conventional name of sig, such as "SIGTERM".
func SignalName(sig kernel.Signal) string {
	if name := unix.SignalName(Signal(sig)); name != "" {
		return name
	}
	return "SIG" + strconv.Itoa(int(sig))
}
