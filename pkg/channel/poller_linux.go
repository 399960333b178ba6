package channel

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Poller blocks a process until a registered receive end has data. It is
// a thin epoll wrapper; Receiver creates one lazily, but it is exported
// so a process can wait on several unrelated descriptors in one call.
type Poller struct {
	epfd int
}

// NewPoller allocates the epoll handle.
func NewPoller() (*Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("%w: epoll_create1: %v", ErrResource, err)
	}
	return &Poller{epfd: epfd}, nil
}

// Register adds a receive end to the interest list. At most one poller
// watches a given receiver at a time.
func (p *Poller) Register(r *Receiver) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(r.fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, r.fd, &ev); err != nil {
		return fmt.Errorf("%w: epoll_ctl add fd %d: %v", ErrResource, r.fd, err)
	}
	return nil
}

// Wait blocks until any registered descriptor is readable (or its peer
// hung up) and returns that descriptor. A non-positive timeout waits
// indefinitely; on expiry it returns ErrTimeout.
func (p *Poller) Wait(timeout time.Duration) (int, error) {
	msec := -1
	if timeout > 0 {
		msec = int(timeout.Milliseconds())
		if msec == 0 {
			msec = 1
		}
	}
	events := make([]unix.EpollEvent, 1)
	for {
		n, err := unix.EpollWait(p.epfd, events, msec)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return 0, fmt.Errorf("epoll_wait: %w", err)
		case n == 0:
			return 0, ErrTimeout
		default:
			return int(events[0].Fd), nil
		}
	}
}

// Close releases the epoll handle.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}
