package channel

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrResource indicates an OS handle could not be allocated.
	ErrResource = errors.New("channel: resource allocation failed")

	// ErrProtocol indicates received bytes do not decode to a known
	// message variant.
	ErrProtocol = errors.New("channel: protocol error")

	// ErrTimeout indicates no data arrived within the bounded wait.
	ErrTimeout = errors.New("channel: wait timed out")
)

// Sender is the write end of a channel.
type Sender struct {
	fd     int
	file   *os.File
	name   string
	closed bool
}

// Receiver is the read end of a channel. The poller is created lazily on
// the first blocking receive and owns the epoll handle afterwards.
type Receiver struct {
	fd     int
	file   *os.File
	name   string
	closed bool
	poller *Poller
}

// Pair creates one directional pipe. The name is used in error messages
// to identify which channel of the handshake failed.
func Pair(name string) (*Sender, *Receiver, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, nil, fmt.Errorf("%w: pipe2 %s: %v", ErrResource, name, err)
	}
	s := &Sender{fd: fds[1], name: name}
	r := &Receiver{fd: fds[0], name: name}
	return s, r, nil
}

// NewSender wraps an inherited pipe write end, e.g. one passed down
// through ExtraFiles to a re-executed process. The file is retained:
// its finalizer would otherwise close the descriptor mid-handshake.
func NewSender(f *os.File, name string) *Sender {
	return &Sender{fd: int(f.Fd()), file: f, name: name}
}

// NewReceiver wraps an inherited pipe read end, retaining the file.
func NewReceiver(f *os.File, name string) *Receiver {
	return &Receiver{fd: int(f.Fd()), file: f, name: name}
}

// Send writes one encoded message. Frames are smaller than PIPE_BUF so
// the write is atomic; EAGAIN only occurs if the peer stopped draining,
// in which case we poll for writability instead of spinning.
func (s *Sender) Send(m Message) error {
	if s.closed {
		return fmt.Errorf("channel %s: send on closed end", s.name)
	}
	b := m.encode()
	for {
		n, err := unix.Write(s.fd, b)
		if err == nil {
			if n != len(b) {
				return fmt.Errorf("channel %s: short write %d", s.name, n)
			}
			return nil
		}
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			if err := waitWritable(s.fd); err != nil {
				return fmt.Errorf("channel %s: %v", s.name, err)
			}
			continue
		}
		return fmt.Errorf("channel %s: send %s: %w", s.name, m.Kind, err)
	}
}

// File duplicates the write end for passing to a spawned process. The
// caller closes the returned file once the process has started.
func (s *Sender) File() (*os.File, error) {
	return dupFile(s.fd, s.name)
}

// Close releases the write end. Closing unblocks a peer waiting on the
// paired Receiver with an end-of-file condition.
func (s *Sender) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.file != nil {
		return s.file.Close()
	}
	return unix.Close(s.fd)
}

// Receive blocks until one message arrives, the peer closes, or the
// timeout elapses. A non-positive timeout waits indefinitely; call sites
// that can observe peer death should always pass a bound.
func (r *Receiver) Receive(timeout time.Duration) (Message, error) {
	if r.closed {
		return Message{}, fmt.Errorf("channel %s: receive on closed end", r.name)
	}
	if r.poller == nil {
		p, err := NewPoller()
		if err != nil {
			return Message{}, err
		}
		if err := p.Register(r); err != nil {
			p.Close()
			return Message{}, err
		}
		r.poller = p
	}
	if _, err := r.poller.Wait(timeout); err != nil {
		return Message{}, fmt.Errorf("channel %s: %w", r.name, err)
	}

	b := make([]byte, messageSize)
	for {
		n, err := unix.Read(r.fd, b)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return Message{}, fmt.Errorf("channel %s: receive: %w", r.name, err)
		case n == 0:
			return Message{}, fmt.Errorf("channel %s: closed by peer: %w", r.name, io.EOF)
		default:
			m, derr := decode(b[:n])
			if derr != nil {
				return Message{}, fmt.Errorf("channel %s: %w", r.name, derr)
			}
			return m, nil
		}
	}
}

// Expect receives one message and fails unless it is of the wanted kind.
// An unexpected variant is a protocol error, treated by callers exactly
// like a peer close.
func (r *Receiver) Expect(want Kind, timeout time.Duration) (Message, error) {
	m, err := r.Receive(timeout)
	if err != nil {
		return Message{}, err
	}
	if m.Kind != want {
		return Message{}, fmt.Errorf("channel %s: %w: got %s, want %s", r.name, ErrProtocol, m.Kind, want)
	}
	return m, nil
}

// File duplicates the read end for passing to a spawned process.
func (r *Receiver) File() (*os.File, error) {
	return dupFile(r.fd, r.name)
}

// Close releases the read end and its poller, if any.
func (r *Receiver) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.poller != nil {
		r.poller.Close()
		r.poller = nil
	}
	if r.file != nil {
		return r.file.Close()
	}
	return unix.Close(r.fd)
}

// Fd exposes the raw descriptor for external pollers.
func (r *Receiver) Fd() int { return r.fd }

func dupFile(fd int, name string) (*os.File, error) {
	nfd, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("channel %s: dup: %w", name, err)
	}
	return os.NewFile(uintptr(nfd), name), nil
}

func waitWritable(fd int) error {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		_, err := unix.Poll(pfd, -1)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}
