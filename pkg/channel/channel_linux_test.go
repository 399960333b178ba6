package channel

import (
	"errors"
	"io"
	"runtime"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestSendReceive(t *testing.T) {
	s, r, err := Pair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	defer r.Close()

	want := Message{Kind: ChildReady, Pid: 4321}
	go func() {
		s.Send(want)
	}()

	got, err := r.Receive(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Receive got %+v, want %+v", got, want)
	}
}

func TestReceiveOrder(t *testing.T) {
	s, r, err := Pair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	defer r.Close()

	msgs := []Message{
		{Kind: ChildReady, Pid: 1},
		{Kind: RequestIDMapping},
		{Kind: MappingAck},
	}
	for _, m := range msgs {
		if err := s.Send(m); err != nil {
			t.Fatal(err)
		}
	}
	for i, want := range msgs {
		got, err := r.Receive(time.Second)
		if err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
		if got != want {
			t.Errorf("message %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestExpectWrongVariant(t *testing.T) {
	s, r, err := Pair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	defer r.Close()

	if err := s.Send(Message{Kind: MappingAck}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Expect(ChildReady, time.Second); !errors.Is(err, ErrProtocol) {
		t.Errorf("Expect error = %v, want ErrProtocol", err)
	}
}

func TestReceiveUnknownTag(t *testing.T) {
	s, r, err := Pair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	defer r.Close()

	frame := make([]byte, messageSize)
	frame[0] = 0xff
	if _, err := unix.Write(s.fd, frame); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Receive(time.Second); !errors.Is(err, ErrProtocol) {
		t.Errorf("Receive error = %v, want ErrProtocol", err)
	}
}

func TestReceivePeerClosed(t *testing.T) {
	s, r, err := Pair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	s.Close()
	if _, err := r.Receive(time.Second); !errors.Is(err, io.EOF) {
		t.Errorf("Receive error = %v, want EOF", err)
	}
}

func TestReceiveTimeout(t *testing.T) {
	s, r, err := Pair("test")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	defer r.Close()

	start := time.Now()
	_, err = r.Receive(50 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Receive error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

// TestInheritedEndsSurviveGC wraps endpoints the way a re-executed
// process wraps its inherited descriptors. The endpoints must keep the
// wrapping files alive, or a garbage collection between setup and the
// first message closes the descriptors out from under the handshake.
func TestInheritedEndsSurviveGC(t *testing.T) {
	s0, r0, err := Pair("inherited")
	if err != nil {
		t.Fatal(err)
	}
	wf, err := s0.File()
	if err != nil {
		t.Fatal(err)
	}
	rf, err := r0.File()
	if err != nil {
		t.Fatal(err)
	}
	s0.Close()
	r0.Close()

	s := NewSender(wf, "inherited")
	r := NewReceiver(rf, "inherited")
	defer s.Close()
	defer r.Close()
	wf, rf = nil, nil

	// without a retained reference the file finalizers close fds here
	runtime.GC()
	runtime.GC()
	time.Sleep(10 * time.Millisecond)

	want := Message{Kind: ChildReady, Pid: 42}
	if err := s.Send(want); err != nil {
		t.Fatalf("send after GC: %v", err)
	}
	got, err := r.Receive(time.Second)
	if err != nil {
		t.Fatalf("receive after GC: %v", err)
	}
	if got != want {
		t.Errorf("Receive got %+v, want %+v", got, want)
	}
}

func TestPollerMultiple(t *testing.T) {
	s1, r1, err := Pair("a")
	if err != nil {
		t.Fatal(err)
	}
	defer s1.Close()
	defer r1.Close()
	s2, r2, err := Pair("b")
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	defer r2.Close()

	p, err := NewPoller()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Register(r1); err != nil {
		t.Fatal(err)
	}
	if err := p.Register(r2); err != nil {
		t.Fatal(err)
	}

	if err := s2.Send(Message{Kind: MappingAck}); err != nil {
		t.Fatal(err)
	}
	fd, err := p.Wait(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if fd != r2.Fd() {
		t.Errorf("Wait returned fd %d, want %d", fd, r2.Fd())
	}
}
