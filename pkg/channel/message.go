package channel

import (
	"encoding/binary"
	"fmt"
)

// Kind is the type tag of a handshake message.
type Kind uint8

// Handshake message kinds. The zero value is invalid so that an all-zero
// frame (e.g. from a half-written pipe) never decodes to a valid message.
const (
	// ChildReady is sent from the child to the main process after the
	// container init process has been spawned. It carries the init pid.
	ChildReady Kind = iota + 1

	// RequestIDMapping is sent from the init process (relayed by the
	// child) when the container runs in a new user namespace and needs
	// its uid/gid mapping written by the privileged peer.
	RequestIDMapping

	// MappingAck is sent from the main process once the id mapping files
	// have been written.
	MappingAck
)

func (k Kind) String() string {
	switch k {
	case ChildReady:
		return "child_ready"
	case RequestIDMapping:
		return "request_id_mapping"
	case MappingAck:
		return "mapping_ack"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Message is a fixed-size signal exchanged over a channel during bootstrap.
// Pid is only meaningful for ChildReady.
type Message struct {
	Kind Kind
	Pid  int32
}

// messageSize is the encoded frame size. Frames are well below PIPE_BUF so
// a single write is atomic on the underlying pipe.
const messageSize = 8

func (m Message) encode() []byte {
	b := make([]byte, messageSize)
	b[0] = byte(m.Kind)
	binary.LittleEndian.PutUint32(b[4:], uint32(m.Pid))
	return b
}

func decode(b []byte) (Message, error) {
	if len(b) != messageSize {
		return Message{}, fmt.Errorf("%w: short frame of %d bytes", ErrProtocol, len(b))
	}
	k := Kind(b[0])
	if k < ChildReady || k > MappingAck {
		return Message{}, fmt.Errorf("%w: tag %d", ErrProtocol, b[0])
	}
	return Message{Kind: k, Pid: int32(binary.LittleEndian.Uint32(b[4:]))}, nil
}
