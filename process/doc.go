// Package process implements the three cooperating processes of the
// container bootstrap and the handshake protocol between them.
//
// # Roles
//
// The main process (the create command) spawns the child by re-executing
// the runtime binary. The child spawns the container init process inside
// the requested namespaces, again by re-execution, then acts as a relay
// until the handshake completes and exits. The init process performs the
// in-container setup and finally replaces itself with the payload.
//
// # Protocol
//
// Each arrow is one unidirectional channel (see pkg/channel):
//
//	child -> main : child_ready (carries the init pid)
//	init  -> child -> main : request_id_mapping (user namespace only)
//	main  -> child -> init : mapping_ack
//
// The relay guarantees main never observes request_id_mapping before
// child_ready. Every receive is bounded by a timeout; a timeout, a peer
// close or an unexpected variant aborts the bootstrap, the spawned
// process tree is reaped, and no container state is persisted.
package process
