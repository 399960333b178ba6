// Package channel provides the unidirectional pipe primitive used to
// synchronize the runtime processes during container bootstrap.
//
// A channel is one non-blocking OS pipe carrying fixed-size tagged
// messages. The write end (Sender) and read end (Receiver) are created
// together with Pair before process duplication; after duplication each
// process closes the end it does not own. A Receiver blocks through an
// epoll based Poller, so a waiting process suspends until its peer has
// written a frame or a bounded timeout elapses.
package channel
