// Package container owns the persisted per-container state and the
// lifecycle operations over it.
//
// Each container is one directory under the runtime root, named by its
// identifier, holding the state file, the exec fifo used as start gate
// and a lock file. State writes go through a temp file and rename, and
// all access to one record is serialized by an exclusive flock, so a
// concurrent reader can never observe a partially written record.
// Records of different containers are fully independent.
package container
