package core

// Frame is one serialized payload delivered to a connection.
type Frame []byte

// ConnID identifies one live connection. The transport generates it at
// accept time; it is never derived from a runtime object address and is
// never shared by two live connections.
type ConnID string

// Conn abstracts the outbound half of a client connection.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}
