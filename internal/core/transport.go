package core

// Transport is the per-connection handle the core writes to.
// Implementations must not block: Write hands the payload off or fails,
// Probe starts a round trip and calls ack when the peer answers.
type Transport interface {
	Writable() bool
	Write(payload []byte) error
	Close(code int, reason string) error
	Terminate()
	Probe(ack func())
}
