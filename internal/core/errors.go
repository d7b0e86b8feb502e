package core

import "errors"

var (
	// ErrTransportClosed is returned by transports written after close.
	ErrTransportClosed = errors.New("transport closed")
	// ErrSlowConsumer is returned when a transport cannot accept more outbound frames.
	ErrSlowConsumer = errors.New("send buffer full")
)
