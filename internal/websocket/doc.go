// Package websocket pushes dataset notifications to browser clients.
//
// A single Hub goroutine owns the client set. Each Client runs a read pump
// that only watches for disconnects and heartbeats, and a write pump that
// drains its buffered send channel and keeps the connection alive with pings.
// Clients that cannot keep up are dropped rather than slowing the broadcast.
package websocket
