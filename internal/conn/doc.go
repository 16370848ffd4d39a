// Package conn implements the client-side handle to a single cluster node.
// A Conn carries the node's identity, its health state as maintained by the
// pool, and a diagnostics snapshot of the most recent exchange. The actual
// HTTP mechanics live behind the Performer interface, which can be wrapped
// with middleware to inject behavior around every exchange.
package conn
