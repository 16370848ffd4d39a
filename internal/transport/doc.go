// Package transport orchestrates a logical request across the cluster: it
// obtains a connection from the pool, executes the exchange, marks the node
// alive or dead based on the outcome, and retries against other nodes on
// transport-level failures and configured retryable statuses until the
// retry budget runs out. Any other HTTP status, 4xx and 5xx included, is
// returned to the caller untouched: a node answering 404 is alive and well.
package transport
