// Package pool owns the set of node connections and the policies around
// them: which connection to hand out next, when a dead connection becomes
// eligible again after its backoff, and the markAlive/markDead health
// transitions driven by request outcomes. The pool never performs I/O and
// never holds its lock across an exchange.
package pool
