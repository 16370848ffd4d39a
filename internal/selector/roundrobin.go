package selector

import (
	"sync/atomic"

	"github.com/angeloszaimis/cluster-transport/internal/conn"
)

type roundRobinSelector struct {
	current uint64
}

func (rr *roundRobinSelector) Next(conns []*conn.Conn) *conn.Conn {
	if len(conns) == 0 {
		return nil
	}

	n := atomic.AddUint64(&rr.current, 1)

	index := (n - 1) % uint64(len(conns))

	return conns[index]
}

func NewRoundRobinSelector() Selector {
	return &roundRobinSelector{
		current: 0,
	}
}
