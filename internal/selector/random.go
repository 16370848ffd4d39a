package selector

import (
	"math/rand"

	"github.com/angeloszaimis/cluster-transport/internal/conn"
)

type randomSelector struct{}

func (r *randomSelector) Next(conns []*conn.Conn) *conn.Conn {
	if len(conns) == 0 {
		return nil
	}

	index := rand.Intn(len(conns))
	return conns[index]
}

func NewRandomSelector() Selector {
	return &randomSelector{}
}
