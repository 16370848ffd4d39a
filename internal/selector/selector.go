package selector

import (
	"github.com/angeloszaimis/cluster-transport/internal/conn"
)

type Selector interface {
	Next(conns []*conn.Conn) *conn.Conn
}
