package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/nauticalops/armada/model"
)

type tcpChecker struct {
	check *model.TCPCheck
	host  string
	port  int
}

func (c *tcpChecker) Tag() string { return "tcp(" + c.check.Port + ")" }

func (c *tcpChecker) Check(ctx context.Context) error {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// resolvePortName resolves a check's "port" field — either a bare
// numeric literal or the name of one of the instance's declared ports —
// to the ship-side (external) port number probes dial, since checks run
// from the armada host against the ship, not inside the container.
func resolvePortName(port string, inst *model.Instance) (int, error) {
	if n, err := strconv.Atoi(port); err == nil {
		return n, nil
	}
	for _, p := range inst.Ports {
		if p.Name == port {
			return p.ExternalPort, nil
		}
	}
	return 0, fmt.Errorf("port %q is not numeric and does not name a declared port on instance %q", port, inst.Name)
}
