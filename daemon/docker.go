package daemon

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/registry"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/nauticalops/armada/armerr"
	"github.com/nauticalops/armada/model"
)

// dockerClient wraps the Docker Engine API client for one ship.
type dockerClient struct {
	cli      *dockerclient.Client
	tunnel   *sshTunnel // non-nil when ConnMode == ConnSSHTunnel
	shipName string
}

// Dial opens a Client to the ship's daemon, selecting transport by
// ship.ConnMode() (spec.md §3's four connection modes).
func Dial(ctx context.Context, ship *model.Ship) (Client, error) {
	switch ship.ConnMode() {
	case model.ConnTCP:
		return dialTCP(ctx, ship, nil)
	case model.ConnTLS:
		tlsCfg, err := buildTLSConfig(ship.TLS)
		if err != nil {
			return nil, &armerr.ConnectionError{Ship: ship.Name, Cause: err}
		}
		return dialTCP(ctx, ship, tlsCfg)
	case model.ConnSocket:
		return dialSocket(ctx, ship)
	case model.ConnSSHTunnel:
		return dialSSH(ctx, ship)
	default:
		return nil, &armerr.ConnectionError{Ship: ship.Name, Cause: fmt.Errorf("unknown connection mode")}
	}
}

func dialTCP(ctx context.Context, ship *model.Ship, tlsCfg *tls.Config) (Client, error) {
	host := fmt.Sprintf("tcp://%s:%d", ship.IP, ship.DockerPort)

	opts := []dockerclient.Opt{
		dockerclient.WithHost(host),
		dockerclient.WithVersion(ship.APIVersion),
	}
	if tlsCfg != nil {
		httpClient := &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
			Timeout:   ship.Timeout.Duration,
		}
		opts = append(opts, dockerclient.WithHTTPClient(httpClient))
	}

	cli, err := dockerclient.NewClientWithOpts(opts...)
	if err != nil {
		return nil, &armerr.ConnectionError{Ship: ship.Name, Cause: err}
	}
	if _, err := cli.Ping(ctx); err != nil {
		return nil, &armerr.ConnectionError{Ship: ship.Name, Cause: err}
	}
	return &dockerClient{cli: cli, shipName: ship.Name}, nil
}

func dialSocket(ctx context.Context, ship *model.Ship) (Client, error) {
	cli, err := dockerclient.NewClientWithOpts(
		dockerclient.WithHost("unix://"+ship.SocketPath),
		dockerclient.WithVersion(ship.APIVersion),
	)
	if err != nil {
		return nil, &armerr.ConnectionError{Ship: ship.Name, Cause: err}
	}
	if _, err := cli.Ping(ctx); err != nil {
		return nil, &armerr.ConnectionError{Ship: ship.Name, Cause: err}
	}
	return &dockerClient{cli: cli, shipName: ship.Name}, nil
}

func dialSSH(ctx context.Context, ship *model.Ship) (Client, error) {
	tunnel, err := openTunnel(ctx, ship)
	if err != nil {
		return nil, &armerr.ConnectionError{Ship: ship.Name, Cause: err}
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return tunnel.Dial()
			},
		},
		Timeout: ship.Timeout.Duration,
	}

	cli, err := dockerclient.NewClientWithOpts(
		dockerclient.WithHost("http://localhost"),
		dockerclient.WithVersion(ship.APIVersion),
		dockerclient.WithHTTPClient(httpClient),
	)
	if err != nil {
		tunnel.Close()
		return nil, &armerr.ConnectionError{Ship: ship.Name, Cause: err}
	}
	if _, err := cli.Ping(ctx); err != nil {
		tunnel.Close()
		return nil, &armerr.ConnectionError{Ship: ship.Name, Cause: err}
	}
	return &dockerClient{cli: cli, tunnel: tunnel, shipName: ship.Name}, nil
}

func buildTLSConfig(cfg model.TLSConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(cfg.Cert, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("loading client cert/key: %w", err)
	}
	tlsCfg := &tls.Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: !cfg.Verify,
	}
	return tlsCfg, nil
}

func (d *dockerClient) Close() error {
	err := d.cli.Close()
	if d.tunnel != nil {
		d.tunnel.Close()
	}
	return err
}

func (d *dockerClient) Pull(ctx context.Context, img string, auth RegistryAuth) error {
	opts := image.PullOptions{}
	if auth.Username != "" {
		encoded, err := encodeAuth(auth)
		if err != nil {
			return fmt.Errorf("pull %s: %w", img, err)
		}
		opts.RegistryAuth = encoded
	}
	rc, err := d.cli.ImagePull(ctx, img, opts)
	if err != nil {
		return fmt.Errorf("pull %s: %w", img, err)
	}
	defer rc.Close()
	// Drain the pull status stream; the orchestrator doesn't render
	// progress, only success/failure.
	var discard [4096]byte
	for {
		if _, err := rc.Read(discard[:]); err != nil {
			break
		}
	}
	return nil
}

func (d *dockerClient) ImageExists(ctx context.Context, img string) (bool, error) {
	_, err := d.cli.ImageInspect(ctx, img)
	if err != nil {
		if dockerclient.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func encodeAuth(auth RegistryAuth) (string, error) {
	cfg := registry.AuthConfig{
		Username: auth.Username,
		Password: auth.Password,
		Email:    auth.Email,
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (d *dockerClient) Create(ctx context.Context, name string, spec ContainerSpec) (string, error) {
	if err := spec.validate(); err != nil {
		return "", err
	}

	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, p := range spec.Ports {
		c := p.Canonicalize()
		containerPort, err := nat.NewPort(c.ExposedProto, strconv.Itoa(c.ExposedPort))
		if err != nil {
			return "", fmt.Errorf("port %q: %w", p.Name, err)
		}
		exposed[containerPort] = struct{}{}
		bindings[containerPort] = append(bindings[containerPort], nat.PortBinding{
			HostIP:   c.BindAddr,
			HostPort: strconv.Itoa(c.ExternalPort),
		})
	}

	binds := make([]string, 0, len(spec.Volumes))
	for _, v := range spec.Volumes {
		mode := v.Mode
		binds = append(binds, fmt.Sprintf("%s:%s:%s", v.HostPath, v.Target, mode))
	}

	var restartPolicy container.RestartPolicy
	if spec.Restart.Name != "" {
		restartPolicy = container.RestartPolicy{
			Name:              container.RestartPolicyMode(spec.Restart.Name),
			MaximumRetryCount: spec.Restart.MaximumRetryCount,
		}
	}

	containerCfg := &container.Config{
		Image:        spec.Image,
		Env:          spec.Env,
		Cmd:          spec.Command,
		ExposedPorts: exposed,
	}

	hostCfg := &container.HostConfig{
		Binds:        binds,
		VolumesFrom:  spec.VolumesFrom,
		PortBindings: bindings,
		Privileged:   spec.Privileged,
		CapAdd:       spec.CapAdd,
		CapDrop:      spec.CapDrop,
		ExtraHosts:   spec.ExtraHosts,
		DNS:          spec.DNS,
		Links:        spec.Links,
		NetworkMode:  container.NetworkMode(spec.NetMode),
		RestartPolicy: restartPolicy,
		Resources: container.Resources{
			Memory:     spec.Memory,
			MemorySwap: spec.MemorySwap,
			CPUShares:  spec.CPUShares,
		},
	}
	if spec.LogDriver != "" {
		hostCfg.LogConfig = container.LogConfig{
			Type:   spec.LogDriver,
			Config: spec.LogOpt,
		}
	}

	resp, err := d.cli.ContainerCreate(ctx, containerCfg, hostCfg, &network.NetworkingConfig{}, nil, name)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *dockerClient) Start(ctx context.Context, id string) error {
	return d.cli.ContainerStart(ctx, id, container.StartOptions{})
}

func (d *dockerClient) Stop(ctx context.Context, id string, timeoutSeconds int) error {
	return d.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeoutSeconds})
}

func (d *dockerClient) Remove(ctx context.Context, id string, force bool) error {
	return d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: force})
}

func (d *dockerClient) Logs(ctx context.Context, nameOrID string, opts LogOptions) (io.ReadCloser, error) {
	tail := "all"
	if opts.Tail > 0 {
		tail = strconv.Itoa(opts.Tail)
	}
	return d.cli.ContainerLogs(ctx, nameOrID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     opts.Follow,
		Tail:       tail,
	})
}

func (d *dockerClient) Inspect(ctx context.Context, nameOrID string) (Status, error) {
	info, err := d.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if dockerclient.IsErrNotFound(err) {
			return Status{Exists: false}, nil
		}
		return Status{}, err
	}
	return Status{
		ID:      info.ID,
		Image:   info.Image,
		Exists:  true,
		Running: info.State != nil && info.State.Running,
	}, nil
}
