package controller_test

import (
	"context"
	"io"
	"testing"

	"github.com/nauticalops/armada/controller"
	"github.com/nauticalops/armada/daemon"
	"github.com/nauticalops/armada/depgraph"
	"github.com/nauticalops/armada/model"
)

// fakeClient is a minimal in-memory daemon.Client double, grounded on the
// "fake server, real logic" pattern the teacher uses for testing against
// internal/server without a live dependency.
type fakeClient struct {
	exists  map[string]bool // nameOrID -> exists
	running map[string]bool
	pulls   []string
	creates []string
	starts  []string
	stops   []string
	removes []string

	pullErr   error
	createErr error
	startErr  error

	imagesPresent map[string]bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		exists:        map[string]bool{},
		running:       map[string]bool{},
		imagesPresent: map[string]bool{},
	}
}

func (f *fakeClient) Pull(ctx context.Context, image string, auth daemon.RegistryAuth) error {
	f.pulls = append(f.pulls, image)
	if f.pullErr != nil {
		return f.pullErr
	}
	f.imagesPresent[image] = true
	return nil
}

func (f *fakeClient) ImageExists(ctx context.Context, image string) (bool, error) {
	return f.imagesPresent[image], nil
}

func (f *fakeClient) Create(ctx context.Context, name string, cfg daemon.ContainerSpec) (string, error) {
	f.creates = append(f.creates, name)
	if f.createErr != nil {
		return "", f.createErr
	}
	f.exists[name] = true
	return name, nil
}

func (f *fakeClient) Start(ctx context.Context, id string) error {
	f.starts = append(f.starts, id)
	if f.startErr != nil {
		return f.startErr
	}
	f.running[id] = true
	return nil
}

func (f *fakeClient) Stop(ctx context.Context, id string, timeout int) error {
	f.stops = append(f.stops, id)
	f.running[id] = false
	return nil
}

func (f *fakeClient) Remove(ctx context.Context, id string, force bool) error {
	f.removes = append(f.removes, id)
	delete(f.exists, id)
	delete(f.running, id)
	return nil
}

func (f *fakeClient) Inspect(ctx context.Context, nameOrID string) (daemon.Status, error) {
	return daemon.Status{ID: nameOrID, Exists: f.exists[nameOrID], Running: f.running[nameOrID]}, nil
}

func (f *fakeClient) Logs(ctx context.Context, nameOrID string, opts daemon.LogOptions) (io.ReadCloser, error) {
	return io.NopCloser(nil), nil
}

func (f *fakeClient) Close() error { return nil }

func oneServiceEnv() *model.Environment {
	return &model.Environment{
		Name: "test",
		Ships: map[string]*model.Ship{
			"vm1": {Name: "vm1", IP: "10.0.0.5"},
		},
		Services: map[string]*model.Service{
			"web": {
				Image:     "acme/web:1",
				Instances: map[string]*model.Instance{"web-1": {Ship: "vm1"}},
			},
		},
	}
}

func newController(t *testing.T, env *model.Environment, client daemon.Client) *controller.Controller {
	t.Helper()
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		t.Fatal(err)
	}
	return &controller.Controller{
		Env:      env,
		Resolved: resolved,
		Client:   client,
		Ship:     env.Ships["vm1"],
	}
}

func TestController_Start_AbsentToRunning(t *testing.T) {
	env := oneServiceEnv()
	client := newFakeClient()
	ctrl := newController(t, env, client)
	inst := env.FindInstance("web-1")

	if err := ctrl.Start(context.Background(), inst); err != nil {
		t.Fatalf("expected Start to succeed, got: %v", err)
	}
	if len(client.pulls) != 1 || client.pulls[0] != "acme/web:1" {
		t.Errorf("expected one pull of acme/web:1, got %v", client.pulls)
	}
	if len(client.creates) != 1 {
		t.Errorf("expected one create, got %v", client.creates)
	}
	if !client.running["web-1"] {
		t.Error("expected web-1 to be running")
	}
}

func TestController_Start_SkipsPullWhenImageAlreadyCached(t *testing.T) {
	env := oneServiceEnv()
	client := newFakeClient()
	client.imagesPresent["acme/web:1"] = true
	ctrl := newController(t, env, client)
	inst := env.FindInstance("web-1")

	if err := ctrl.Start(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	if len(client.pulls) != 0 {
		t.Errorf("expected pull to be skipped when image is already cached, got %v", client.pulls)
	}
}

func TestController_Start_ForceRefreshAlwaysPulls(t *testing.T) {
	env := oneServiceEnv()
	client := newFakeClient()
	client.imagesPresent["acme/web:1"] = true
	ctrl := newController(t, env, client)
	ctrl.ForceRefresh = true
	inst := env.FindInstance("web-1")

	if err := ctrl.Start(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	if len(client.pulls) != 1 {
		t.Errorf("expected ForceRefresh to pull even though the image is cached, got %v", client.pulls)
	}
}

func TestController_Start_AlreadyRunningIsIdempotent(t *testing.T) {
	env := oneServiceEnv()
	client := newFakeClient()
	client.exists["web-1"] = true
	client.running["web-1"] = true
	client.imagesPresent["acme/web:1"] = true
	ctrl := newController(t, env, client)
	inst := env.FindInstance("web-1")

	if err := ctrl.Start(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	if len(client.creates) != 0 || len(client.starts) != 0 {
		t.Errorf("expected no create/start calls on an already-running instance, got creates=%v starts=%v", client.creates, client.starts)
	}
}

func TestController_Stop_RunningToStopped(t *testing.T) {
	env := oneServiceEnv()
	client := newFakeClient()
	client.exists["web-1"] = true
	client.running["web-1"] = true
	ctrl := newController(t, env, client)
	inst := env.FindInstance("web-1")

	if err := ctrl.Stop(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	if client.running["web-1"] {
		t.Error("expected web-1 to be stopped")
	}
}

func TestController_Stop_AbsentIsNoop(t *testing.T) {
	env := oneServiceEnv()
	client := newFakeClient()
	ctrl := newController(t, env, client)
	inst := env.FindInstance("web-1")

	if err := ctrl.Stop(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	if len(client.stops) != 0 {
		t.Errorf("expected no stop call against an absent container, got %v", client.stops)
	}
}

func TestController_Restart(t *testing.T) {
	env := oneServiceEnv()
	client := newFakeClient()
	client.exists["web-1"] = true
	client.running["web-1"] = true
	client.imagesPresent["acme/web:1"] = true
	ctrl := newController(t, env, client)
	inst := env.FindInstance("web-1")

	if err := ctrl.Restart(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	if len(client.stops) != 1 || len(client.starts) != 1 {
		t.Errorf("expected one stop and one start, got stops=%v starts=%v", client.stops, client.starts)
	}
}

func TestController_Clean_RemovesRunningContainer(t *testing.T) {
	env := oneServiceEnv()
	client := newFakeClient()
	client.exists["web-1"] = true
	client.running["web-1"] = true
	ctrl := newController(t, env, client)
	inst := env.FindInstance("web-1")

	if err := ctrl.Clean(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	if len(client.removes) != 1 {
		t.Errorf("expected one remove call, got %v", client.removes)
	}
	if client.exists["web-1"] {
		t.Error("expected web-1 to no longer exist")
	}
}

func TestController_Clean_AbsentIsIdempotent(t *testing.T) {
	env := oneServiceEnv()
	client := newFakeClient()
	ctrl := newController(t, env, client)
	inst := env.FindInstance("web-1")

	if err := ctrl.Clean(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	if len(client.removes) != 0 {
		t.Errorf("expected no remove call against an already-absent container, got %v", client.removes)
	}
}
