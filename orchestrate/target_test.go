package orchestrate_test

import (
	"sort"
	"testing"

	"github.com/nauticalops/armada/depgraph"
	"github.com/nauticalops/armada/model"
	"github.com/nauticalops/armada/orchestrate"
)

func chainEnv() *model.Environment {
	// web -> api -> redis, plus a standalone omitted debug service.
	return &model.Environment{
		Name: "test",
		Ships: map[string]*model.Ship{"vm1": {Name: "vm1", IP: "10.0.0.5"}},
		Services: map[string]*model.Service{
			"redis": {Image: "redis:7", Instances: map[string]*model.Instance{"redis-1": {Ship: "vm1"}}},
			"api":   {Image: "api:1", Requires: []string{"redis"}, Instances: map[string]*model.Instance{"api-1": {Ship: "vm1"}}},
			"web":   {Image: "web:1", Requires: []string{"api"}, Instances: map[string]*model.Instance{"web-1": {Ship: "vm1"}}},
			"debug": {Image: "debug:1", Omit: true, Instances: map[string]*model.Instance{"debug-1": {Ship: "vm1"}}},
		},
	}
}

func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

func TestExpandTargets_Start_IncludesTransitiveRequires(t *testing.T) {
	env := chainEnv()
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		t.Fatal(err)
	}
	out, err := orchestrate.ExpandTargets(env, resolved, orchestrate.CmdStart, []string{"web"}, false)
	if err != nil {
		t.Fatal(err)
	}
	got := sortedStrings(out)
	want := []string{"api", "redis", "web"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExpandTargets_Stop_IncludesTransitiveDependents(t *testing.T) {
	env := chainEnv()
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		t.Fatal(err)
	}
	out, err := orchestrate.ExpandTargets(env, resolved, orchestrate.CmdStop, []string{"redis"}, false)
	if err != nil {
		t.Fatal(err)
	}
	got := sortedStrings(out)
	want := []string{"api", "redis", "web"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExpandTargets_OnlyFlagBypassesExpansion(t *testing.T) {
	env := chainEnv()
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		t.Fatal(err)
	}
	out, err := orchestrate.ExpandTargets(env, resolved, orchestrate.CmdStart, []string{"web"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != "web" {
		t.Errorf("expected exactly [web], got %v", out)
	}
}

// spec.md §4.6: empty target-set means "all non-omitted services" — the
// fix for the earlier bug where Omit-flagged services leaked into the
// default "all" set.
func TestExpandTargets_EmptySet_ExcludesOmittedServices(t *testing.T) {
	env := chainEnv()
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		t.Fatal(err)
	}
	out, err := orchestrate.ExpandTargets(env, resolved, orchestrate.CmdStart, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range out {
		if name == "debug" {
			t.Errorf("expected omitted service debug to be excluded from the default target set, got %v", out)
		}
	}
	got := sortedStrings(out)
	want := []string{"api", "redis", "web"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpandTargets_Status_NoExpansion(t *testing.T) {
	env := chainEnv()
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		t.Fatal(err)
	}
	out, err := orchestrate.ExpandTargets(env, resolved, orchestrate.CmdStatus, []string{"web"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != "web" {
		t.Errorf("expected status to return exactly the requested set, got %v", out)
	}
}

// spec.md §6: positional arguments match by substring against service
// OR instance names; a match on an instance name resolves to its
// owning service.
func TestExpandTargets_MatchesByInstanceNameSubstring(t *testing.T) {
	env := chainEnv()
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		t.Fatal(err)
	}
	out, err := orchestrate.ExpandTargets(env, resolved, orchestrate.CmdStart, []string{"web-1"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != "web" {
		t.Errorf("expected instance substring to resolve to owning service [web], got %v", out)
	}
}

func TestExpandTargets_MatchesByServiceNameSubstring(t *testing.T) {
	env := chainEnv()
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		t.Fatal(err)
	}
	out, err := orchestrate.ExpandTargets(env, resolved, orchestrate.CmdStart, []string{"we"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != "web" {
		t.Errorf("expected substring \"we\" to resolve to [web], got %v", out)
	}
}

func TestExpandTargets_UnknownServiceIsRejected(t *testing.T) {
	env := chainEnv()
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		t.Fatal(err)
	}
	_, err = orchestrate.ExpandTargets(env, resolved, orchestrate.CmdStart, []string{"ghost"}, false)
	if err == nil {
		t.Fatal("expected error for unknown service name")
	}
}
