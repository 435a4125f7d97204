package depgraph

import (
	"reflect"
	"testing"
)

func TestDefaultTopology(t *testing.T) {
	g := Default()

	if !g.DependsOn("api-gateway", "order-service") {
		t.Error("api-gateway should depend on order-service")
	}
	if g.DependsOn("order-service", "api-gateway") {
		t.Error("dependency edges are directed")
	}
	if !g.Linked("order-service", "api-gateway") {
		t.Error("Linked should be direction-agnostic")
	}
}

func TestDependenciesSorted(t *testing.T) {
	g := New(map[string][]string{
		"a": {"c", "b"},
	})
	if got := g.Dependencies("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Dependencies = %v, want [b c]", got)
	}
	if got := g.Dependents("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Dependents = %v, want [a]", got)
	}
	if got := g.Dependencies("unknown"); got != nil {
		t.Errorf("unknown service should have nil dependencies, got %v", got)
	}
}

func TestReachableTransitive(t *testing.T) {
	g := Default()

	if !g.Reachable("api-gateway", "postgres") {
		t.Error("postgres should be transitively reachable from api-gateway")
	}
	if g.Reachable("postgres", "api-gateway") {
		t.Error("reverse direction should not be reachable")
	}
	if g.Reachable("api-gateway", "api-gateway") {
		t.Error("a service is not reachable from itself")
	}
}

func TestInCycle(t *testing.T) {
	g := New(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
		"d": {"a"},
	})

	if !g.InCycle("a", "c") {
		t.Error("a and c should be on a cycle")
	}
	if g.InCycle("d", "a") {
		t.Error("d is not on the cycle")
	}
	if Default().InCycle("api-gateway", "postgres") {
		t.Error("default topology is acyclic")
	}
}

func TestNewIgnoresDegenerateEdges(t *testing.T) {
	g := New(map[string][]string{
		"a": {"a", "", "b"},
		"":  {"c"},
	})
	if g.DependsOn("a", "a") {
		t.Error("self edge should be ignored")
	}
	if got := g.Dependencies("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Dependencies = %v, want [b]", got)
	}
}
