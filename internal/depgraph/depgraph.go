// Package depgraph models the static service dependency topology used to
// decide whether two incidents on different services can be part of the
// same failure cascade.
package depgraph

import (
	"sort"
)

// Graph is a directed dependency graph. An edge a -> b means service a
// depends on (calls into) service b, so a failure in b can cascade to a.
type Graph struct {
	deps       map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

// New builds a graph from an adjacency list of service -> dependencies
func New(adjacency map[string][]string) *Graph {
	g := &Graph{
		deps:       make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
	for svc, targets := range adjacency {
		for _, target := range targets {
			if svc == "" || target == "" || svc == target {
				continue
			}
			g.addEdge(svc, target)
		}
	}
	return g
}

// Default returns the builtin topology used when the policy file does not
// configure one: an edge gateway fronting three domain services, each
// backed by shared data stores.
func Default() *Graph {
	return New(map[string][]string{
		"api-gateway":     {"user-service", "order-service", "product-service"},
		"user-service":    {"postgres", "redis"},
		"order-service":   {"postgres", "redis", "payment-service"},
		"product-service": {"postgres", "redis"},
		"payment-service": {"postgres"},
	})
}

func (g *Graph) addEdge(from, to string) {
	if g.deps[from] == nil {
		g.deps[from] = make(map[string]struct{})
	}
	g.deps[from][to] = struct{}{}
	if g.dependents[to] == nil {
		g.dependents[to] = make(map[string]struct{})
	}
	g.dependents[to][from] = struct{}{}
}

// DependsOn reports whether a has a direct dependency edge to b
func (g *Graph) DependsOn(a, b string) bool {
	_, ok := g.deps[a][b]
	return ok
}

// Linked reports whether a direct dependency edge exists between a and b
// in either direction
func (g *Graph) Linked(a, b string) bool {
	return g.DependsOn(a, b) || g.DependsOn(b, a)
}

// Dependencies returns the sorted direct dependencies of a service
func (g *Graph) Dependencies(service string) []string {
	return sortedKeys(g.deps[service])
}

// Dependents returns the sorted services that directly depend on service
func (g *Graph) Dependents(service string) []string {
	return sortedKeys(g.dependents[service])
}

// Services returns all services mentioned in the graph, sorted
func (g *Graph) Services() []string {
	seen := make(map[string]struct{})
	for svc := range g.deps {
		seen[svc] = struct{}{}
	}
	for svc := range g.dependents {
		seen[svc] = struct{}{}
	}
	return sortedKeys(seen)
}

// Reachable reports whether to is reachable from from by following
// dependency edges
func (g *Graph) Reachable(from, to string) bool {
	if from == to {
		return false
	}
	visited := make(map[string]struct{})
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		for next := range g.deps[cur] {
			if next == to {
				return true
			}
			stack = append(stack, next)
		}
	}
	return false
}

// InCycle reports whether a and b lie on a dependency cycle, i.e. each is
// reachable from the other. Cascade direction is undefined in that case.
func (g *Graph) InCycle(a, b string) bool {
	return g.Reachable(a, b) && g.Reachable(b, a)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
