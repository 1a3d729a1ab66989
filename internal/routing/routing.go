package routing

import (
	"fmt"
	"regexp"
	"strings"
)

// Table maps agent identifiers to destination table names. It is built
// once at startup and never mutated afterwards.
type Table struct {
	routes      map[string]string
	defaultDest string
}

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Parse builds a Table from a config string of the form
// "agentA=calls_agent_a,agentB=calls_agent_b" plus a default destination
// used when no agent matches.
func Parse(spec string, defaultDest string) (Table, error) {
	if !tableNamePattern.MatchString(defaultDest) {
		return Table{}, fmt.Errorf("invalid default destination %q", defaultDest)
	}
	routes := map[string]string{}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		agent, dest, ok := strings.Cut(pair, "=")
		agent = strings.TrimSpace(agent)
		dest = strings.TrimSpace(dest)
		if !ok || agent == "" || dest == "" {
			return Table{}, fmt.Errorf("invalid agent route %q", pair)
		}
		if !tableNamePattern.MatchString(dest) {
			return Table{}, fmt.Errorf("invalid destination table %q for agent %q", dest, agent)
		}
		routes[agent] = dest
	}
	return Table{routes: routes, defaultDest: defaultDest}, nil
}

// Resolve returns the destination for an agent. Unknown or empty agents
// fall back to the default destination; the second return reports
// whether the fallback was used.
func (t Table) Resolve(agentID string) (string, bool) {
	if dest, ok := t.routes[agentID]; ok {
		return dest, false
	}
	return t.defaultDest, true
}

func (t Table) Default() string {
	return t.defaultDest
}

// Destinations lists every configured table, default included, without
// duplicates.
func (t Table) Destinations() []string {
	seen := map[string]struct{}{t.defaultDest: {}}
	out := []string{t.defaultDest}
	for _, dest := range t.routes {
		if _, ok := seen[dest]; ok {
			continue
		}
		seen[dest] = struct{}{}
		out = append(out, dest)
	}
	return out
}

// Agents returns a copy of the configured agent to destination pairs.
func (t Table) Agents() map[string]string {
	out := make(map[string]string, len(t.routes))
	for k, v := range t.routes {
		out[k] = v
	}
	return out
}
