// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

import (
	"fmt"
	"strings"
)

// MutexGroup is a set of arguments of which at most one may be set.
// A required MutexGroup needs exactly one of them to be set.
type MutexGroup struct {
	p        *Parser
	id       int
	required bool
	members  []*argument
}

// BeginMutexGroup starts a new MutexGroup. Arguments are added
// to the group through the returned handle.
func (p *Parser) BeginMutexGroup(required bool) *MutexGroup {
	g := &MutexGroup{
		p:        p,
		id:       len(p.groups),
		required: required,
	}
	p.groups = append(p.groups, g)
	return g
}

// AddArgument registers spec with the parser as a member of g.
// The Required field of spec is ignored, requirements are
// checked for the group as a whole.
func (g *MutexGroup) AddArgument(spec ArgumentSpec) error {
	a, err := g.p.register(spec, g.id)
	if err != nil {
		return err
	}
	g.members = append(g.members, a)
	return nil
}

// Members returns the destination names of the group members.
func (g *MutexGroup) Members() []string {
	dests := make([]string, len(g.members))
	for i, m := range g.members {
		dests[i] = m.Dest
	}
	return dests
}

// Required reports whether exactly one member must be set.
func (g *MutexGroup) Required() bool {
	return g.required
}

// violation returns a description of how args break the
// group constraint or "" if they satisfy it.
func (g *MutexGroup) violation(args *Args) string {
	if !g.required {
		return ""
	}

	var set []string
	for _, m := range g.members {
		if args.IsSet(m.Dest) {
			set = append(set, m.Dest)
		}
	}
	switch len(set) {
	case 0:
		return fmt.Sprintf("one of the following fields must be set: %s", strings.Join(g.Members(), ", "))
	case 1:
		return ""
	default:
		return fmt.Sprintf("the following fields are not allowed to be set together: %s", strings.Join(set, ", "))
	}
}
