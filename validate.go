// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

// validate checks required arguments and mutex groups against the
// merged values. Every violation is collected into a single UsageError.
func (p *Parser) validate(args *Args) error {
	var missing []string
	var groups []string
	handled := make(map[int]bool)
	for _, a := range p.args {
		if a.group != standalone {
			if handled[a.group] {
				continue
			}
			handled[a.group] = true
			if msg := p.groups[a.group].violation(args); msg != "" {
				groups = append(groups, msg)
			}
			continue
		}
		if a.Required && !args.IsSet(a.Dest) {
			missing = append(missing, a.Dest)
		}
	}

	if len(missing) == 0 && len(groups) == 0 {
		return nil
	}
	return UsageError{
		Missing: missing,
		Groups:  groups,
	}
}
