package auth

import "strings"

// RoleAdmin guards catalog authoring and attempt inspection.
const RoleAdmin = "admin"

// Policy decides whether an identity holds a role.
type Policy interface {
	HasRole(id Identity, role string) bool
}

// ConfigPolicy grants a role when the token carries it, or when the identity's email is listed
// for that role in configuration.
type ConfigPolicy struct {
	emails map[string]map[string]struct{}
}

// NewConfigPolicy builds a policy from role -> email allow-lists.
func NewConfigPolicy(grants map[string][]string) *ConfigPolicy {
	p := &ConfigPolicy{emails: make(map[string]map[string]struct{}, len(grants))}
	for role, emails := range grants {
		set := make(map[string]struct{}, len(emails))
		for _, email := range emails {
			set[normalizeEmail(email)] = struct{}{}
		}
		p.emails[role] = set
	}
	return p
}

func (p *ConfigPolicy) HasRole(id Identity, role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	if id.Email == "" {
		return false
	}
	_, ok := p.emails[role][normalizeEmail(id.Email)]
	return ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
