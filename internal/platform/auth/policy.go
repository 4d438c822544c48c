package auth

import "strings"

// AllowPolicy decides whether a verified email may hold an account at all.
// Both sets are fixed at startup and read-only afterwards. With neither set
// configured the policy is open.
type AllowPolicy struct {
	emails  map[string]struct{}
	domains map[string]struct{}
}

// NewAllowPolicy builds a policy from exact-email and domain allow-lists.
// Entries are normalized to lower case.
func NewAllowPolicy(emails, domains []string) *AllowPolicy {
	p := &AllowPolicy{
		emails:  make(map[string]struct{}, len(emails)),
		domains: make(map[string]struct{}, len(domains)),
	}
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			p.emails[e] = struct{}{}
		}
	}
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(d, "@"))); d != "" {
			p.domains[d] = struct{}{}
		}
	}
	return p
}

// Allow reports whether the email may hold an account. Matching is
// case-insensitive; a domain matches only the exact part after the final @,
// never a substring.
func (p *AllowPolicy) Allow(email string) bool {
	if len(p.emails) == 0 && len(p.domains) == 0 {
		return true
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := p.emails[email]; ok {
		return true
	}

	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	_, ok := p.domains[email[at+1:]]
	return ok
}
