package mocks

import (
	"slices"
	"strings"

	"github.com/you/accountsvc/domain"
)

// MockCasbinEnforcer is an in-memory domain.CasbinEnforcer. Rules are
// {subject, resource, actions}; a resource ending in "/*" matches any
// sub-path and actions are "|"-separated.
type MockCasbinEnforcer struct {
	AddPolicyFunc    func(params ...interface{}) (bool, error)
	RemovePolicyFunc func(params ...interface{}) (bool, error)
	EnforceFunc      func(rvals ...interface{}) (bool, error)
	GetPolicyFunc    func() ([][]string, error)
	SavePolicyFunc   func() error
	LoadPolicyFunc   func() error

	rules [][]string
}

var _ domain.CasbinEnforcer = (*MockCasbinEnforcer)(nil)

// NewMockCasbinEnforcer starts with the default account policies.
func NewMockCasbinEnforcer() *MockCasbinEnforcer {
	m := &MockCasbinEnforcer{}
	m.SetPolicies([][]string{
		{"role_admin", "/admin/*", "GET|POST|DELETE"},
		{"role_admin", "/auth/me", "GET"},
		{"role_admin", "/auth/logout", "POST"},
		{"role_customer", "/auth/me", "GET"},
		{"role_customer", "/auth/logout", "POST"},
	})
	return m
}

func (m *MockCasbinEnforcer) AddPolicy(params ...interface{}) (bool, error) {
	if m.AddPolicyFunc != nil {
		return m.AddPolicyFunc(params...)
	}
	rule := toStrings(params)
	if len(rule) < 3 || m.indexOf(rule) >= 0 {
		return false, nil
	}
	m.rules = append(m.rules, rule)
	return true, nil
}

func (m *MockCasbinEnforcer) RemovePolicy(params ...interface{}) (bool, error) {
	if m.RemovePolicyFunc != nil {
		return m.RemovePolicyFunc(params...)
	}
	i := m.indexOf(toStrings(params))
	if i < 0 {
		return false, nil
	}
	m.rules = slices.Delete(m.rules, i, i+1)
	return true, nil
}

func (m *MockCasbinEnforcer) Enforce(rvals ...interface{}) (bool, error) {
	if m.EnforceFunc != nil {
		return m.EnforceFunc(rvals...)
	}
	req := toStrings(rvals)
	if len(req) < 3 {
		return false, nil
	}
	for _, rule := range m.rules {
		if rule[0] == req[0] && resourceMatches(rule[1], req[1]) &&
			slices.Contains(strings.Split(rule[2], "|"), req[2]) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCasbinEnforcer) GetPolicy() ([][]string, error) {
	if m.GetPolicyFunc != nil {
		return m.GetPolicyFunc()
	}
	return cloneRules(m.rules), nil
}

func (m *MockCasbinEnforcer) SavePolicy() error {
	if m.SavePolicyFunc != nil {
		return m.SavePolicyFunc()
	}
	return nil
}

func (m *MockCasbinEnforcer) LoadPolicy() error {
	if m.LoadPolicyFunc != nil {
		return m.LoadPolicyFunc()
	}
	return nil
}

// SetPolicies replaces the stored rules.
func (m *MockCasbinEnforcer) SetPolicies(rules [][]string) {
	m.rules = cloneRules(rules)
}

func (m *MockCasbinEnforcer) indexOf(rule []string) int {
	return slices.IndexFunc(m.rules, func(r []string) bool { return slices.Equal(r, rule) })
}

func toStrings(vals []interface{}) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		s, _ := v.(string)
		out = append(out, s)
	}
	return out
}

func cloneRules(rules [][]string) [][]string {
	out := make([][]string, len(rules))
	for i, r := range rules {
		out[i] = slices.Clone(r)
	}
	return out
}

func resourceMatches(pattern, resource string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok && strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(resource, prefix)
	}
	return pattern == resource
}
