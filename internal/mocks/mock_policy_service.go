package mocks

import "github.com/you/accountsvc/domain"

// MockPolicyService implements domain.PolicyService interface for testing
type MockPolicyService struct {
	AddPolicyFunc       func(subject, resource, action string) error
	RemovePolicyFunc    func(subject, resource, action string) error
	CheckPermissionFunc func(subject, resource, action string) (bool, error)
	GetPoliciesFunc     func() ([][]string, error)
}

// NewMockPolicyService creates a new MockPolicyService with default behaviors
func NewMockPolicyService() *MockPolicyService {
	return &MockPolicyService{}
}

// AddPolicy adds a new authorization policy
func (m *MockPolicyService) AddPolicy(subject, resource, action string) error {
	if m.AddPolicyFunc != nil {
		return m.AddPolicyFunc(subject, resource, action)
	}
	return nil
}

// RemovePolicy removes an authorization policy
func (m *MockPolicyService) RemovePolicy(subject, resource, action string) error {
	if m.RemovePolicyFunc != nil {
		return m.RemovePolicyFunc(subject, resource, action)
	}
	return nil
}

// CheckPermission checks if a subject has permission for a resource and action
func (m *MockPolicyService) CheckPermission(subject, resource, action string) (bool, error) {
	if m.CheckPermissionFunc != nil {
		return m.CheckPermissionFunc(subject, resource, action)
	}
	// Default behavior: only admins are allowed
	return subject == domain.RoleAdmin.PolicySubject(), nil
}

// GetPolicies returns all current policies
func (m *MockPolicyService) GetPolicies() ([][]string, error) {
	if m.GetPoliciesFunc != nil {
		return m.GetPoliciesFunc()
	}
	return [][]string{
		{"role_admin", "/admin/*", "(GET|POST|DELETE)"},
		{"role_customer", "/auth/me", "GET"},
	}, nil
}

// Compile-time interface compliance verification
var _ domain.PolicyService = (*MockPolicyService)(nil)
