package services

import (
	"github.com/casbin/casbin/v2"
	"github.com/samber/oops"

	"github.com/you/accountsvc/domain"
)

// CasbinEnforcerWrapper wraps the real Casbin enforcer to implement our interface
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper creates a wrapper for the real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) RemovePolicy(params ...interface{}) (bool, error) {
	return w.enforcer.RemovePolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

func (w *CasbinEnforcerWrapper) SavePolicy() error {
	return w.enforcer.SavePolicy()
}

// PolicyServiceImpl implements domain.PolicyService using Casbin
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer *casbin.Enforcer) domain.PolicyService {
	return &PolicyServiceImpl{enforcer: NewCasbinEnforcerWrapper(enforcer)}
}

// NewPolicyServiceWithEnforcer creates a new policy service with a CasbinEnforcer interface (for testing)
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer) domain.PolicyService {
	return &PolicyServiceImpl{enforcer: enforcer}
}

// AddPolicy implements domain.PolicyService
func (p *PolicyServiceImpl) AddPolicy(subject, resource, action string) error {
	if subject == "" || resource == "" || action == "" {
		return domain.ErrInvalidInput
	}
	if _, err := p.enforcer.AddPolicy(subject, resource, action); err != nil {
		return oops.Code("POLICY_ADD_FAILED").With("subject", subject).Wrap(err)
	}
	return p.save()
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(subject, resource, action string) error {
	if subject == "" || resource == "" || action == "" {
		return domain.ErrInvalidInput
	}
	if _, err := p.enforcer.RemovePolicy(subject, resource, action); err != nil {
		return oops.Code("POLICY_REMOVE_FAILED").With("subject", subject).Wrap(err)
	}
	return p.save()
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(subject, resource, action string) (bool, error) {
	allowed, err := p.enforcer.Enforce(subject, resource, action)
	if err != nil {
		return false, oops.Code("POLICY_ENFORCE_FAILED").Wrap(err)
	}
	return allowed, nil
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() ([][]string, error) {
	policies, err := p.enforcer.GetPolicy()
	if err != nil {
		return nil, oops.Code("POLICY_LIST_FAILED").Wrap(err)
	}
	return policies, nil
}

func (p *PolicyServiceImpl) save() error {
	if err := p.enforcer.SavePolicy(); err != nil {
		return oops.Code("POLICY_SAVE_FAILED").Wrap(err)
	}
	return nil
}
