package auth

import (
	"os"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// CasbinService owns the enforcer backed by the gorm adapter.
type CasbinService struct{ E *casbin.Enforcer }

// NewCasbinService loads the model file and the persisted policies.
func NewCasbinService(db *gorm.DB, modelPath string) (*CasbinService, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, oops.Code("CASBIN_ADAPTER_FAILED").Wrap(err)
	}
	e, err := casbin.NewEnforcer(modelPath, adp)
	if err != nil {
		return nil, oops.Code("CASBIN_ENFORCER_FAILED").With("model", modelPath).Wrap(err)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, oops.Code("CASBIN_LOAD_FAILED").Wrap(err)
	}
	return &CasbinService{E: e}, nil
}

// PolicyRule is one p-line of the default policy file.
type PolicyRule struct {
	Subject  string `yaml:"subject"`
	Resource string `yaml:"resource"`
	Action   string `yaml:"action"`
}

// LoadPolicyRules reads the default policies from a yaml file.
func LoadPolicyRules(path string) ([]PolicyRule, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("POLICY_FILE_UNREADABLE").With("path", path).Wrap(err)
	}
	var file struct {
		Policies []PolicyRule `yaml:"policies"`
	}
	if err := yaml.Unmarshal(bytes, &file); err != nil {
		return nil, oops.Code("POLICY_FILE_INVALID").With("path", path).Wrap(err)
	}
	return file.Policies, nil
}

// SeedDefaults installs rules only when no policy exists yet.
func (s *CasbinService) SeedDefaults(rules []PolicyRule, log zerolog.Logger) error {
	existing, err := s.E.GetPolicy()
	if err != nil {
		return oops.Code("CASBIN_LOAD_FAILED").Wrap(err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, r := range rules {
		if _, err := s.E.AddPolicy(r.Subject, r.Resource, r.Action); err != nil {
			return oops.Code("CASBIN_SEED_FAILED").With("subject", r.Subject).Wrap(err)
		}
	}
	if err := s.E.SavePolicy(); err != nil {
		return oops.Code("CASBIN_SAVE_FAILED").Wrap(err)
	}
	log.Info().Int("rules", len(rules)).Msg("casbin: seeded default policies")
	return nil
}
