package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gavet/crmdialer/internal/model"
)

// CRMConfigYAMLRepository loads the CRM automation configuration from YAML files.
type CRMConfigYAMLRepository struct {
	fs fs.FS
}

// NewCRMConfigYAMLRepository creates a new YAML CRM config repository.
func NewCRMConfigYAMLRepository(filesystem fs.FS) *CRMConfigYAMLRepository {
	return &CRMConfigYAMLRepository{fs: filesystem}
}

// GetCRMConfig loads a CRM configuration from a YAML file. Missing values are filled with the
// defaults from model.DefaultCRMConfig.
func (r *CRMConfigYAMLRepository) GetCRMConfig(ctx context.Context, path string) (model.CRMConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.CRMConfig{}, fmt.Errorf("reading crm config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.CRMConfig{}, ctx.Err()
	}

	var cfg CRMConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.CRMConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return model.CRMConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg.toModel(), nil
}

// CRMConfig represents the YAML structure for the CRM configuration.
type CRMConfig struct {
	Selectors   SelectorsConfig `yaml:"selectors"`
	Timeouts    TimeoutsConfig  `yaml:"timeouts"`
	ScaleFactor float64         `yaml:"scale_factor"`
}

// SelectorsConfig represents the YAML structure for the CRM XPath selectors.
type SelectorsConfig struct {
	LoginUser       string `yaml:"login_user"`
	LoginPassword   string `yaml:"login_password"`
	LoginSubmit     string `yaml:"login_submit"`
	ContactSearch   string `yaml:"contact_search"`
	ResultCode      string `yaml:"result_code"`
	ResultPhone     string `yaml:"result_phone"`
	DialerButton    string `yaml:"dialer_button"`
	PhoneInput      string `yaml:"phone_input"`
	DialAction      string `yaml:"dial_action"`
	InCallIndicator string `yaml:"in_call_indicator"`
}

// TimeoutsConfig represents the YAML structure for the CRM waits, in Go duration format.
type TimeoutsConfig struct {
	Element time.Duration `yaml:"element"`
	Landing time.Duration `yaml:"landing"`
	Search  time.Duration `yaml:"search"`
	Call    time.Duration `yaml:"call"`
}

func (c CRMConfig) validate() error {
	if c.ScaleFactor < 0 || c.ScaleFactor > 4 {
		return fmt.Errorf("scale_factor must be between 0 and 4, got: %v", c.ScaleFactor)
	}

	timeouts := map[string]time.Duration{
		"element": c.Timeouts.Element,
		"landing": c.Timeouts.Landing,
		"search":  c.Timeouts.Search,
		"call":    c.Timeouts.Call,
	}
	for name, d := range timeouts {
		if d < 0 {
			return fmt.Errorf("timeouts: %s must not be negative, got: %s", name, d)
		}
	}

	return nil
}

func (c CRMConfig) toModel() model.CRMConfig {
	cfg := model.DefaultCRMConfig()

	s := &cfg.Selectors
	setString(&s.LoginUser, c.Selectors.LoginUser)
	setString(&s.LoginPassword, c.Selectors.LoginPassword)
	setString(&s.LoginSubmit, c.Selectors.LoginSubmit)
	setString(&s.ContactSearch, c.Selectors.ContactSearch)
	setString(&s.ResultCode, c.Selectors.ResultCode)
	setString(&s.ResultPhone, c.Selectors.ResultPhone)
	setString(&s.DialerButton, c.Selectors.DialerButton)
	setString(&s.PhoneInput, c.Selectors.PhoneInput)
	setString(&s.DialAction, c.Selectors.DialAction)
	setString(&s.InCallIndicator, c.Selectors.InCallIndicator)

	t := &cfg.Timeouts
	setDuration(&t.Element, c.Timeouts.Element)
	setDuration(&t.Landing, c.Timeouts.Landing)
	setDuration(&t.Search, c.Timeouts.Search)
	setDuration(&t.Call, c.Timeouts.Call)

	if c.ScaleFactor > 0 {
		cfg.ScaleFactor = c.ScaleFactor
	}

	return cfg
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
