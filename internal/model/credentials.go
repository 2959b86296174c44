package model

import (
	"fmt"
	"strings"
)

// Credentials are the CRM login data.
type Credentials struct {
	User     string
	Password string
	URL      string
}

// Validate checks all the credential fields are present.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.User) == "" {
		missing = append(missing, "Usuário")
	}
	if strings.TrimSpace(c.Password) == "" {
		missing = append(missing, "Senha")
	}
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credential fields %s: %w", strings.Join(missing, ", "), ErrNotValid)
	}
	return nil
}
