package io

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/gavet/crmdialer/internal/model"
)

// CredentialsTemplate is the content of a new empty credentials file.
const CredentialsTemplate = "Usuário=\nSenha=\nURL=\n"

// CredentialsFileRepository loads the CRM credentials from `key=value` files.
type CredentialsFileRepository struct {
	fs fs.FS
}

// NewCredentialsFileRepository creates a new credentials file repository.
func NewCredentialsFileRepository(filesystem fs.FS) *CredentialsFileRepository {
	return &CredentialsFileRepository{fs: filesystem}
}

// GetCredentials loads and validates the credentials in path. Keys are case-insensitive.
func (r *CredentialsFileRepository) GetCredentials(ctx context.Context, path string) (model.Credentials, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("reading credentials file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Credentials{}, ctx.Err()
	}

	values, err := parseKeyValues(data)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("parsing credentials: %w", err)
	}

	creds := model.Credentials{
		User:     firstValue(values, "usuário", "usuario", "user"),
		Password: firstValue(values, "senha", "password"),
		URL:      values["url"],
	}
	if err := creds.Validate(); err != nil {
		return model.Credentials{}, fmt.Errorf("invalid credentials in %s: %w", path, err)
	}

	return creds, nil
}

func parseKeyValues(data []byte) (map[string]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	values := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '=': %w", n, model.ErrNotValid)
		}
		values[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return values, nil
}

func firstValue(values map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := values[k]; v != "" {
			return v
		}
	}
	return ""
}
