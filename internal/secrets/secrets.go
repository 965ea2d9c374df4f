// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads provider API keys from a directory of plain-text
// files. Each file is one secret: the filename is the key name and the
// trimmed file contents are the value. Adapter configuration refers to a
// secret by filename (api_key_secret: serpapi.key).
package secrets

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultDir is where the CLI looks for secrets.
const DefaultDir = ".secrets/"

// ErrMissing is returned by Require when a named secret is absent.
var ErrMissing = eris.New("secret not found")

// Secrets maps secret names to values.
type Secrets map[string]string

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty set. Unreadable files are logged and skipped.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, eris.Wrapf(err, "reading secrets directory %s", dir)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			zap.L().Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Require returns the named secret. An empty name yields "" and no error,
// for adapters that need no key.
func (s Secrets) Require(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	v, ok := s[name]
	if !ok {
		return "", eris.Wrapf(ErrMissing, "%s (expected a file named %s in %s)", name, name, DefaultDir)
	}
	return v, nil
}

// Names returns the loaded secret names, sorted. Values are never logged.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
