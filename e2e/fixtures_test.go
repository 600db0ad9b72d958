//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"path/filepath"
)

const records = `[
  {"title": "Authentication", "permalink": "https://docs.example.com/authentication", "content": "Authenticate with an API key.", "type": "text", "breadcrumbs": ["Guides", "Authentication"]},
  {"title": "Authorization", "permalink": "https://docs.example.com/authorization", "content": "Grant access with OAuth.", "type": "text", "breadcrumbs": ["Guides", "Authorization"]},
  {"title": "Create payment", "permalink": "https://docs.example.com/payments/create", "content": "Creates a payment.", "type": "text", "breadcrumbs": ["Payments", "Create payment"]}
]
`

// CreateTestWorkspace writes a records source and a config that uses it
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	dir, err := os.MkdirTemp("", "docsearch-e2e-*")
	if err != nil {
		return "", err
	}
	tf.workspace = dir

	recordsPath := filepath.Join(dir, "records.json")
	if err := os.WriteFile(recordsPath, []byte(records), 0644); err != nil {
		return "", err
	}

	cfg := fmt.Sprintf(`debounce = "50ms"
log_file = %q
log_level = "debug"

[[sources]]
id = "docs"
type = "records"
paths = [%q]
`, filepath.Join(dir, "docsearch.log"), recordsPath)
	if err := os.WriteFile(tf.ConfigPath(), []byte(cfg), 0644); err != nil {
		return "", err
	}
	return dir, nil
}

func (tf *TUITestFramework) ConfigPath() string {
	return filepath.Join(tf.workspace, "config.toml")
}
