// Package testutils holds fakes and helpers shared by the package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"

	"github.com/nfrund/authtest/internal/config"
	"github.com/nfrund/authtest/internal/logging"
)

// ConfigForTests loads .env.test from the project root into the test's
// environment and returns the resulting configuration. Variables already set
// with t.Setenv before the call win over the file.
func ConfigForTests(t *testing.T) *config.Config {
	t.Helper()

	path, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			break
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}

	env, err := godotenv.Read(filepath.Join(path, ".env.test"))
	if err != nil {
		t.Fatalf("failed to load .env.test file: %v", err)
	}
	for key, value := range env {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		t.Setenv(key, value)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("invalid test configuration: %v", err)
	}
	logging.New(cfg.LogFormat, cfg.LogLevel)
	return cfg
}
