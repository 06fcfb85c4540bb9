//go:build e2e

// Package framework provides the E2E test infrastructure for archstrap.
package framework

import (
	"bytes"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"sync"
	"testing"
)

// Environment represents an isolated test environment for E2E tests.
type Environment struct {
	t          *testing.T
	rootDir    string
	workDir    string
	binaryPath string
	homeDir    string
	user       string
	env        map[string]string
}

var (
	buildOnce   sync.Once
	binaryPath  string
	buildErr    error
	projectRoot string
)

// findProjectRoot locates the project root directory.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// buildBinary builds the archstrap binary once per test run.
func buildBinary(t *testing.T) (string, error) {
	buildOnce.Do(func() {
		projectRoot, buildErr = findProjectRoot()
		if buildErr != nil {
			return
		}

		binaryPath = filepath.Join(os.TempDir(), "archstrap-e2e-test")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/archstrap")
		cmd.Dir = projectRoot

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			buildErr = err
			t.Logf("Build stderr: %s", stderr.String())
			return
		}
	})

	return binaryPath, buildErr
}

// NewEnvironment creates a new isolated test environment. Commands run as
// the current account, which is also passed as the target user.
func NewEnvironment(t *testing.T) *Environment {
	t.Helper()

	binary, err := buildBinary(t)
	if err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}

	current, err := user.Current()
	if err != nil {
		t.Fatalf("Failed to look up the current user: %v", err)
	}

	rootDir := t.TempDir()
	workDir := filepath.Join(rootDir, "work")
	homeDir := filepath.Join(rootDir, "home")

	for _, dir := range []string{workDir, homeDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	return &Environment{
		t:          t,
		rootDir:    rootDir,
		workDir:    workDir,
		binaryPath: binary,
		homeDir:    homeDir,
		user:       current.Username,
		env:        make(map[string]string),
	}
}

// WorkDir returns the directory commands run in.
func (e *Environment) WorkDir() string {
	return e.workDir
}

// HomeDir returns the path to the simulated home directory.
func (e *Environment) HomeDir() string {
	return e.homeDir
}

// RootDir returns the path to the test root directory.
func (e *Environment) RootDir() string {
	return e.rootDir
}

// BinaryPath returns the path to the built binary.
func (e *Environment) BinaryPath() string {
	return e.binaryPath
}

// User returns the target user passed to every command.
func (e *Environment) User() string {
	return e.user
}

// SetEnv sets a variable in the environment of every command.
func (e *Environment) SetEnv(key, value string) {
	e.env[key] = value
}

// WriteFile writes content to a file in the test environment.
func (e *Environment) WriteFile(path, content string) string {
	e.t.Helper()

	fullPath := filepath.Join(e.rootDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		e.t.Fatalf("Failed to create directory for %s: %v", fullPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		e.t.Fatalf("Failed to write file %s: %v", fullPath, err)
	}
	return fullPath
}

// WriteManifest writes archstrap.yaml into the working directory.
func (e *Environment) WriteManifest(content string) string {
	e.t.Helper()
	return e.WriteFile(filepath.Join("work", "archstrap.yaml"), content)
}

// WriteEnvFile writes archstrap.env into the working directory.
func (e *Environment) WriteEnvFile(content string) string {
	e.t.Helper()
	return e.WriteFile(filepath.Join("work", "archstrap.env"), content)
}

// FileExists checks if a file exists in the test environment.
func (e *Environment) FileExists(path string) bool {
	_, err := os.Stat(filepath.Join(e.rootDir, path))
	return err == nil
}
