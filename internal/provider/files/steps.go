package files

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/pathutil"
)

// FileSpec describes a rendered file.
type FileSpec struct {
	ID      compiler.StepID
	Path    string
	Content []byte
	Mode    os.FileMode
	Owner   config.TargetUser
	Deps    []compiler.StepID
}

// FileStep writes rendered content to a path.
type FileStep struct {
	spec FileSpec
	hash string
	fs   ports.FileSystem
}

// NewFileStep creates a new FileStep.
func NewFileStep(spec FileSpec, fs ports.FileSystem) *FileStep {
	return &FileStep{
		spec: spec,
		hash: ports.HashBytes(spec.Content),
		fs:   fs,
	}
}

// ID returns the step identifier.
func (s *FileStep) ID() compiler.StepID {
	return s.spec.ID
}

// Description returns a human-readable summary.
func (s *FileStep) Description() string {
	return fmt.Sprintf("write %s", s.spec.Path)
}

// DependsOn returns the step dependencies.
func (s *FileStep) DependsOn() []compiler.StepID {
	return s.spec.Deps
}

// Retryable is false.
func (s *FileStep) Retryable() bool {
	return false
}

// ParallelSafe is true; each step owns a distinct path.
func (s *FileStep) ParallelSafe() bool {
	return true
}

// Path returns the resolved destination.
func (s *FileStep) Path() string {
	return s.spec.Path
}

// Content returns the rendered content.
func (s *FileStep) Content() []byte {
	return s.spec.Content
}

// Hash returns the SHA-256 of the rendered content.
func (s *FileStep) Hash() string {
	return s.hash
}

// Precondition reports whether the file already holds the rendered content.
func (s *FileStep) Precondition(_ compiler.RunContext) (bool, error) {
	return s.matches()
}

// Apply writes the content atomically and hands files under the user's home
// to the user.
func (s *FileStep) Apply(_ compiler.RunContext) error {
	path := s.spec.Path
	if err := pathutil.EnsureDir(s.fs, filepath.Dir(path), s.spec.Owner); err != nil {
		return compiler.Permanent(err)
	}
	if err := s.fs.WriteFile(path, s.spec.Content, s.spec.Mode); err != nil {
		return compiler.Permanent(fmt.Errorf("write %s: %w", path, err))
	}
	if !s.spec.Owner.IsZero() && pathutil.UnderHome(path, s.spec.Owner) {
		if err := s.fs.Chown(path, s.spec.Owner.UID, s.spec.Owner.GID); err != nil {
			return compiler.Permanent(fmt.Errorf("chown %s: %w", path, err))
		}
	}
	return nil
}

// Postcondition re-hashes the written file.
func (s *FileStep) Postcondition(_ compiler.RunContext) (bool, error) {
	return s.matches()
}

func (s *FileStep) matches() (bool, error) {
	if !s.fs.Exists(s.spec.Path) {
		return false, nil
	}
	hash, err := s.fs.FileHash(s.spec.Path)
	if err != nil {
		return false, fmt.Errorf("hash %s: %w", s.spec.Path, err)
	}
	return hash == s.hash, nil
}

// Plan returns the diff for this step, with a line diff as detail.
func (s *FileStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	desired := string(s.spec.Content)
	if !s.fs.Exists(s.spec.Path) {
		return compiler.NewDiff(compiler.DiffTypeAdd, "file", s.spec.Path, "", "").
			WithDetail(ContentDiff("", desired)), nil
	}

	current, err := s.fs.ReadFile(s.spec.Path)
	if err != nil {
		return compiler.Diff{}, fmt.Errorf("read %s: %w", s.spec.Path, err)
	}
	if ports.HashBytes(current) == s.hash {
		return compiler.NewDiff(compiler.DiffTypeNone, "file", s.spec.Path, "", ""), nil
	}
	return compiler.NewDiff(compiler.DiffTypeModify, "file", s.spec.Path, "", "").
		WithDetail(ContentDiff(string(current), desired)), nil
}

// Ensure FileStep implements the step interfaces.
var (
	_ compiler.Step         = (*FileStep)(nil)
	_ compiler.ParallelStep = (*FileStep)(nil)
)
