package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// Executor defaults.
const (
	DefaultRetries  = 3
	DefaultBackoff  = 2 * time.Second
	DefaultParallel = 1
	DefaultEnvFile  = "archstrap.env"

	// MaxRetries bounds --retries.
	MaxRetries = 10
	// MaxBackoff caps any single retry wait, including --backoff itself.
	MaxBackoff = 60 * time.Second
)

// OutputFormat selects how the run report is rendered.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Options is the per-run configuration assembled by the CLI.
// It is the only place process environment values enter the program.
type Options struct {
	ManifestPath string
	EnvFile      string
	Env          map[string]string
	User         string
	SudoUser     string
	Parallel     int
	FailFast     bool
	Retries      int
	Backoff      time.Duration
	Output       OutputFormat
	NoProbe      bool
	Verbose      bool
}

// DefaultOptions returns options with executor defaults applied.
func DefaultOptions() Options {
	return Options{
		EnvFile:  DefaultEnvFile,
		Env:      map[string]string{},
		Parallel: DefaultParallel,
		Retries:  DefaultRetries,
		Backoff:  DefaultBackoff,
		Output:   OutputText,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	errs := NewErrorList()
	if o.Parallel < 1 {
		errs.Add(NewUserError(ErrCodeInvalidOption, fmt.Sprintf("--parallel must be at least 1, got %d", o.Parallel)))
	}
	if o.Retries < 1 || o.Retries > MaxRetries {
		errs.Add(NewUserError(ErrCodeInvalidOption,
			fmt.Sprintf("--retries must be between 1 and %d, got %d", MaxRetries, o.Retries)))
	}
	if o.Backoff < 0 || o.Backoff > MaxBackoff {
		errs.Add(NewUserError(ErrCodeInvalidOption,
			fmt.Sprintf("--backoff must be between 0s and %s, got %s", MaxBackoff, o.Backoff)))
	}
	switch o.Output {
	case OutputText, OutputJSON:
	default:
		errs.Add(NewUserError(ErrCodeInvalidOption, fmt.Sprintf("unknown output format %q", o.Output)).
			WithSuggestion("Use 'text' or 'json'."))
	}
	return errs.AsError()
}

// EnvFromEnviron converts KEY=VALUE pairs into a map.
func EnvFromEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// LoadEnv merges an env file underneath the process environment.
// Values already present in environ win. A missing file is an error only
// when required is set.
func LoadEnv(fs ports.FileSystem, environ []string, path string, required bool) (map[string]string, error) {
	env := EnvFromEnviron(environ)
	if path == "" {
		return env, nil
	}

	if !fs.Exists(path) {
		if required {
			return nil, NewUserError(ErrCodeEnvFile, fmt.Sprintf("env file not found: %s", path)).
				WithContext(path)
		}
		return env, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, NewUserError(ErrCodeEnvFile, "failed to read env file").
			WithContext(path).
			WithUnderlying(err)
	}

	fileEnv, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, NewUserError(ErrCodeEnvFile, "failed to parse env file").
			WithContext(path).
			WithSuggestion("Use KEY=VALUE lines, for example ENABLE_DOCKER=1.").
			WithUnderlying(err)
	}

	for key, value := range fileEnv {
		if _, set := env[key]; !set {
			env[key] = value
		}
	}
	return env, nil
}
