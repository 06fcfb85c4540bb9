package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidGitURL is returned for clone URLs outside the accepted forms.
var ErrInvalidGitURL = errors.New("invalid git remote URL")

var (
	// gitRemoteURLPatterns for valid git remote URLs and local paths.
	gitRemoteURLPatterns = []*regexp.Regexp{
		// HTTPS URLs: https://github.com/user/repo.git or https://github.com/user/repo
		regexp.MustCompile(`^https://[a-zA-Z0-9.-]+(:[0-9]+)?/[a-zA-Z0-9_./~-]+(?:\.git)?$`),
		// SSH URLs: git@github.com:user/repo.git
		regexp.MustCompile(`^git@[a-zA-Z0-9.-]+:[a-zA-Z0-9_./~-]+(?:\.git)?$`),
		// SSH protocol: ssh://git@github.com/user/repo.git
		regexp.MustCompile(`^ssh://[a-zA-Z0-9@.-]+(:[0-9]+)?/[a-zA-Z0-9_./~-]+(?:\.git)?$`),
		// file:// URLs: file:///path/to/repo
		regexp.MustCompile(`^file:///[a-zA-Z0-9_./-]+$`),
		// Unix absolute paths: /path/to/repo
		regexp.MustCompile(`^/[a-zA-Z0-9_./-]+$`),
	}

	// Dangerous characters that should never appear in git inputs.
	// Null bytes are checked separately for a more specific error message.
	dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}
)

// ValidateGitRemoteURL validates a repository URL to clone.
func ValidateGitRemoteURL(url string) error {
	if url == "" {
		return ErrEmptyInput
	}
	if len(url) > 2048 {
		return fmt.Errorf("%w: too long (max 2048 characters)", ErrInvalidGitURL)
	}
	if strings.ContainsRune(url, '\x00') {
		return fmt.Errorf("%w: contains null byte", ErrInvalidGitURL)
	}
	for _, char := range dangerousChars {
		if strings.Contains(url, char) {
			return fmt.Errorf("%w: contains invalid character %q", ErrInvalidGitURL, char)
		}
	}
	for _, pattern := range gitRemoteURLPatterns {
		if pattern.MatchString(url) {
			return nil
		}
	}
	return fmt.Errorf("%w: must be an HTTPS or SSH URL, or a local path", ErrInvalidGitURL)
}

// ValidateGitPath validates a clone destination.
func ValidateGitPath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}
	if len(path) > 4096 {
		return fmt.Errorf("%w: too long (max 4096 characters)", ErrInvalidPath)
	}
	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("%w: contains null byte", ErrInvalidPath)
	}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("%w: contains invalid character %q", ErrInvalidPath, char)
		}
	}
	return ValidatePath(path)
}
