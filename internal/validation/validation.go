// Package validation checks manifest values before they reach an external
// command, so a value can never be interpreted as an option or a second command.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput         = errors.New("input cannot be empty")
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrInvalidUnitName    = errors.New("invalid systemd unit name")
	ErrInvalidGroupName   = errors.New("invalid group name")
	ErrInvalidUserName    = errors.New("invalid user name")
	ErrInvalidHostname    = errors.New("invalid hostname")
	ErrInvalidSSID        = errors.New("invalid Wi-Fi SSID")
	ErrPathTraversal      = errors.New("path traversal detected")
	ErrInvalidPath        = errors.New("invalid path")
	ErrCommandInjection   = errors.New("potential command injection detected")
)

var (
	// packageNameRegex matches pacman package names.
	// Examples: "git", "base-devel", "python3.11", "gtk+3", "ttf-jetbrains-mono-nerd"
	packageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9@_+][a-zA-Z0-9@._+-]*$`)

	// unitNameRegex matches systemd unit names with a type suffix.
	// Examples: "docker.service", "getty@tty1.service", "fstrim.timer"
	unitNameRegex = regexp.MustCompile(`^[a-zA-Z0-9:_.\\-]+(@[a-zA-Z0-9:_.\\-]*)?\.(service|socket|timer|path|target|mount)$`)

	// accountNameRegex matches shadow-utils user and group names.
	accountNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]*\$?$`)

	// hostnameRegex matches DNS names and IPv4 literals.
	hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*$`)

	// shellMetaChars contains shell metacharacters that could enable injection
	shellMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\"}
)

// ValidatePackageName validates a pacman package name.
// A leading hyphen is rejected so the name is never parsed as an option.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: name too long (max 256 characters)", ErrInvalidPackageName)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}
	return nil
}

// ValidateUnitName validates a systemd unit name.
func ValidateUnitName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: name too long (max 255 characters)", ErrInvalidUnitName)
	}
	if strings.HasPrefix(name, "-") || !unitNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q must be a unit name with a type suffix such as .service", ErrInvalidUnitName, name)
	}
	return nil
}

// ValidateGroupName validates a Unix group name.
func ValidateGroupName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 32 || !accountNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidGroupName, name)
	}
	return nil
}

// ValidateUserName validates a Unix user name.
func ValidateUserName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 32 || !accountNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidUserName, name)
	}
	return nil
}

// ValidateHostname validates a host to resolve.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return ErrEmptyInput
	}
	if len(hostname) > 253 {
		return fmt.Errorf("%w: hostname too long", ErrInvalidHostname)
	}
	if !hostnameRegex.MatchString(hostname) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidHostname, hostname)
	}
	return nil
}

// ValidateSSID validates a Wi-Fi network name passed to nmcli.
func ValidateSSID(ssid string) error {
	if ssid == "" {
		return ErrEmptyInput
	}
	if len(ssid) > 32 {
		return fmt.Errorf("%w: SSID longer than 32 bytes", ErrInvalidSSID)
	}
	if strings.HasPrefix(ssid, "-") || strings.ContainsAny(ssid, "\x00\n\r") {
		return fmt.Errorf("%w: %q", ErrInvalidSSID, ssid)
	}
	return nil
}

// ValidatePath validates a file path and prevents path traversal.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}
	return nil
}

// ValidateArgument rejects values that could start a second command if a
// collaborator ever passed them through a shell.
func ValidateArgument(arg string) error {
	if containsShellMeta(arg) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, arg)
	}
	return nil
}

// containsShellMeta checks if a string contains shell metacharacters.
func containsShellMeta(s string) bool {
	for _, char := range shellMetaChars {
		if strings.Contains(s, char) {
			return true
		}
	}
	return false
}

// containsPathTraversal checks for common path traversal patterns.
func containsPathTraversal(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return true
		}
	}
	return strings.Contains(path, "%2e%2e") || strings.Contains(path, "%2E%2E")
}
