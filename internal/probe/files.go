package probe

import (
	"bufio"
	"bytes"
	"strings"

	"gopkg.in/ini.v1"
)

// PathExists reports whether path exists.
func (p *Prober) PathExists(path string) bool {
	return p.fs.Exists(path)
}

// FileMatchesContent reports whether the file's SHA-256 equals expectedHash.
// A missing file does not match.
func (p *Prober) FileMatchesContent(path, expectedHash string) (bool, error) {
	if !p.fs.Exists(path) {
		return false, nil
	}
	hash, err := p.fs.FileHash(path)
	if err != nil {
		return false, unknownf("hash %s: %v", path, err)
	}
	return hash == expectedHash, nil
}

// GroupContainsUser reports whether user is a supplementary member of group.
// A group that does not exist yet contains nobody.
func (p *Prober) GroupContainsUser(group, user string) (bool, error) {
	data, err := p.fs.ReadFile(p.groupFile)
	if err != nil {
		return false, unknownf("read %s: %v", p.groupFile, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// name:password:gid:member,member
		fields := strings.Split(line, ":")
		if len(fields) < 4 || fields[0] != group {
			continue
		}
		for _, member := range strings.Split(fields[3], ",") {
			if strings.TrimSpace(member) == user {
				return true, nil
			}
		}
		return false, nil
	}
	if err := scanner.Err(); err != nil {
		return false, unknownf("parse %s: %v", p.groupFile, err)
	}
	return false, nil
}

// IniHasKey reports whether an INI-style file has key in section.
// Commented-out sections such as "#[multilib]" do not count.
func (p *Prober) IniHasKey(path, section, key string) (bool, error) {
	data, err := p.fs.ReadFile(path)
	if err != nil {
		return false, unknownf("read %s: %v", path, err)
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys: true,
		AllowShadows:     true,
	}, data)
	if err != nil {
		return false, unknownf("parse %s: %v", path, err)
	}

	sec, err := cfg.GetSection(section)
	if err != nil {
		return false, nil
	}
	return sec.HasKey(key), nil
}
