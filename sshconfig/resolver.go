package sshconfig

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"sshliaison/errs"
	"sshliaison/log"
	"sshliaison/util"
)

// Resolver reads an OpenSSH-style config file and resolves host aliases
// into HostConfig values.
type Resolver struct {
	log.LoggerInjectable

	// Path is the config file to read. Empty means "<home>/.ssh/config".
	Path string
}

// NewResolver returns a Resolver reading the default ~/.ssh/config path.
func NewResolver() *Resolver {
	return &Resolver{}
}

type hostBlock struct {
	patterns []string
	entries  map[string]string
}

// Resolve looks up alias and returns its HostConfig, or an ErrResolve /
// ErrConfig wrapped error.
func (r *Resolver) Resolve(alias string) (*HostConfig, error) {
	path, err := r.configPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.ErrConfig.Wrapf("read ssh config %s: %w", path, err)
	}

	expanded, err := expandIncludes(string(content), map[string]bool{absOrSelf(path): true})
	if err != nil {
		return nil, err
	}

	blocks := parseBlocks(expanded)

	block, ok := matchHost(blocks, alias)
	if !ok {
		return nil, errs.ErrResolve.Wrapf("host alias %q not found in ssh config", alias)
	}

	cfg := &HostConfig{Alias: alias}
	if err := cfg.SetDefaults(); err != nil {
		return nil, errs.ErrConfig.Wrap(err)
	}

	applyEntries(cfg, block.entries)

	r.Log().Debug("resolved host alias", log.KeyHost, alias, log.KeyFile, path)

	return cfg, nil
}

func (r *Resolver) configPath() (string, error) {
	if r.Path != "" {
		return r.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", errs.ErrConfig.Wrapf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".ssh", "config"), nil
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// expandIncludes resolves "Include" directives before the main parse. Each
// Include line's arguments are tilde-expanded and read; existing targets'
// content is prepended to the including file's content. visited tracks
// absolute paths already expanded in this resolution to short-circuit
// cycles: a revisit contributes empty content.
func expandIncludes(content string, visited map[string]bool) (string, error) {
	var prepended, out strings.Builder
	lines := strings.Split(content, "\n")

	for _, line := range lines {
		directive, value, ok := splitDirective(line)
		if !ok || !strings.EqualFold(directive, "Include") {
			out.WriteString(line)
			out.WriteString("\n")
			continue
		}

		for _, arg := range strings.Fields(value) {
			expandedArg, err := homedir.Expand(arg)
			if err != nil {
				continue
			}

			matches, _ := filepath.Glob(expandedArg)
			if matches == nil {
				if _, statErr := os.Stat(expandedArg); statErr == nil {
					matches = []string{expandedArg}
				}
			}

			for _, m := range matches {
				abs := absOrSelf(m)
				if visited[abs] {
					continue
				}
				visited[abs] = true

				included, err := os.ReadFile(m)
				if err != nil {
					continue
				}

				expanded, err := expandIncludes(string(included), visited)
				if err != nil {
					return "", err
				}
				prepended.WriteString(expanded)
			}
		}

		out.WriteString(line)
		out.WriteString("\n")
	}

	return prepended.String() + out.String(), nil
}

func splitDirective(line string) (keyword, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	fields := strings.SplitN(trimmed, " ", 2)
	if len(fields) == 1 {
		fields = strings.SplitN(trimmed, "\t", 2)
	}
	keyword = strings.TrimSpace(fields[0])
	if len(fields) > 1 {
		value = strings.TrimSpace(fields[1])
	}
	return keyword, value, keyword != ""
}

// parseBlocks splits the (include-expanded) config into Host blocks. A
// directive before the first Host line is ignored: host aliases are only
// meaningful within a block.
func parseBlocks(content string) []hostBlock {
	var blocks []hostBlock
	var current *hostBlock

	for _, line := range strings.Split(content, "\n") {
		keyword, value, ok := splitDirective(line)
		if !ok {
			continue
		}

		if strings.EqualFold(keyword, "Host") {
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &hostBlock{
				patterns: strings.Fields(value),
				entries:  map[string]string{},
			}
			continue
		}

		if current == nil {
			continue
		}

		if _, exists := current.entries[strings.ToLower(keyword)]; !exists {
			current.entries[strings.ToLower(keyword)] = value
		}
	}

	if current != nil {
		blocks = append(blocks, *current)
	}

	return blocks
}

// matchHost finds the block for alias: exact match first, then wildcard
// patterns in declaration order (first match wins).
func matchHost(blocks []hostBlock, alias string) (hostBlock, bool) {
	for _, b := range blocks {
		for _, p := range b.patterns {
			if p == alias {
				return b, true
			}
		}
	}

	for _, b := range blocks {
		for _, p := range b.patterns {
			if !strings.Contains(p, "*") {
				continue
			}
			re, err := wildcardRegexp(p)
			if err != nil {
				continue
			}
			if re.MatchString(alias) {
				return b, true
			}
		}
	}

	return hostBlock{}, false
}

func wildcardRegexp(pattern string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	return regexp.Compile("^" + escaped + "$")
}

func applyEntries(cfg *HostConfig, entries map[string]string) {
	if v, ok := entries["hostname"]; ok {
		cfg.HostName = v
	}
	if v, ok := entries["user"]; ok {
		cfg.User = v
	}
	if v, ok := entries["port"]; ok {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port <= 65535 {
			cfg.Port = port
		}
	}
	if v, ok := entries["identityfile"]; ok {
		cfg.IdentityFile = expandIdentityFile(v)
	}
	if v, ok := entries["proxycommand"]; ok {
		cfg.ProxyCommand = stripMatchedQuotes(v)
	}
	if v, ok := entries["proxyusefdpass"]; ok {
		cfg.ProxyUseFdpass = isTruthy(v)
	}
	if v, ok := entries["identitiesonly"]; ok {
		cfg.IdentitiesOnly = isTruthy(v)
	}
}

func expandIdentityFile(value string) string {
	if value == "~" || strings.HasPrefix(value, "~/") {
		if expanded, err := homedir.Expand(value); err == nil {
			return expanded
		}
	}
	return value
}

func stripMatchedQuotes(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
		return value[1 : len(value)-1]
	}
	return value
}

var truthyValues = []string{"yes", "true", "1"}

func isTruthy(value string) bool {
	return util.StringSliceContains(truthyValues, strings.ToLower(value))
}
