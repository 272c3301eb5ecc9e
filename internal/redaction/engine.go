package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Engine scrubs secrets from diff content before it leaves the process,
// whether toward a model endpoint or into a posted comment.
type Engine struct {
	rules []rule
}

type rule struct {
	name    string
	pattern *regexp.Regexp
}

// NewEngine creates a redaction engine with the default secret rules.
func NewEngine() *Engine {
	return &Engine{rules: defaultRules()}
}

// Redact replaces every detected secret with a stable placeholder derived
// from the secret's hash, so the same secret redacts identically across
// files and runs.
func (e *Engine) Redact(input string) (string, error) {
	seen := make(map[string]string) // secret -> placeholder

	for _, r := range e.rules {
		for _, match := range r.pattern.FindAllString(input, -1) {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = placeholderFor(match)
		}
	}

	if len(seen) == 0 {
		return input, nil
	}

	// Longer secrets first, so a secret embedded in a larger one (a JWT
	// inside a Bearer header) never leaves a partial value behind.
	secrets := make([]string, 0, len(seen))
	for secret := range seen {
		secrets = append(secrets, secret)
	}
	sort.Slice(secrets, func(i, j int) bool {
		if len(secrets[i]) != len(secrets[j]) {
			return len(secrets[i]) > len(secrets[j])
		}
		return secrets[i] < secrets[j]
	})

	result := input
	for _, secret := range secrets {
		result = strings.ReplaceAll(result, secret, seen[secret])
	}
	return result, nil
}

// IsRedacted reports whether content already carries redaction placeholders.
func (e *Engine) IsRedacted(content string) bool {
	return strings.Contains(content, "<REDACTED:")
}

func placeholderFor(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("<REDACTED:%s>", hex.EncodeToString(hash[:])[:8])
}

func defaultRules() []rule {
	specs := []struct {
		name    string
		pattern string
	}{
		{"openai-key", `sk-[a-zA-Z0-9]{20,}`},
		{"anthropic-key", `sk-ant-[a-zA-Z0-9\-]{20,}`},
		{"aws-access-key-id", `AKIA[0-9A-Z]{16}`},
		{"aws-secret-key", `aws.{0,20}?['\"][0-9a-zA-Z/+]{40}['\"]`},
		{"github-token", `gh[posr]_[a-zA-Z0-9]{20,}`},
		{"gitlab-token", `glpat-[a-zA-Z0-9\-_]{20,}`},
		{"google-api-key", `AIza[0-9A-Za-z\-_]{35}`},
		{"jwt", `eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`},
		{"private-key", `-----BEGIN\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----[\s\S]*?-----END\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----`},
		{"slack-token", `xox[baprs]-[a-zA-Z0-9\-]{10,}`},
		{"bearer-token", `Bearer\s+[a-zA-Z0-9_\-\.]+`},
	}

	rules := make([]rule, 0, len(specs))
	for _, s := range specs {
		rules = append(rules, rule{name: s.name, pattern: regexp.MustCompile(s.pattern)})
	}
	return rules
}
