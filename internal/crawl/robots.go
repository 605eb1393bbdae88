package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// robotsMaxSize caps how much of a robots.txt file is read
const robotsMaxSize = 512 * 1024

// AgentRule holds the robots.txt directives of one user-agent block
type AgentRule struct {
	Name       string
	Allow      []string
	Disallow   []string
	CrawlDelay time.Duration
	hasDelay   bool
}

// RobotsPolicy is a site's parsed crawling policy. Immutable after
// construction; safe for concurrent reads.
type RobotsPolicy struct {
	rules    []*AgentRule
	Sitemaps []string
}

// PermissivePolicy returns the policy used when compliance metadata is
// unreachable: everything allowed, no delay. Callers never see a fetch
// failure as an error.
func PermissivePolicy() *RobotsPolicy {
	return &RobotsPolicy{}
}

// FetchRobotsPolicy fetches and parses /robots.txt for the given origin.
// Any network failure or non-2xx response degrades to the permissive
// policy rather than failing the crawl.
func FetchRobotsPolicy(ctx context.Context, baseURL, userAgent string, timeout time.Duration) *RobotsPolicy {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		log.Debug().Str("base_url", baseURL).Msg("Invalid base URL, assuming permissive robots policy")
		return PermissivePolicy()
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return PermissivePolicy()
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("robots_url", robotsURL).Msg("Could not fetch robots.txt, assuming allowed")
		return PermissivePolicy()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug().Int("status", resp.StatusCode).Str("robots_url", robotsURL).Msg("robots.txt unavailable, assuming allowed")
		return PermissivePolicy()
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxSize))
	if err != nil {
		return PermissivePolicy()
	}

	return ParseRobotsPolicy(string(content))
}

// ParseRobotsPolicy parses robots.txt content line by line. A user-agent
// line opens a new rule block and closes the previous one; blocks are
// never merged. Sitemap lines are global.
func ParseRobotsPolicy(content string) *RobotsPolicy {
	policy := &RobotsPolicy{}
	var current *AgentRule

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		field := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch field {
		case "user-agent":
			current = &AgentRule{Name: value}
			policy.rules = append(policy.rules, current)

		case "disallow":
			if current != nil && value != "" {
				current.Disallow = append(current.Disallow, value)
			}

		case "allow":
			if current != nil && value != "" {
				current.Allow = append(current.Allow, value)
			}

		case "crawl-delay":
			if current != nil {
				if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds >= 0 {
					current.CrawlDelay = time.Duration(seconds * float64(time.Second))
					current.hasDelay = true
				}
			}

		case "sitemap":
			policy.Sitemaps = append(policy.Sitemaps, value)
		}
	}

	return policy
}

// ruleFor selects the block whose agent name exactly equals agent, falling
// back to the wildcard block
func (p *RobotsPolicy) ruleFor(agent string) *AgentRule {
	for _, rule := range p.rules {
		if rule.Name == agent {
			return rule
		}
	}
	for _, rule := range p.rules {
		if rule.Name == "*" {
			return rule
		}
	}
	return nil
}

// IsAllowed reports whether the agent may fetch the path. Allow patterns
// take precedence over disallow patterns; no matching block means allowed.
func (p *RobotsPolicy) IsAllowed(path, agent string) bool {
	rule := p.ruleFor(agent)
	if rule == nil {
		return true
	}

	for _, pattern := range rule.Allow {
		if matchRobotsPattern(pattern, path) {
			return true
		}
	}
	for _, pattern := range rule.Disallow {
		if matchRobotsPattern(pattern, path) {
			return false
		}
	}
	return true
}

// CrawlDelay returns the matching block's configured delay. Callers are
// responsible for enforcing it.
func (p *RobotsPolicy) CrawlDelay(agent string) (time.Duration, bool) {
	rule := p.ruleFor(agent)
	if rule == nil || !rule.hasDelay {
		return 0, false
	}
	return rule.CrawlDelay, true
}

// matchRobotsPattern matches a robots.txt pattern against a path. Patterns
// may end with $ (exact match) or contain * wildcards; plain patterns
// match by prefix.
func matchRobotsPattern(pattern, path string) bool {
	if pattern == "" {
		return false
	}

	if strings.ContainsAny(pattern, "*$") {
		anchor := ""
		if strings.HasSuffix(pattern, "$") {
			pattern = strings.TrimSuffix(pattern, "$")
			anchor = "$"
		}
		quoted := regexp.QuoteMeta(pattern)
		quoted = strings.ReplaceAll(quoted, `\*`, ".*")
		re, err := regexp.Compile("^" + quoted + anchor)
		if err != nil {
			return strings.HasPrefix(path, pattern)
		}
		return re.MatchString(path)
	}

	return strings.HasPrefix(path, pattern)
}
