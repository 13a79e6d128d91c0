package normalize

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// SensitiveEndpoint describes a URL path that indicates an exposed
// configuration surface, credential store, or admin interface.
type SensitiveEndpoint struct {
	Pattern     string
	Regex       *regexp.Regexp
	Severity    string
	Description string
	Category    string
}

var defaultEndpoints = []SensitiveEndpoint{
	{Pattern: "/actuator", Severity: "critical", Description: "Spring Boot Actuator", Category: "Configuration"},
	{Pattern: "/actuator/env", Severity: "critical", Description: "Spring Boot Environment Exposure", Category: "Configuration"},
	{Pattern: "/actuator/heapdump", Severity: "critical", Description: "Spring Boot Heap Dump", Category: "Configuration"},
	{Pattern: "/.env", Severity: "critical", Description: "Environment Configuration File", Category: "Configuration"},
	{Pattern: "/config.json", Severity: "high", Description: "JSON Configuration File", Category: "Configuration"},
	{Pattern: "/config.yml", Severity: "high", Description: "YAML Configuration File", Category: "Configuration"},
	{Pattern: "/web.config", Severity: "critical", Description: "IIS Web Configuration", Category: "Configuration"},
	{Pattern: "/.git", Severity: "critical", Description: "Git Repository Exposed", Category: "Source Code"},
	{Pattern: "/.svn", Severity: "critical", Description: "SVN Repository Exposed", Category: "Source Code"},
	{Pattern: "/.aws/credentials", Severity: "critical", Description: "AWS Credentials File", Category: "Credentials"},
	{Pattern: "/.ssh", Severity: "critical", Description: "SSH Keys Directory", Category: "Credentials"},
	{Pattern: "/backup.sql", Severity: "critical", Description: "Database Backup", Category: "Database"},
	{Pattern: "/admin", Severity: "high", Description: "Admin Panel", Category: "Admin"},
	{Pattern: "/administrator", Severity: "high", Description: "Administrator Panel", Category: "Admin"},
	{Pattern: "/console", Severity: "critical", Description: "Web Console", Category: "Admin"},
	{Pattern: "/phpmyadmin", Severity: "high", Description: "phpMyAdmin", Category: "Admin"},
	{Pattern: "/swagger", Severity: "medium", Description: "Swagger API Documentation", Category: "API"},
	{Pattern: "/graphql", Severity: "medium", Description: "GraphQL Endpoint", Category: "API"},
	{Pattern: "/phpinfo.php", Severity: "critical", Description: "PHP Info Page", Category: "Information Disclosure"},
	{Pattern: "/server-status", Severity: "high", Description: "Apache Server Status", Category: "Information Disclosure"},
	{Pattern: "/debug", Severity: "high", Description: "Debug Endpoint", Category: "Debug"},
	{Pattern: "/backup", Severity: "high", Description: "Backup Directory", Category: "Backup"},
	{Pattern: ".bak", Severity: "high", Description: "Backup File", Category: "Backup"},
}

// LoadSensitiveEndpointsFromFile reads one regex per line; blank lines
// and # comments are skipped, invalid expressions are ignored.
func LoadSensitiveEndpointsFromFile(filePath string) ([]SensitiveEndpoint, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var endpoints []SensitiveEndpoint
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		re, err := regexp.Compile(line)
		if err != nil {
			continue
		}

		endpoints = append(endpoints, SensitiveEndpoint{
			Pattern:     line,
			Regex:       re,
			Severity:    "high",
			Description: "Custom Pattern Match",
			Category:    "Custom",
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return endpoints, nil
}

func DefaultSensitiveEndpoints() []SensitiveEndpoint {
	endpoints := make([]SensitiveEndpoint, len(defaultEndpoints))
	copy(endpoints, defaultEndpoints)
	return endpoints
}

// DetectSensitiveEndpoint reports the first endpoint pattern the URL
// matches.
func DetectSensitiveEndpoint(url string, endpoints []SensitiveEndpoint) (SensitiveEndpoint, bool) {
	urlLower := strings.ToLower(url)

	for _, ep := range endpoints {
		if ep.Regex != nil && ep.Regex.MatchString(urlLower) {
			return ep, true
		}
		if strings.Contains(urlLower, strings.ToLower(ep.Pattern)) {
			return ep, true
		}
	}
	return SensitiveEndpoint{}, false
}

// AuditLinks flags the sensitive endpoints among discovered links,
// one finding per matched link.
func AuditLinks(links []string, endpoints []SensitiveEndpoint) []map[string]string {
	if endpoints == nil {
		endpoints = DefaultSensitiveEndpoints()
	}

	findings := []map[string]string{}
	for _, link := range links {
		if ep, ok := DetectSensitiveEndpoint(link, endpoints); ok {
			findings = append(findings, map[string]string{
				"url":         link,
				"pattern":     ep.Pattern,
				"severity":    ep.Severity,
				"description": ep.Description,
				"category":    ep.Category,
			})
		}
	}
	return findings
}
