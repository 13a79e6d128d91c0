package probes

import (
	"context"
	"regexp"
	"strings"

	"webscout/pkg/logger"
	"webscout/pkg/normalize"
	"webscout/pkg/probe"
	"webscout/pkg/runner"
)

var dnsRecordPattern = regexp.MustCompile(`(?m)^(\S+?)\.?\s+(\d+)\s+IN\s+(A|NS|MX|AAAA|CNAME)\s+(\S+?)\.?\s*$`)

// DNSEnum enumerates DNS records and brute-forces subdomains for the
// target domain. Output is line-oriented dig-style text.
type DNSEnum struct {
	runner runner.CommandRunner
	logger *logger.Logger
}

func NewDNSEnum(cr runner.CommandRunner, log *logger.Logger) *DNSEnum {
	return &DNSEnum{runner: cr, logger: log}
}

func (p *DNSEnum) ID() string       { return "dnsenum" }
func (p *DNSEnum) Kind() probe.Kind { return probe.KindRecon }

func (p *DNSEnum) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	spec := execSpec{
		command: "dnsenum",
		args:    []string{"--noreverse", "--nocolor", target.Domain},
		format:  normalize.FormatText,
		rules: []normalize.Rule{
			{
				Field:   "records",
				Pattern: dnsRecordPattern,
				Keys:    []string{"host", "ttl", "type", "value"},
			},
		},
	}
	result := runExec(ctx, p.runner, p.logger, p.ID(), spec, outputDir, opts)
	classifyRecords(result.Structured, target.Domain)
	return result
}

// classifyRecords splits the flat record list into name servers, mail
// exchangers, hosts and discovered subdomains of the target domain.
func classifyRecords(structured map[string]any, domain string) {
	records, ok := structured["records"].([]map[string]string)
	if !ok {
		return
	}

	nameServers := []string{}
	mailServers := []string{}
	hosts := []string{}
	subdomains := []string{}

	for _, rec := range records {
		host := rec["host"]
		switch rec["type"] {
		case "NS":
			nameServers = append(nameServers, rec["value"])
		case "MX":
			mailServers = append(mailServers, rec["value"])
		case "A", "AAAA":
			hosts = append(hosts, host+" "+rec["value"])
			if host != domain && strings.HasSuffix(host, "."+domain) {
				subdomains = append(subdomains, host)
			}
		}
	}

	structured["name_servers"] = nameServers
	structured["mail_servers"] = mailServers
	structured["hosts"] = hosts
	structured["subdomains"] = subdomains
}
