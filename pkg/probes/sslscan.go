package probes

import (
	"context"
	"regexp"

	"webscout/pkg/logger"
	"webscout/pkg/normalize"
	"webscout/pkg/probe"
	"webscout/pkg/runner"
)

var (
	sslProtocolPattern = regexp.MustCompile(`(?m)^(SSLv\d|TLSv\d\.\d)\s+(enabled|disabled)`)
	sslCipherPattern   = regexp.MustCompile(`(?m)^(Preferred|Accepted)\s+(TLSv\d\.\d|SSLv\d)\s+(\d+) bits\s+(\S+)`)
	sslSubjectPattern  = regexp.MustCompile(`(?m)^Subject:\s+(.+)$`)
	sslIssuerPattern   = regexp.MustCompile(`(?m)^Issuer:\s+(.+)$`)
	sslExpiryPattern   = regexp.MustCompile(`(?m)^Not valid after:\s+(.+)$`)
)

// SSLScan checks the TLS configuration of the target host: enabled
// protocol versions, offered cipher suites, certificate identity and
// expiry.
type SSLScan struct {
	runner runner.CommandRunner
	logger *logger.Logger
}

func NewSSLScan(cr runner.CommandRunner, log *logger.Logger) *SSLScan {
	return &SSLScan{runner: cr, logger: log}
}

func (p *SSLScan) ID() string       { return "sslscan" }
func (p *SSLScan) Kind() probe.Kind { return probe.KindRecon }

func (p *SSLScan) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	spec := execSpec{
		command: "sslscan",
		args:    []string{"--no-colour", target.Domain},
		format:  normalize.FormatText,
		rules: []normalize.Rule{
			{
				Field:   "protocols",
				Pattern: sslProtocolPattern,
				Keys:    []string{"version", "state"},
			},
			{
				Field:   "ciphers",
				Pattern: sslCipherPattern,
				Keys:    []string{"preference", "version", "bits", "cipher"},
			},
			{Field: "certificate_subject", Pattern: sslSubjectPattern},
			{Field: "certificate_issuer", Pattern: sslIssuerPattern},
			{Field: "certificate_not_after", Pattern: sslExpiryPattern},
		},
	}
	return runExec(ctx, p.runner, p.logger, p.ID(), spec, outputDir, opts)
}
