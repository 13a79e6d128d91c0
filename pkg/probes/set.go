package probes

import (
	"net/http"

	"webscout/pkg/logger"
	"webscout/pkg/normalize"
	"webscout/pkg/probe"
	"webscout/pkg/runner"
)

// DefaultSet builds every shipped probe. Order matters only for
// scheduling fairness: the slow polled assessments are listed first so
// they start as early as possible under a bounded worker pool.
func DefaultSet(cr runner.CommandRunner, client *http.Client, log *logger.Logger) []probe.Probe {
	classifier := normalize.NewKeywordClassifier()
	return []probe.Probe{
		NewSSLLabs(client, log),
		NewObservatory(client, log),
		NewNikto(cr, log, classifier),
		NewSSLScan(cr, log),
		NewSecurityHeaders(client, log),
		NewWhatWeb(cr, log),
		NewWafw00f(cr, log),
		NewDNSEnum(cr, log),
		NewTheHarvester(cr, log),
		NewBrowser(log),
	}
}
