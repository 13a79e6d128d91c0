package probes

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	scouterrors "webscout/pkg/errors"
	"webscout/pkg/logger"
	"webscout/pkg/normalize"
	"webscout/pkg/probe"
)

const (
	linksJS = `Array.from(document.querySelectorAll('a[href]')).map(a => a.href).slice(0, 200)`

	formsJS = `Array.from(document.forms).map(f => ({
		action: f.action || '',
		method: (f.method || 'get').toLowerCase(),
		inputs: Array.from(f.elements).filter(e => e.name).map(e => e.name)
	}))`

	frameworksJS = `(() => {
		const found = [];
		if (window.React || document.querySelector('[data-reactroot]')) found.push('react');
		if (window.angular || document.querySelector('[ng-app],[ng-version]')) found.push('angular');
		if (window.Vue || document.querySelector('[data-v-app]')) found.push('vue');
		if (window.jQuery) found.push('jquery:' + window.jQuery.fn.jquery);
		if (window.Drupal) found.push('drupal');
		if (window.wp || document.querySelector('link[href*="wp-content"]')) found.push('wordpress');
		return found;
	})()`
)

// Browser drives a headless browser against the target page and
// extracts what static tools cannot see: the rendered title, links and
// forms after script execution, detected client-side frameworks,
// cookies, and a screenshot.
type Browser struct {
	logger *logger.Logger
}

func NewBrowser(log *logger.Logger) *Browser {
	return &Browser{logger: log}
}

func (p *Browser) ID() string       { return "browser" }
func (p *Browser) Kind() probe.Kind { return probe.KindRecon }

func (p *Browser) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	result := probe.NewResult(p.ID())

	if opts.DryRun {
		result.Status = probe.StatusDryRun
		result.Structured["url"] = target.URL
		result.Structured["actions"] = []string{"navigate", "extract_links", "extract_forms", "detect_frameworks", "collect_cookies", "screenshot"}
		return result
	}

	start := time.Now()
	defer func() { result.DurationSeconds = time.Since(start).Seconds() }()

	navCtx := ctx
	if opts.Settings.BrowserNavTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, opts.Settings.BrowserNavTimeout)
		defer cancel()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.UserAgent(opts.Settings.UserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(navCtx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var (
		title      string
		finalURL   string
		links      []string
		forms      []map[string]any
		frameworks []string
		screenshot []byte
		cookies    []map[string]any
	)

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(target.URL),
		chromedp.Title(&title),
		chromedp.Location(&finalURL),
		chromedp.Evaluate(linksJS, &links),
		chromedp.Evaluate(formsJS, &forms),
		chromedp.Evaluate(frameworksJS, &frameworks),
		chromedp.ActionFunc(func(ctx context.Context) error {
			got, err := storage.GetCookies().Do(ctx)
			if err != nil {
				return err
			}
			for _, c := range got {
				cookies = append(cookies, map[string]any{
					"name":     c.Name,
					"domain":   c.Domain,
					"secure":   c.Secure,
					"httponly": c.HTTPOnly,
				})
			}
			return nil
		}),
		chromedp.CaptureScreenshot(&screenshot),
	)
	if err != nil {
		result.Status = probe.StatusFailed
		result.Error = scouterrors.NewProbeExecutionError(p.ID(), err).Error()
		// Keep whatever extraction steps completed before the failure.
		if title != "" || len(links) > 0 {
			result.Status = probe.StatusPartialSuccess
		}
	} else {
		result.Status = probe.StatusSuccess
	}

	result.Structured["title"] = title
	result.Structured["final_url"] = finalURL
	result.Structured["links"] = links
	result.Structured["sensitive_endpoints"] = normalize.AuditLinks(links, p.auditEndpoints(opts))
	result.Structured["forms"] = forms
	result.Structured["frameworks"] = frameworks
	result.Structured["cookies"] = cookies

	if len(screenshot) > 0 {
		shotPath := filepath.Join(outputDir, "screenshot.png")
		if werr := os.WriteFile(shotPath, screenshot, 0644); werr != nil {
			p.logger.WithError(werr).Error("Failed to write screenshot")
		} else {
			result.ArtifactPaths = append(result.ArtifactPaths, shotPath)
		}
	}

	jsonPath := filepath.Join(outputDir, "browser.json")
	if werr := writeJSONFile(jsonPath, result.Structured); werr != nil {
		p.logger.WithError(werr).Error("Failed to write browser artifact")
	} else {
		result.ArtifactPaths = append(result.ArtifactPaths, jsonPath)
	}
	return result
}

// auditEndpoints resolves the link audit pattern set: the built-in
// endpoints, extended by the configured custom pattern file when one is
// set. An unreadable file is logged and ignored.
func (p *Browser) auditEndpoints(opts *probe.Options) []normalize.SensitiveEndpoint {
	path := opts.Settings.SensitiveEndpointsFile
	if path == "" {
		return nil
	}
	custom, err := normalize.LoadSensitiveEndpointsFromFile(path)
	if err != nil {
		p.logger.WithError(err).Warn("Ignoring unreadable sensitive endpoint patterns")
		return nil
	}
	return append(normalize.DefaultSensitiveEndpoints(), custom...)
}
