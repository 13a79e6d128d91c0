package probe

import (
	"fmt"
	"time"
)

// Settings carries per-probe tuning. It is passed explicitly into the
// coordinator and each adapter at construction time; there is no
// process-wide configuration singleton.
type Settings struct {
	ProbeTimeout      time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
	PollInterval      time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	PollBudget        time.Duration `yaml:"poll_budget" mapstructure:"poll_budget"`
	BrowserNavTimeout time.Duration `yaml:"browser_nav_timeout" mapstructure:"browser_nav_timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`

	// SensitiveEndpointsFile points at a file of custom endpoint
	// patterns (one regex per line) that extend the built-in set the
	// browser probe audits discovered links against.
	SensitiveEndpointsFile string `yaml:"sensitive_endpoints_file" mapstructure:"sensitive_endpoints_file"`
}

// DefaultSettings mirrors the latency characteristics of the wrapped
// tools: sub-second local binaries get generous process budgets, the
// polled web APIs a multi-minute ceiling.
func DefaultSettings() Settings {
	return Settings{
		ProbeTimeout:      30 * time.Minute,
		PollInterval:      10 * time.Second,
		PollBudget:        10 * time.Minute,
		BrowserNavTimeout: 60 * time.Second,
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.212 Safari/537.36",
	}
}

// NiktoProfile selects one of the fixed nikto invocation profiles.
type NiktoProfile string

const (
	NiktoBasic    NiktoProfile = "basic"
	NiktoQuick    NiktoProfile = "quick"
	NiktoThorough NiktoProfile = "thorough"
	NiktoCustom   NiktoProfile = "custom"
)

// Options carries the caller's choices for one coordinator run. The
// DryRun flag is propagated to every probe invocation.
type Options struct {
	DryRun     bool
	UseBrowser bool
	UseOnline  bool

	NiktoProfile    NiktoProfile
	NiktoCustomArgs []string

	Settings Settings
}

// DefaultOptions returns options with every feature toggle enabled.
func DefaultOptions() *Options {
	return &Options{
		UseBrowser:   true,
		UseOnline:    true,
		NiktoProfile: NiktoBasic,
		Settings:     DefaultSettings(),
	}
}

// Validate checks option consistency before a run starts.
func (o *Options) Validate() error {
	switch o.NiktoProfile {
	case "", NiktoBasic, NiktoQuick, NiktoThorough:
	case NiktoCustom:
		if len(o.NiktoCustomArgs) == 0 {
			return fmt.Errorf("nikto profile %q requires custom arguments", NiktoCustom)
		}
	default:
		return fmt.Errorf("unknown nikto profile %q", o.NiktoProfile)
	}

	if o.Settings.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", o.Settings.PollInterval)
	}
	if o.Settings.PollBudget <= 0 {
		return fmt.Errorf("poll budget must be positive, got %s", o.Settings.PollBudget)
	}
	return nil
}
