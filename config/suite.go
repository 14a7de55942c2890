package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Screenshot capture modes.
const (
	ScreenshotOff           = "off"
	ScreenshotOn            = "on"
	ScreenshotOnlyOnFailure = "only-on-failure"
)

// Video capture modes.
const (
	VideoOff             = "off"
	VideoOn              = "on"
	VideoRetainOnFailure = "retain-on-failure"
)

const (
	defaultBaseURL       = "https://www.cheerchampion.com"
	defaultTimeout       = 3000 * time.Second
	defaultExpectTimeout = 5 * time.Second
	defaultOutputDir     = "test-results"
	defaultCIRetries     = 2
)

// Suite mirrors the runner settings of the end-to-end suite. It is read from
// a YAML file; every field is optional.
type Suite struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	ExpectTimeout time.Duration `yaml:"expect_timeout"`
	Retries       *int          `yaml:"retries"`
	Workers       int           `yaml:"workers"`
	Headless      *bool         `yaml:"headless"`
	OutputDir     string        `yaml:"output_dir"`
	Projects      []Project     `yaml:"projects"`
	Use           Use           `yaml:"use"`
}

// Project is a named browser configuration tests run under.
type Project struct {
	Name    string `yaml:"name"`
	Browser string `yaml:"browser"`
}

// Use holds capture settings applied to every test.
type Use struct {
	Screenshot string `yaml:"screenshot"`
	Video      string `yaml:"video"`
}

// LoadSuite reads a suite file. A missing file yields an empty Suite so that
// defaults apply.
func LoadSuite(path string) (*Suite, error) {
	suite := &Suite{}
	if path == "" {
		return suite, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return suite, nil
		}
		return nil, fmt.Errorf("failed to read suite config: %w", err)
	}

	if err := yaml.Unmarshal(data, suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite config %s: %w", path, err)
	}

	return suite, nil
}

// ApplyDefaults fills unset fields. Under CI, retries default to 2 and
// workers to 1.
func (s *Suite) ApplyDefaults(ci bool) {
	if s.BaseURL == "" {
		s.BaseURL = defaultBaseURL
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	if s.ExpectTimeout <= 0 {
		s.ExpectTimeout = defaultExpectTimeout
	}
	if s.Retries == nil {
		retries := 0
		if ci {
			retries = defaultCIRetries
		}
		s.Retries = &retries
	}
	if s.Workers <= 0 {
		if ci {
			s.Workers = 1
		} else {
			s.Workers = max(1, runtime.NumCPU()/2)
		}
	}
	if s.Headless == nil {
		headless := true
		s.Headless = &headless
	}
	if s.OutputDir == "" {
		s.OutputDir = defaultOutputDir
	}
	if len(s.Projects) == 0 {
		s.Projects = []Project{{Name: "chromium", Browser: "chromium"}}
	}
	for i := range s.Projects {
		if s.Projects[i].Browser == "" {
			s.Projects[i].Browser = s.Projects[i].Name
		}
	}
	if s.Use.Screenshot == "" {
		s.Use.Screenshot = ScreenshotOnlyOnFailure
	}
	if s.Use.Video == "" {
		s.Use.Video = VideoRetainOnFailure
	}
}

// Validate checks enumerated values.
func (s *Suite) Validate() error {
	var errs []error

	switch s.Use.Screenshot {
	case ScreenshotOff, ScreenshotOn, ScreenshotOnlyOnFailure:
	default:
		errs = append(errs, fmt.Errorf("use.screenshot: unknown mode %q", s.Use.Screenshot))
	}
	switch s.Use.Video {
	case VideoOff, VideoOn, VideoRetainOnFailure:
	default:
		errs = append(errs, fmt.Errorf("use.video: unknown mode %q", s.Use.Video))
	}
	seen := make(map[string]bool, len(s.Projects))
	for _, p := range s.Projects {
		if p.Name == "" {
			errs = append(errs, errors.New("projects: name is required"))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("projects: duplicate name %q", p.Name))
		}
		seen[p.Name] = true
		switch p.Browser {
		case "chromium", "firefox", "webkit":
		default:
			errs = append(errs, fmt.Errorf("projects[%s]: unknown browser %q", p.Name, p.Browser))
		}
	}

	return errors.Join(errs...)
}
