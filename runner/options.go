package runner

import (
	"regexp"
	"time"

	"github.com/cheerchampion/e2email/config"
)

// Options controls how a suite is executed.
type Options struct {
	BaseURL       string
	Projects      []config.Project
	Workers       int
	Retries       int
	Timeout       time.Duration
	ExpectTimeout time.Duration
	Headless      bool
	// Only tests whose full title matches run; nil runs everything
	Grep       *regexp.Regexp
	Screenshot string
	Video      string
	OutputDir  string
}

// OptionsFromSuite converts a defaulted suite configuration.
func OptionsFromSuite(s *config.Suite) Options {
	opts := Options{
		BaseURL:       s.BaseURL,
		Projects:      s.Projects,
		Workers:       s.Workers,
		Timeout:       s.Timeout,
		ExpectTimeout: s.ExpectTimeout,
		Headless:      true,
		Screenshot:    s.Use.Screenshot,
		Video:         s.Use.Video,
		OutputDir:     s.OutputDir,
	}
	if s.Retries != nil {
		opts.Retries = *s.Retries
	}
	if s.Headless != nil {
		opts.Headless = *s.Headless
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return opts
}

func (o Options) captureScreenshot(failed bool) bool {
	switch o.Screenshot {
	case config.ScreenshotOn:
		return true
	case config.ScreenshotOnlyOnFailure:
		return failed
	default:
		return false
	}
}

func (o Options) recordVideo() bool {
	return o.Video == config.VideoOn || o.Video == config.VideoRetainOnFailure
}

func (o Options) keepVideo(failed bool) bool {
	return o.Video == config.VideoOn || (o.Video == config.VideoRetainOnFailure && failed)
}
