package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheerchampion/e2email/config"
)

func TestResolveSuite(t *testing.T) {
	two := 2

	tests := []struct {
		name  string
		suite config.Suite
		ci    bool
		o     overrides
		check func(t *testing.T, s *config.Suite)
	}{
		{
			name: "defaults only",
			o:    overrides{retries: -1},
			check: func(t *testing.T, s *config.Suite) {
				assert.Equal(t, "https://www.cheerchampion.com", s.BaseURL)
				assert.Equal(t, 0, *s.Retries)
				assert.True(t, *s.Headless)
				assert.Equal(t, "test-results", s.OutputDir)
				assert.Equal(t, []config.Project{{Name: "chromium", Browser: "chromium"}}, s.Projects)
			},
		},
		{
			name: "ci defaults",
			ci:   true,
			o:    overrides{retries: -1},
			check: func(t *testing.T, s *config.Suite) {
				assert.Equal(t, 2, *s.Retries)
				assert.Equal(t, 1, s.Workers)
			},
		},
		{
			name:  "flags win over file and ci",
			suite: config.Suite{Retries: &two, Workers: 3, OutputDir: "from-file"},
			ci:    true,
			o: overrides{
				baseURL:   "http://localhost:3000",
				workers:   5,
				retries:   0,
				headed:    true,
				outputDir: "out",
			},
			check: func(t *testing.T, s *config.Suite) {
				assert.Equal(t, "http://localhost:3000", s.BaseURL)
				assert.Equal(t, 5, s.Workers)
				assert.Equal(t, 0, *s.Retries)
				assert.False(t, *s.Headless)
				assert.Equal(t, "out", s.OutputDir)
			},
		},
		{
			name: "negative retries keep file value",
			suite: config.Suite{
				Retries: &two,
			},
			o: overrides{retries: -1},
			check: func(t *testing.T, s *config.Suite) {
				assert.Equal(t, 2, *s.Retries)
			},
		},
		{
			name: "project selection keeps flag order",
			suite: config.Suite{
				Projects: []config.Project{
					{Name: "chromium"},
					{Name: "firefox"},
					{Name: "webkit"},
				},
			},
			o: overrides{retries: -1, projects: []string{"webkit", "chromium"}},
			check: func(t *testing.T, s *config.Suite) {
				assert.Equal(t, []config.Project{
					{Name: "webkit", Browser: "webkit"},
					{Name: "chromium", Browser: "chromium"},
				}, s.Projects)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.suite
			require.NoError(t, resolveSuite(&s, tt.ci, tt.o))
			tt.check(t, &s)
		})
	}
}

func TestResolveSuite_UnknownProject(t *testing.T) {
	s := config.Suite{}
	err := resolveSuite(&s, false, overrides{retries: -1, projects: []string{"safari"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown project "safari"`)
}

func TestResolveSuite_InvalidCaptureMode(t *testing.T) {
	s := config.Suite{Use: config.Use{Video: "sometimes"}}
	err := resolveSuite(&s, false, overrides{retries: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use.video")
}

func TestBrowsersFor(t *testing.T) {
	browsers := browsersFor([]config.Project{
		{Name: "desktop", Browser: "chromium"},
		{Name: "mobile", Browser: "chromium"},
		{Name: "firefox", Browser: "firefox"},
	})
	assert.Equal(t, []string{"chromium", "firefox"}, browsers)
}

func TestGitInfo_NotARepository(t *testing.T) {
	git, err := gitInfo(t.TempDir())
	assert.Error(t, err)
	assert.Nil(t, git)
}

func TestConfigCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GMAIL_USER", "runner@example.com")
	t.Setenv("GMAIL_APP_PASSWORD", "app-password")
	t.Setenv("TEST_TEAM_EMAILS", "qa@example.com")
	t.Setenv("CI", "")
	t.Setenv("BASE_URL", "")

	suitePath := filepath.Join(t.TempDir(), "e2e.yaml")
	require.NoError(t, os.WriteFile(suitePath, []byte(`
base_url: http://localhost:3000
timeout: 90s
projects:
  - name: firefox
`), 0644))

	app := New()
	var out bytes.Buffer
	app.cli.Writer = &out

	require.NoError(t, app.Run([]string{AppName, "config", "--config", suitePath}))

	got := out.String()
	assert.Contains(t, got, "runner@example.com")
	assert.Contains(t, got, "********")
	assert.NotContains(t, got, "app-password")
	assert.Contains(t, got, "base_url: http://localhost:3000")
	assert.Contains(t, got, "timeout: "+(90*time.Second).String())
	assert.Contains(t, got, "browser: firefox")
}

func TestSetVersion(t *testing.T) {
	app := New()

	app.SetVersion("1.2.0", "none", "unknown")
	assert.Equal(t, "1.2.0", app.cli.Version)

	app.SetVersion("1.2.0", "0123456789abcdef", "2026-01-02")
	assert.Equal(t, "1.2.0 (commit: 01234567, built: 2026-01-02)", app.cli.Version)
}
