// Package artifacts copies screenshots and videos of failed tests into a
// per-run directory so they outlive the runner's scratch output.
package artifacts

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cheerchampion/e2email/model"
)

// RunDirName is the directory under the output dir that holds all runs.
const RunDirName = "email-artifacts"

const tokenLength = 10

// ArtifactError reports a failed copy of one attachment.
type ArtifactError struct {
	TestID string
	Name   string
	Err    error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("failed to save %s for test %s: %v", e.Name, e.TestID, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// Materializer owns the run directory and its per-test subdirectories.
type Materializer struct {
	logger    zerolog.Logger
	outputDir string
	now       func() time.Time

	mu     sync.Mutex
	runDir string
}

// New creates a Materializer rooted at outputDir.
func New(logger zerolog.Logger, outputDir string) *Materializer {
	return &Materializer{
		logger:    logger.With().Str("component", "artifacts").Logger(),
		outputDir: outputDir,
		now:       time.Now,
	}
}

// PrepareRunDirectory creates <out>/email-artifacts/<unix-ms>.
func (m *Materializer) PrepareRunDirectory() (string, error) {
	dir := filepath.Join(m.outputDir, RunDirName, strconv.FormatInt(m.now().UnixMilli(), 10))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	m.mu.Lock()
	m.runDir = dir
	m.mu.Unlock()

	m.logger.Debug().Str("dir", dir).Msg("Prepared run directory")
	return dir, nil
}

// RunDirectory returns the prepared run directory, or "" before preparation.
func (m *Materializer) RunDirectory() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runDir
}

// SaveAttachments copies rec's attachments into a fresh subdirectory of the
// run directory. Only screenshot and video paths are returned. Missing
// sources are skipped and copy failures logged.
func (m *Materializer) SaveAttachments(rec *model.TestRecord) model.SavedArtifacts {
	var saved model.SavedArtifacts

	runDir := m.RunDirectory()
	if rec == nil || len(rec.Attachments) == 0 || runDir == "" {
		return saved
	}

	testDir := filepath.Join(runDir, m.token(rec))
	created := false

	for _, att := range rec.Attachments {
		if att.Path == "" {
			continue
		}
		if _, err := os.Stat(att.Path); err != nil {
			m.logger.Debug().Str("test", rec.Title).Str("path", att.Path).Msg("Attachment source missing, skipping")
			continue
		}

		if !created {
			if err := os.MkdirAll(testDir, 0755); err != nil {
				m.logger.Warn().Err(&ArtifactError{TestID: rec.ID, Name: string(att.Name), Err: err}).Msg("Failed to create artifact directory")
				return saved
			}
			created = true
		}

		dst := filepath.Join(testDir, fileName(att))
		if err := copyFile(att.Path, dst); err != nil {
			m.logger.Warn().Err(&ArtifactError{TestID: rec.ID, Name: string(att.Name), Err: err}).Str("src", att.Path).Msg("Failed to save attachment")
			continue
		}

		switch att.Name {
		case model.AttachmentScreenshot:
			saved.Screenshot = dst
		case model.AttachmentVideo:
			saved.Video = dst
		}
		m.logger.Debug().Str("test", rec.Title).Str("dest", dst).Msg("Saved attachment")
	}

	return saved
}

// token derives a short directory name from the test's file, title and the
// current time.
func (m *Materializer) token(rec *model.TestRecord) string {
	seed := fmt.Sprintf("%s-%s-%d", rec.Location.File, rec.Title, m.now().UnixNano())
	sum := sha256.Sum256([]byte(seed))
	enc := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:]))
	return enc[:tokenLength]
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// fileName is the destination name of att inside its test directory. The
// attachment name is reduced to letters, digits, '-' and '_'.
func fileName(att model.Attachment) string {
	name := strings.Trim(unsafeNameChars.ReplaceAllString(string(att.Name), "-"), "-")
	if name == "" {
		name = "attachment"
	}
	return name + extension(att)
}

func extension(att model.Attachment) string {
	if ext := filepath.Ext(att.Path); ext != "" {
		return ext
	}
	return model.ExtensionForContentType(att.ContentType)
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}
