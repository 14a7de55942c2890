package report

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"

	"github.com/cheerchampion/e2email/model"
)

// DefaultCommand is the binary name used in re-run hints.
const DefaultCommand = "e2email"

var (
	sgrPattern   = regexp.MustCompile(`\x1b?\[(\d+(?:;\d+)*)m`)
	stackFunc    = regexp.MustCompile(`\bat\s+([^\s<>&]+)`)
	stackSource  = regexp.MustCompile(`\s\(([^)]+)\)`)
	sgrToHTMLTag = map[string]string{
		"31": `<span class="highlight-red">`,
		"32": `<span class="highlight-green">`,
		"39": `</span>`,
		"2":  `<span style="opacity: 0.7;">`,
		"22": `</span>`,
	}
)

// FormatDuration renders d as "<ms>ms" below a second, "<s>s" below a
// minute and "<m>m <s>s" otherwise. Fractions are truncated.
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := ms / 1000
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// FormatErrorMessage escapes msg and turns the terminal colour codes the
// assertion library emits into spans. Unknown SGR sequences are dropped.
func FormatErrorMessage(msg string) string {
	escaped := html.EscapeString(msg)
	translated := sgrPattern.ReplaceAllStringFunc(escaped, func(seq string) string {
		code := sgrPattern.FindStringSubmatch(seq)[1]
		if tag, ok := sgrToHTMLTag[code]; ok {
			return tag
		}
		if strings.HasPrefix(seq, "\x1b") {
			return ""
		}
		return seq
	})
	return newlinesToBreaks(translated)
}

// FormatStackTrace escapes stack and highlights function names and source
// positions.
func FormatStackTrace(stack string) string {
	out := html.EscapeString(stack)
	out = stackFunc.ReplaceAllString(out, `at <span class="highlight">$1</span>`)
	out = stackSource.ReplaceAllString(out, ` (<span class="highlight">$1</span>)`)
	return newlinesToBreaks(out)
}

// TitleChain joins the non-empty suite titles with " > ", or returns
// "Root Suite" for a top-level test.
func TitleChain(chain []string) string {
	titles := make([]string, 0, len(chain))
	for _, t := range chain {
		if t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		return "Root Suite"
	}
	return strings.Join(titles, " > ")
}

// RerunCommand returns a shell-quoted command line that runs only rec.
func RerunCommand(command string, rec *model.TestRecord) string {
	if command == "" {
		command = DefaultCommand
	}
	args := []string{command, "run"}
	if rec.Project != "" {
		args = append(args, "--project", rec.Project)
	}
	args = append(args, "--grep", regexp.QuoteMeta(rec.Title))
	return shellescape.QuoteCommand(args)
}

func newlinesToBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}
