package runner

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/cheerchampion/e2email/model"
)

// TestFunc is the body of a test. A returned error fails the test.
type TestFunc func(t *T) error

// Suite groups tests and nested suites under a title.
type Suite struct {
	Title  string
	parent *Suite
	// children in registration order; each is a *Suite or a *Case
	children []any
}

// Case is a registered test.
type Case struct {
	Title    string
	Location model.Location
	Skipped  bool
	fn       TestFunc
	suite    *Suite
}

// NewSuite creates a root suite. The root title is usually empty.
func NewSuite(title string) *Suite {
	return &Suite{Title: title}
}

// Describe registers a nested suite and lets fn populate it.
func (s *Suite) Describe(title string, fn func(s *Suite)) *Suite {
	child := &Suite{Title: title, parent: s}
	s.children = append(s.children, child)
	if fn != nil {
		fn(child)
	}
	return child
}

// Test registers a test. Its location is the caller's position.
func (s *Suite) Test(title string, fn TestFunc) *Case {
	return s.add(title, fn, false)
}

// Skip registers a test that is reported as skipped without running.
func (s *Suite) Skip(title string, fn TestFunc) *Case {
	return s.add(title, fn, true)
}

func (s *Suite) add(title string, fn TestFunc, skipped bool) *Case {
	c := &Case{
		Title:    title,
		Location: callerLocation(3),
		Skipped:  skipped,
		fn:       fn,
		suite:    s,
	}
	s.children = append(s.children, c)
	return c
}

// AllTests returns every test in the tree, depth first in registration
// order.
func (s *Suite) AllTests() []*Case {
	var tests []*Case
	for _, child := range s.children {
		switch c := child.(type) {
		case *Case:
			tests = append(tests, c)
		case *Suite:
			tests = append(tests, c.AllTests()...)
		}
	}
	return tests
}

// TitleChain returns the non-empty titles of the test's suites, outermost
// first.
func (c *Case) TitleChain() []string {
	var chain []string
	for s := c.suite; s != nil; s = s.parent {
		if s.Title != "" {
			chain = append([]string{s.Title}, chain...)
		}
	}
	return chain
}

// FullTitle joins the title chain and the test title with spaces. Grep
// patterns are matched against it.
func (c *Case) FullTitle() string {
	return strings.Join(append(c.TitleChain(), c.Title), " ")
}

// ID returns the stable identifier of the test within project.
func (c *Case) ID(project string) string {
	parts := append([]string{project, c.Location.File}, c.TitleChain()...)
	parts = append(parts, c.Title)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(parts, "\x00"))).String()
}

// callerLocation reports the file and line skip frames above it. Files are
// made relative to the working directory when possible. Go does not expose
// columns, so Column stays zero.
func callerLocation(skip int) model.Location {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return model.Location{}
	}
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, file); err == nil && !strings.HasPrefix(rel, "..") {
			file = rel
		}
	}
	return model.Location{File: filepath.ToSlash(file), Line: line}
}
