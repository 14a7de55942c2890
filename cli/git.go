package cli

// This file contains Git integration utilities for retrieving
// repository information shown in the report footer.

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/cheerchampion/e2email/model"
)

func (a *App) getGitInfo() (*model.Git, error) {
	return gitInfo("")
}

// gitInfo reads the commit and branch of the repository containing dir. An
// empty dir means the working directory.
func gitInfo(dir string) (*model.Git, error) {
	revParse := func(args ...string) (string, error) {
		cmd := exec.Command("git", append([]string{"rev-parse"}, args...)...)
		cmd.Dir = dir
		output, err := cmd.Output()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(output)), nil
	}

	// Get current commit hash
	commit, err := revParse("HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git commit: %w", err)
	}

	// Get current branch
	branch, err := revParse("--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git branch: %w", err)
	}

	return &model.Git{Commit: commit, Branch: branch}, nil
}
