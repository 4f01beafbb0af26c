package gogit

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// globalExcludes loads ignore patterns that apply to every repository: the
// file named by core.excludesfile in the user's git config, and the XDG
// default $XDG_CONFIG_HOME/git/ignore. Unreadable sources are skipped.
func globalExcludes(fsys billy.Filesystem, logger *slog.Logger) []gitignore.Pattern {
	patterns, err := gitignore.LoadGlobalPatterns(fsys)
	if err != nil {
		logger.Debug("skipping core.excludesfile", "error", err)
	}

	xdgPatterns, err := readIgnoreFile(fsys, filepath.Join(xdg.ConfigHome, "git", "ignore"))
	if err != nil {
		logger.Debug("skipping XDG git ignore", "error", err)
	}

	return append(patterns, xdgPatterns...)
}

func readIgnoreFile(fsys billy.Filesystem, path string) ([]gitignore.Pattern, error) {
	f, err := fsys.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}

	return patterns, scanner.Err()
}
