package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const maxRootDepth = 8

// walkToRoot calls visit for dir and each parent until a directory holding
// go.mod or .git has been visited. It returns that directory, or "" if none
// was found within maxRootDepth levels.
func walkToRoot(dir string, visit func(string)) string {
	for i := 0; i < maxRootDepth; i++ {
		if visit != nil {
			visit(dir)
		}
		if fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ProjectRoot locates the repository root relative to this source file and
// falls back to the working directory.
func ProjectRoot() (string, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		if root := walkToRoot(filepath.Dir(file), nil); root != "" {
			return root, nil
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

// ProjectPath joins the repository root with the provided relative path.
func ProjectPath(rel string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// MustProjectPath returns ProjectPath(rel) and panics on failure.
func MustProjectPath(rel string) string {
	p, err := ProjectPath(rel)
	if err != nil {
		panic(err)
	}
	return p
}
