package containers

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
)

// Container is a running test dependency
type Container interface {
	Terminate(ctx context.Context)
}

// LoadTestEnv finds the module root and loads its .env file when there is one.
// Without it the config keeps its defaults, which the containers override.
func LoadTestEnv() (string, error) {

	root, err := moduleRoot()
	if err != nil {
		return "", err
	}

	err = godotenv.Load(filepath.Join(root, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env file; %v", err)
	}

	return root, nil
}

// moduleRoot walks up from this file to the directory holding go.mod
func moduleRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to locate the containers package")
	}

	for dir := filepath.Dir(filename); ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("no go.mod above " + filepath.Dir(filename))
		}
		dir = parent
	}
}
