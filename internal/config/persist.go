package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// SetEnabled rewrites the enabled flag in the config file at path, creating
// the file when it does not exist. Other lines, including comments, are kept.
// The write happens under an exclusive lock on path+".lock" and replaces the
// file atomically so a watching process never reads a partial file.
func SetEnabled(path string, enabled bool) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	defer lock.Unlock()

	var lines []string
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}

	value := "enabled = " + strconv.FormatBool(enabled)
	replaced := false
	for i, line := range lines {
		if key, _, ok := splitLine(line); ok && key == "enabled" {
			if !replaced {
				lines[i] = value
				replaced = true
			} else {
				lines[i] = "# " + line
			}
		}
	}
	if !replaced {
		lines = append(lines, value)
	}

	return atomicWrite(path, []byte(strings.Join(lines, "\n")+"\n"))
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".phpmdlens-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}
