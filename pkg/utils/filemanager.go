// =============================================================================
// SKU Mapper - File Manager Utility
// =============================================================================
//
// This module provides the file handling the CLI needs around a mapping run:
//   - Expanding sales file arguments, including glob patterns, into paths
//   - Writing the serialized combined table to its output path
//
// Output files are written to a temporary file in the target directory and
// renamed into place, so an interrupted run never leaves a half-written
// file behind.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// ExpandInputs turns command-line file arguments into file paths.
//
// PARAMETERS:
//   - args: File paths or glob patterns (e.g. "sales/*.csv"), in order.
//
// RETURNS:
//   - The matching file paths. Order follows the arguments; matches of one
//     pattern are sorted by name. Directories are left out.
//   - An error if a pattern is malformed, or if an argument matches nothing.
//
// Shells usually expand patterns already; this covers the ones that do not.
func ExpandInputs(args []string) ([]string, error) {
	var result []string

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("failed to find input file: %w", err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("input %s is a directory", arg)
			}
			result = append(result, arg)
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to expand pattern %q: %w", arg, err)
		}

		found := 0
		for _, file := range matches {
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			result = append(result, file)
			found++
		}
		if found == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
	}

	return result, nil
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// WriteOutputFile writes data to path, creating missing parent directories.
//
// PARAMETERS:
//   - path: The output file path. An existing file is replaced.
//   - data: The file contents.
//
// RETURNS:
//   - An error if the directory cannot be created or the file written.
func WriteOutputFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set output file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}

	return nil
}
