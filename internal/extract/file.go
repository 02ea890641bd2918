// Package extract provides the external extraction collaborator: it turns a
// source reference into a single text string.
package extract

import (
	"context"
	"fmt"
	"os"
)

// File reads local plain-text files.
type File struct{}

// Extract returns the file contents as text.
func (File) Extract(_ context.Context, source string) (string, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", source, err)
	}
	return string(data), nil
}
