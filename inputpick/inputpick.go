package inputpick

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnresolvedWorkingDirectory = errors.New("application path not available")
	ErrNoInputSelected            = errors.New("number not available")
)

var executable = os.Executable

// WorkDir returns override when set, otherwise the directory holding the
// running executable.
func WorkDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnresolvedWorkingDirectory, err)
	}
	return filepath.Dir(exe), nil
}

// List returns the disassembler exports (*.txt) in dir, sorted by name.
func List(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Choose prints the numbered file list to out and reads the chosen index
// from in.
func Choose(in io.Reader, out io.Writer, files []string) (string, error) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "List of files in this folder:")
	for i, f := range files {
		fmt.Fprintf(out, "%d: %s\n", i, filepath.Base(f))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Input file number and press enter.")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	line = strings.TrimSpace(line)
	n, err := strconv.Atoi(line)
	if err != nil || n < 0 || n >= len(files) {
		return "", errors.Wrapf(ErrNoInputSelected, "%q", line)
	}
	return files[n], nil
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
