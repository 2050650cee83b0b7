package headerout

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"miditoarduino/dumpparse"
)

// DefaultStorage places the arrays in flash on AVR boards.
const DefaultStorage = "PROGMEM"

var nonIdent = regexp.MustCompile(`[^0-9A-Za-z_]`)

// Name turns an input file stem into a C identifier prefix.
func Name(stem string) string {
	name := strings.ReplaceAll(stem, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	name = nonIdent.ReplaceAllString(name, "")
	if name == "" {
		return "song"
	}
	return name
}

// Write renders the converted tracks as an Arduino header.
func Write(w io.Writer, name string, res *dumpparse.Result, storage string) error {
	if res == nil {
		return fmt.Errorf("no tracks to write")
	}
	if storage == "" {
		storage = DefaultStorage
	}

	bw := bufio.NewWriter(w)
	guard := strings.ToUpper(name) + "_H"
	t1, t2 := res.Track(1), res.Track(2)

	fmt.Fprintf(bw, "#ifndef %s\n", guard)
	fmt.Fprintf(bw, "#define %s\n", guard)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "const int %s_Size1 = %d;\n", name, len(t1.Notes))
	fmt.Fprintf(bw, "const int %s_Size2 = %d;\n", name, len(t2.Notes))
	fmt.Fprintln(bw)

	writeArray(bw, name+"_Notes1", storage, t1.Notes)
	fmt.Fprintln(bw)
	writeArray(bw, name+"_Durations1", storage, itoa(t1.Durations))
	fmt.Fprintln(bw)
	writeArray(bw, name+"_Notes2", storage, t2.Notes)
	fmt.Fprintln(bw)
	writeArray(bw, name+"_Durations2", storage, itoa(t2.Durations))
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "#endif")
	fmt.Fprintln(bw)
	return bw.Flush()
}

// WriteFile writes <dir>/<name>.h, creating dir if needed, and returns the
// path written.
func WriteFile(dir, name string, res *dumpparse.Result, storage string) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(dir, name+".h")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create header: %w", err)
	}
	defer f.Close()

	if err := Write(f, name, res, storage); err != nil {
		return "", fmt.Errorf("failed to write header %s: %w", path, err)
	}
	return path, f.Close()
}

func writeArray(w io.Writer, name, storage string, values []string) {
	fmt.Fprintf(w, "const int %s[] %s = {\n", name, storage)
	fmt.Fprintf(w, "  %s\n", strings.Join(values, ", "))
	fmt.Fprintln(w, "};")
}

func itoa(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}

func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, os.ModePerm)
}
