package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Writer interface {
	Write(path string, sheets []UserSheet) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatForPath returns format when set and otherwise infers it from the file extension.
func FormatForPath(format, path string) string {
	if normalized := normalizeFormat(format); normalized != "" {
		return normalized
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "csv"
	}
	return "excel"
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

// stagedFile is a fully written temp file waiting to be renamed over target.
type stagedFile struct {
	tmp    string
	target string
}

// stageFile writes a temp file in the target directory. The caller renames it
// with commit or removes it with discard.
func stageFile(path string, write func(tmp *os.File) error) (stagedFile, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return stagedFile{}, fmt.Errorf("target %s is a directory", path)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return stagedFile{}, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	staged := stagedFile{tmp: tmp.Name(), target: path}

	if err := write(tmp); err != nil {
		tmp.Close()
		staged.discard()
		return stagedFile{}, err
	}
	if err := tmp.Close(); err != nil {
		staged.discard()
		return stagedFile{}, fmt.Errorf("close temp file %s: %w", staged.tmp, err)
	}
	return staged, nil
}

func (f stagedFile) commit() error {
	if err := os.Rename(f.tmp, f.target); err != nil {
		return fmt.Errorf("rename %s to %s: %w", f.tmp, f.target, err)
	}
	return nil
}

func (f stagedFile) discard() {
	_ = os.Remove(f.tmp)
}

// writeAtomic hands a temp file in the target directory to write and renames
// it over path once write succeeded.
func writeAtomic(path string, write func(tmp *os.File) error) error {
	staged, err := stageFile(path, write)
	if err != nil {
		return err
	}
	if err := staged.commit(); err != nil {
		staged.discard()
		return err
	}
	return nil
}
