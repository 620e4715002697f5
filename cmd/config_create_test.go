package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeExecutable(dir string) func() (string, error) {
	return func() (string, error) {
		return filepath.Join(dir, "jwlrep"), nil
	}
}

func TestCreateConfig_WritesTOMLBesideExecutable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, created, err := createConfig("", "", fakeExecutable(dir))
	if err != nil {
		t.Fatalf("create config: %v", err)
	}
	if !created {
		t.Fatalf("expected config to be created")
	}
	if want := filepath.Join(dir, "jwlrep.toml"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(content), "[credentials]") || !strings.Contains(string(content), `users = ["alice", "bob"]`) {
		t.Fatalf("expected toml template, got:\n%s", content)
	}
	if _, err := validateConfigFile(path); err != nil {
		t.Fatalf("expected created config to validate: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %o", info.Mode().Perm())
	}
}

func TestCreateConfig_LeavesConfigInUseAlone(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inUse := filepath.Join(t.TempDir(), "jwlrep.yaml")

	path, created, err := createConfig("", inUse, fakeExecutable(dir))
	if err != nil {
		t.Fatalf("create config: %v", err)
	}
	if created || path != inUse {
		t.Fatalf("expected in-use config %s to be reported, got %s (created=%v)", inUse, path, created)
	}
	if _, err := os.Stat(filepath.Join(dir, "jwlrep.toml")); !os.IsNotExist(err) {
		t.Fatalf("expected no file beside the executable, got %v", err)
	}
}

func TestCreateConfig_ExplicitYAMLPath(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "nested", "custom.yaml")
	path, created, err := createConfig(target, "/elsewhere/jwlrep.toml", fakeExecutable(t.TempDir()))
	if err != nil {
		t.Fatalf("create config: %v", err)
	}
	if !created || path != target {
		t.Fatalf("expected %s to be created, got %s (created=%v)", target, path, created)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(content), "credentials:\n") {
		t.Fatalf("expected yaml template, got:\n%s", content)
	}
}

func TestCreateConfig_DoesNotOverwriteExistingFile(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "jwlrep.toml")
	original := "[options]\nweek = 10\n"
	if err := os.WriteFile(target, []byte(original), 0o644); err != nil {
		t.Fatalf("write initial config: %v", err)
	}

	_, created, err := createConfig(target, "", fakeExecutable(t.TempDir()))
	if err != nil {
		t.Fatalf("create config: %v", err)
	}
	if created {
		t.Fatalf("did not expect existing file to be recreated")
	}
	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(content) != original {
		t.Fatalf("expected existing config to remain unchanged, got:\n%s", content)
	}
}

func TestCreateConfig_Errors(t *testing.T) {
	t.Parallel()

	if _, _, err := createConfig(filepath.Join(t.TempDir(), "jwlrep.json"), "", fakeExecutable(t.TempDir())); err == nil {
		t.Fatalf("expected unsupported extension to fail")
	}

	noExe := func() (string, error) { return "", errors.New("no executable") }
	if _, _, err := createConfig("", "", noExe); err == nil {
		t.Fatalf("expected executable lookup failure to surface")
	}
}
