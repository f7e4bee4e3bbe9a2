package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/dbroute/internal/config"
	"github.com/JonMunkholm/dbroute/internal/core"
	"github.com/JonMunkholm/dbroute/internal/normalize"
	"github.com/JonMunkholm/dbroute/internal/sink"
)

type fakeService struct {
	got     core.Request
	outcome *core.Outcome
	err     error
}

func (f *fakeService) Ingest(_ context.Context, req core.Request) (*core.Outcome, error) {
	f.got = req
	return f.outcome, f.err
}

func useFake(t *testing.T, f *fakeService) {
	t.Helper()
	prev := newService
	newService = func(*config.Config) ingester { return f }
	t.Cleanup(func() { newService = prev })
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(append(args, "--env-file", ""))
	cmd.SetOut(&errOut)
	err = cmd.ExecuteContext(context.Background())
	if err != nil {
		errOut.WriteString("Error: " + userError(err) + "\n")
	}
	return out.String(), errOut.String(), err
}

func TestRun_PrintsOutcome(t *testing.T) {
	f := &fakeService{outcome: &core.Outcome{
		Message: "Data successfully inserted into mysql in table people (1 inserted, 1 failed)",
		Errors:  []sink.RowError{{Row: 2, Err: errors.New("bad value")}},
	}}
	useFake(t, f)
	path := writeFile(t, "people.dat", "name\nada\n")

	stdout, stderr, err := execute(t, "--file", path, "--target", "mysql", "--name", "people", "--format", "csv")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if got, want := strings.TrimSpace(stdout), f.outcome.Message; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if !strings.Contains(stderr, "row 2: bad value") {
		t.Errorf("stderr = %q, want row error", stderr)
	}

	want := core.Request{
		FileName:   "people.dat",
		Data:       []byte("name\nada\n"),
		SourceKind: normalize.KindCSV,
		Target:     "mysql",
		Name:       "people",
	}
	if diff := cmp.Diff(want, f.got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_JSON(t *testing.T) {
	useFake(t, &fakeService{outcome: &core.Outcome{Message: "ok", Inserted: 3}})
	path := writeFile(t, "a.json", `[{"a":1}]`)

	stdout, _, err := execute(t, "-f", path, "-t", "dynamodb", "-n", "items", "--json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stdout, `"inserted": 3`) {
		t.Errorf("stdout = %q, want JSON outcome", stdout)
	}
}

func TestRun_Errors(t *testing.T) {
	path := writeFile(t, "a.csv", "a\n1\n")

	tests := []struct {
		name    string
		args    []string
		err     error
		wantMsg string
	}{
		{
			name:    "service error is mapped",
			args:    []string{"-f", path, "-t", "oracle"},
			err:     &sink.UnsupportedTargetError{Target: "oracle"},
			wantMsg: "TGT001",
		},
		{
			name:    "missing file",
			args:    []string{"-f", filepath.Join(t.TempDir(), "nope.csv"), "-t", "mysql"},
			wantMsg: "nope.csv",
		},
		{
			name:    "bad format flag",
			args:    []string{"-f", path, "-t", "mysql", "--format", "yaml"},
			wantMsg: "FMT001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useFake(t, &fakeService{err: tt.err})
			_, stderr, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("execute succeeded, want error")
			}
			if !strings.Contains(stderr, tt.wantMsg) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantMsg)
			}
		})
	}
}

func TestRootCommand_RequiresFlags(t *testing.T) {
	if _, _, err := execute(t, "--target", "mysql"); err == nil {
		t.Error("execute without --file succeeded, want error")
	}
}

func TestLoadEnv(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if err := loadEnv(&options{env: ".env"}); err != nil {
		t.Errorf("loadEnv(default, missing) error = %v, want nil", err)
	}
	if err := loadEnv(&options{env: ".env", envSet: true}); err == nil {
		t.Error("loadEnv(explicit, missing) error = nil, want error")
	}
	if err := loadEnv(&options{env: "prod.env", envSet: true}); err == nil {
		t.Error("loadEnv(explicit other file, missing) error = nil, want error")
	}

	if err := os.WriteFile("set.env", []byte("DBROUTE_TEST_ENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DBROUTE_TEST_ENV", "")
	os.Unsetenv("DBROUTE_TEST_ENV")
	if err := loadEnv(&options{env: "set.env", envSet: true}); err != nil {
		t.Fatalf("loadEnv(existing) error = %v", err)
	}
	if got := os.Getenv("DBROUTE_TEST_ENV"); got != "loaded" {
		t.Errorf("DBROUTE_TEST_ENV = %q, want %q", got, "loaded")
	}
}

func TestRun_ExplicitEnvFileMissing(t *testing.T) {
	useFake(t, &fakeService{outcome: &core.Outcome{Message: "ok"}})
	path := writeFile(t, "a.csv", "a\n1\n")
	missing := filepath.Join(t.TempDir(), "nope.env")

	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs([]string{"-f", path, "-t", "mysql", "--env-file", missing})
	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "nope.env") {
		t.Errorf("execute error = %v, want env file error", err)
	}
}
