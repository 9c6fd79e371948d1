package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLinter(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "ok.go", "package q\n\nconst QOk = `--sql 11111111-1111-4111-8111-111111111111\nselect 1;\n`\n\nconst Greeting = \"hello\"\n")
	writeGo(t, dir, "missing.go", "package q\n\nconst QMissing = `\ncreate table t (id int);\n`\n")
	writeGo(t, dir, "dup.go", "package q\n\nconst QDup = `--sql 11111111-1111-4111-8111-111111111111\ndelete from t;\n`\n")

	l := newLinter()
	if err := l.lintPath(dir); err != nil {
		t.Fatalf("lintPath: %v", err)
	}
	violations := l.finish()
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(violations), violations)
	}

	var messages []string
	for _, v := range violations {
		messages = append(messages, v.String())
	}
	joined := strings.Join(messages, "\n")
	if !strings.Contains(joined, "QMissing") || !strings.Contains(joined, "missing or invalid") {
		t.Fatalf("missing marker not reported: %s", joined)
	}
	if !strings.Contains(joined, "already used by") {
		t.Fatalf("duplicate marker not reported: %s", joined)
	}
}

func TestLinterAcceptsRepositoryQueries(t *testing.T) {
	l := newLinter()
	if err := l.lintPath(filepath.Join("..", "..", "sqlinline")); err != nil {
		t.Fatalf("lintPath: %v", err)
	}
	if violations := l.finish(); len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
}

func TestLooksLikeSQL(t *testing.T) {
	tests := map[string]bool{
		"select * from t":                   true,
		"--sql x\ninsert into t values (1)": true,
		"  CREATE TABLE t (id int)":         true,
		"photorealistic portrait":           false,
		"please select a setting":           false,
	}
	for in, want := range tests {
		if got := looksLikeSQL(in); got != want {
			t.Fatalf("looksLikeSQL(%q) = %v, want %v", in, got, want)
		}
	}
}
