package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func vfsctl(t *testing.T, dir, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-C", dir}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return result{code, stdout.String(), stderr.String()}
}

func mustRun(t *testing.T, dir, stdin string, args ...string) string {
	t.Helper()
	r := vfsctl(t, dir, stdin, args...)
	assert.Equal(t, 0, r.code, "args = %v, stderr = %s", args, r.stderr)
	return r.stdout
}

func TestRun_files(t *testing.T) {
	dir := t.TempDir()

	mustRun(t, dir, "hello", "put", "a.txt")
	mustRun(t, dir, " world", "append", "a.txt")
	assert.Equal(t, "hello world", mustRun(t, dir, "", "cat", "a.txt"))

	bin, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	assert.NilError(t, err)
	assert.Equal(t, "hello world", string(bin))
	_, err = os.Stat(filepath.Join(dir, "a.txt.tmp"))
	assert.Assert(t, os.IsNotExist(err))

	r := vfsctl(t, dir, "x", "put", "-n", "a.txt")
	assert.Equal(t, 1, r.code)
	assert.Assert(t, strings.Contains(r.stderr, "exist"), r.stderr)
	assert.Equal(t, "hello world", mustRun(t, dir, "", "cat", "a.txt"))

	mustRun(t, dir, "", "cp", "a.txt", "b.txt")
	r = vfsctl(t, dir, "", "cp", "a.txt", "b.txt")
	assert.Equal(t, 1, r.code)
	mustRun(t, dir, "", "cp", "-f", "a.txt", "b.txt")

	mustRun(t, dir, "", "mkdir", "x/y")
	mustRun(t, dir, "", "mv", "b.txt", "x/y/c.txt")
	mustRun(t, dir, "", "mv", "x", "z")
	assert.Equal(t, "hello world", mustRun(t, dir, "", "cat", "z/y/c.txt"))

	assert.Equal(t, "z/\nz/y/\na.txt\nz/y/c.txt\n", mustRun(t, dir, "", "ls", "-r"))
	assert.Equal(t, "z/\na.txt\n", mustRun(t, dir, "", "ls"))
	assert.Equal(t, "z/y/c.txt\n", mustRun(t, dir, "", "ls", "-r", "z", "c.*"))

	r = vfsctl(t, dir, "", "rmdir", "z")
	assert.Equal(t, 1, r.code)
	mustRun(t, dir, "", "rmdir", "-r", "z")
	mustRun(t, dir, "", "rm", "a.txt")
	mustRun(t, dir, "", "rm", "-f", "a.txt")
	r = vfsctl(t, dir, "", "rm", "a.txt")
	assert.Equal(t, 1, r.code)

	assert.Equal(t, "", mustRun(t, dir, "", "ls", "-r"))
}

func TestRun_du(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, ".vfsctl.json"), []byte(`{
	"root": "data",
	"max_size": 10, // bytes
	"overflow": "ignore",
}`), 0o644))
	assert.NilError(t, os.Mkdir(filepath.Join(dir, "data"), 0o755))

	mustRun(t, dir, "12345", "put", "a")
	assert.Equal(t, "total\t5\nmax\t10\noverflow\tIgnoreWrites\n", mustRun(t, dir, "", "du"))

	out := mustRun(t, dir, "", "--max-size", "20", "--overflow", "throw", "du")
	assert.Equal(t, "total\t5\nmax\t20\noverflow\tThrowException\n", out)
}

func TestRun_capacity(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "12345", "put", "a")

	r := vfsctl(t, dir, "123456", "--max-size", "10", "put", "b")
	assert.Equal(t, 1, r.code)
	assert.Assert(t, strings.Contains(r.stderr, "capacity"), r.stderr)

	_, err := os.Stat(filepath.Join(dir, "b"))
	assert.Assert(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "b.tmp"))
	assert.Assert(t, os.IsNotExist(err))
}

func TestRun_usage(t *testing.T) {
	dir := t.TempDir()

	r := vfsctl(t, dir, "")
	assert.Equal(t, 2, r.code)
	assert.Assert(t, strings.Contains(r.stderr, "Commands:"))

	r = vfsctl(t, dir, "", "frob")
	assert.Equal(t, 2, r.code)
	assert.Assert(t, strings.Contains(r.stderr, `unknown command "frob"`))

	r = vfsctl(t, dir, "", "mv", "a")
	assert.Equal(t, 2, r.code)

	r = vfsctl(t, dir, "", "ls", "--help")
	assert.Equal(t, 0, r.code)
	assert.Assert(t, strings.Contains(r.stdout, "--recursive"))

	r = vfsctl(t, dir, "", "--overflow", "drop", "du")
	assert.Equal(t, 1, r.code)

	r = vfsctl(t, dir, "", "--root", "missing", "du")
	assert.Equal(t, 1, r.code)
}
