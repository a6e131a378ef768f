package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelSource = `package model

type User struct {
	ID    int     ` + "`rest:\"id,primaryKey\"`" + `
	Name  string  ` + "`rest:\"name\"`" + `
	Posts []*Post ` + "`rel:\"has_many,link:userId=id\"`" + `
}

type Post struct {
	ID     int ` + "`rest:\"id,primaryKey\"`" + `
	UserID int ` + "`rest:\"userId\"`" + `
}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GOFILE", "")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.go")
	require.NoError(t, os.WriteFile(path, []byte(modelSource), 0o600))
	return path
}

func TestGenerateType(t *testing.T) {
	source := writeModel(t)

	out, err := execute(t, "--source", source, "--type", "User", "--resource", "people")
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(source), "user_gen.go")
	assert.Contains(t, out, want)

	src, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(src), `orm.ResolveResourceName[User]("people")`)
	assert.NotContains(t, string(src), "PostModel = ")
}

func TestGenerateFile(t *testing.T) {
	source := writeModel(t)
	output := filepath.Join(t.TempDir(), "out.go")

	_, err := execute(t, "--source", source, "--output", output)
	require.NoError(t, err)

	src, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(src), "var UserModel = ")
	assert.Contains(t, string(src), "var PostModel = ")
}

func TestGenerateErrors(t *testing.T) {
	source := writeModel(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no source", args: []string{}},
		{name: "resource without type", args: []string{"--source", source, "--resource", "people"}},
		{name: "unknown type", args: []string{"--source", source, "--type", "Comment"}},
		{name: "missing file", args: []string{"--source", filepath.Join(t.TempDir(), "nope.go")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "restormgen dev\n", out)
}
