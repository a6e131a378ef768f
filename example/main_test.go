package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/restorm/orm"
)

func TestRootCommandRejectsArgs(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
	assert.Empty(t, out.String())
}

func TestOpenDefaultsToJSONPlaceholder(t *testing.T) {
	conn, err := open("", "", false, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://jsonplaceholder.typicode.com/", conn.BaseURI())
	assert.Equal(t, orm.JSONServer, conn.Dialect())
}

func TestOpenMissingConfigFile(t *testing.T) {
	_, err := open(filepath.Join(t.TempDir(), "missing.yaml"), "", false, zerolog.Nop())
	assert.Error(t, err)
}
