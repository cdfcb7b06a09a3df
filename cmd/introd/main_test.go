package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-intro-broker/internal/config"
	"github.com/tbourn/go-intro-broker/internal/outbound"
	"github.com/tbourn/go-intro-broker/internal/render"
	"github.com/tbourn/go-intro-broker/internal/templates"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "introd version "+Version+"\n", out.String())
}

func TestCheckTemplates_Defaults(t *testing.T) {
	var out bytes.Buffer
	n, err := checkTemplates(&out, "", render.DefaultSMSLimit)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, out.String(), "connection_request")
	assert.Contains(t, out.String(), "0 issue(s)")
}

func TestTemplatesCheck_StrictFailsOnOverlayIssues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	overlay := `templates:
  - type: nudge
    channel: sms
    body: "Hi {first_name}, {mystery} is waiting"
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o600))

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "none.env"), "templates", "check", "--file", path, "--strict"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue(s)")
	// unknown token and missing link
	assert.Contains(t, out.String(), "unknown_token")
	assert.Equal(t, len(templates.Defaults())+1, strings.Count(out.String(), "token(s)"))
}

func TestTemplatesCheck_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - type: x\n    channel: FAX\n    body: hi\n"), 0o600))

	_, err := checkTemplates(&bytes.Buffer{}, path, 0)
	require.ErrorIs(t, err, templates.ErrInvalid)
}

func TestNewSender_Log(t *testing.T) {
	s, closeFn, err := newSender(config.OutboundConfig{Kind: "log"})
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	defer closeFn()
	assert.IsType(t, &outbound.LogSender{}, s)
}

func TestNewSender_NATSUnreachable(t *testing.T) {
	_, _, err := newSender(config.OutboundConfig{Kind: "nats", NATSURL: "nats://127.0.0.1:1", SubjectPrefix: "intro.test"})
	require.Error(t, err)
}
