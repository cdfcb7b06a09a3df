package templates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/render"
)

func TestDefaults_AreValidAndClean(t *testing.T) {
	ts := Defaults()
	require.NotEmpty(t, ts)
	assert.Empty(t, Check(ts, render.DefaultSMSLimit))
	for _, tpl := range ts {
		assert.NotEmpty(t, tpl.Tokens, "%s/%s", tpl.Type, tpl.Channel)
		if tpl.Channel == domain.ChannelEmail {
			assert.Equal(t, 2, render.EditableCount(tpl.Body), "%s email body should have two editable blocks", tpl.Type)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"yaml":      "templates: [",
		"no type":   "templates:\n  - channel: SMS\n    body: x",
		"channel":   "templates:\n  - type: a\n    channel: FAX\n    body: x",
		"body":      "templates:\n  - type: a\n    channel: SMS\n    body: '  '",
		"subject":   "templates:\n  - type: a\n    channel: SMS\n    subject: s\n    body: x",
		"duplicate": "templates:\n  - type: a\n    channel: sms\n    body: x\n  - type: a\n    channel: SMS\n    body: y",
	}
	for name, in := range cases {
		_, err := Parse([]byte(in))
		assert.Error(t, err, name)
		if name != "yaml" {
			assert.True(t, errors.Is(err, ErrInvalid), name)
		}
	}
}

func TestParse_NormalisesChannelAndTokens(t *testing.T) {
	ts, err := Parse([]byte("templates:\n  - type: t\n    channel: sms\n    body: 'hi {first_name} {link}'"))
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, domain.ChannelSMS, ts[0].Channel)
	assert.Equal(t, []string{"first_name", "link"}, ts[0].Tokens)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestRegistry_OverlayAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	writeFile(t, path, "templates:\n  - type: connection_request\n    channel: SMS\n    body: 'custom {link}'\n  - type: extra\n    channel: SMS\n    body: 'x {link}'")

	r, err := NewRegistry(path)
	require.NoError(t, err)
	got, ok := r.Get("connection_request", domain.ChannelSMS)
	require.True(t, ok)
	assert.Equal(t, "custom {link}", got.Body)
	_, ok = r.Get("extra", domain.ChannelSMS)
	assert.True(t, ok)
	_, ok = r.Get("introduction_request", domain.ChannelEmail)
	assert.True(t, ok, "defaults stay available")

	list := r.List()
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Type, list[i].Type)
	}

	writeFile(t, path, "templates: [")
	assert.Error(t, r.Reload())
	got, _ = r.Get("connection_request", domain.ChannelSMS)
	assert.Equal(t, "custom {link}", got.Body, "failed reload keeps previous set")

	_, err = NewRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegistry_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	writeFile(t, path, "templates:\n  - type: w\n    channel: SMS\n    body: 'one {link}'")
	r, err := NewRegistry(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan error, 4)
	require.NoError(t, r.Watch(ctx, 20*time.Millisecond, func(err error) { reloaded <- err }))

	writeFile(t, path, "templates:\n  - type: w\n    channel: SMS\n    body: 'two {link}'")
	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
	got, _ := r.Get("w", domain.ChannelSMS)
	assert.Equal(t, "two {link}", got.Body)

	assert.Error(t, FromTemplates().Watch(ctx, 0, nil))
}

func TestCheck_FindsIssues(t *testing.T) {
	ts := []domain.MessageTemplate{
		{Type: "a", Channel: domain.ChannelSMS, Body: "hi {nickname}"},
		{Type: "b", Channel: domain.ChannelEmail, Body: "<p>x</p>", RequiresLink: true},
		{Type: "c", Channel: domain.ChannelSMS, Body: "0123456789 {link}"},
	}
	issues := Check(ts, 5)
	codes := map[string]int{}
	for _, i := range issues {
		codes[i.Code]++
		assert.NotEmpty(t, i.String())
	}
	assert.Equal(t, 1, codes["unknown_token"])
	assert.Equal(t, 2, codes[render.WarnTemplateIncomplete])
	assert.Equal(t, 1, codes[render.WarnOverLimit])
}

func TestFromTemplates(t *testing.T) {
	r := FromTemplates(domain.MessageTemplate{Type: "x", Channel: domain.ChannelEmail, Body: "b"})
	_, ok := r.Get("x", domain.ChannelEmail)
	assert.True(t, ok)
	assert.Len(t, r.List(), 1)
	assert.Equal(t, "", r.Path())
}
