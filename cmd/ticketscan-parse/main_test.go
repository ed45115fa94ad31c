package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (map[string]any, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return nil, err
	}
	var body map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &body), out.String())
	return body, nil
}

func TestTextFromStdin(t *testing.T) {
	body, err := runCLI(t, "レ・ミゼラブル WORLD TOUR\n『LES MISERABLES』\n主催：〇〇\n2025年8月10日\n2025/7/1\n", "text")
	require.NoError(t, err)
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "2025-08-10", fields["event_date"])
	assert.Nil(t, fields["venue"])
	assert.Equal(t, "レ・ミゼラブル WORLD TOUR 『LES MISERABLES』", fields["title"])
}

func TestTextFromFileWithCatalog(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "ticket.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("KT Zepp Yokohama\n日本武道館\n"), 0o600))
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte("version: cli-test\nvenues: [KT Zepp Yokohama]\ntitle_keywords: []\n"), 0o600))

	body, err := runCLI(t, "", "--catalog", catalog, "text", textFile)
	require.NoError(t, err)
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "KT Zepp Yokohama", fields["venue"])
	assert.Equal(t, "KT Zepp Yokohama\n日本武道館\n", body["raw_text"])
}

func TestTextErrors(t *testing.T) {
	_, err := runCLI(t, "", "text", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	_, err = runCLI(t, "", "--catalog", filepath.Join(t.TempDir(), "missing.yaml"), "text")
	assert.Error(t, err)

	_, err = runCLI(t, "", "image")
	assert.Error(t, err)
}

func TestImageWithFakeBackend(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "fake.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("25年8月10日\n東京巨蛋\n"), 0o600))
	img := filepath.Join(dir, "ticket.jpg")
	require.NoError(t, os.WriteFile(img, []byte{0xff, 0xd8, 0xff}, 0o600))

	t.Setenv("USE_FAKE_TEXT", "true")
	t.Setenv("FAKE_TEXT_FILE", textFile)

	body, err := runCLI(t, "", "image", img, "--timeout", "5s")
	require.NoError(t, err)
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "2025-08-10", fields["event_date"])
	assert.Equal(t, "東京巨蛋", fields["venue"])
}
