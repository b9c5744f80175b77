package root

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURLList(t *testing.T) {
	input := strings.Join([]string{
		"https://example.com/files/a.bin",
		"",
		"   ",
		"https://example.com/other/b.tar.gz",
		"\thttps://example.com/padded.bin  ",
	}, "\n")

	requests, err := parseURLList(strings.NewReader(input), "out")
	require.NoError(t, err)
	require.Len(t, requests, 3)

	assert.Equal(t, "https://example.com/files/a.bin", requests[0].URL)
	assert.Equal(t, filepath.Join("out", "a.bin"), requests[0].Dest)
	assert.Equal(t, filepath.Join("out", "b.tar.gz"), requests[1].Dest)
	assert.Equal(t, "https://example.com/padded.bin", requests[2].URL)
	assert.Equal(t, filepath.Join("out", "padded.bin"), requests[2].Dest)
}

func TestParseURLListEmpty(t *testing.T) {
	requests, err := parseURLList(strings.NewReader("\n\n  \n"), "out")
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestParseURLListSubfolderRouting(t *testing.T) {
	input := strings.Join([]string{
		"https://example.com/DM_report.pdf",
		"https://example.com/DO_archive.zip",
		"https://example.com/DA_data.csv",
		"https://example.com/plain.bin",
	}, "\n")

	requests, err := parseURLList(strings.NewReader(input), "out")
	require.NoError(t, err)
	require.Len(t, requests, 4)

	assert.Equal(t, filepath.Join("out", "DM", "DM_report.pdf"), requests[0].Dest)
	assert.Equal(t, filepath.Join("out", "DO", "DO_archive.zip"), requests[1].Dest)
	assert.Equal(t, filepath.Join("out", "DA", "DA_data.csv"), requests[2].Dest)
	assert.Equal(t, filepath.Join("out", "plain.bin"), requests[3].Dest)
}

func TestParseURLListDuplicateDestination(t *testing.T) {
	input := "https://a.example.com/v1/file.bin\nhttps://b.example.com/v2/file.bin\n"

	_, err := parseURLList(strings.NewReader(input), "out")
	assert.ErrorContains(t, err, "duplicate destination")
}

func TestDestinationForInvalidURLs(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "relative", url: "files/a.bin"},
		{name: "missing host", url: "https:///a.bin"},
		{name: "no path", url: "https://example.com"},
		{name: "root path only", url: "https://example.com/"},
		{name: "control character", url: "https://example.com/a\x01"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := destinationFor(tc.url, "out")
			assert.Error(t, err)
		})
	}
}
