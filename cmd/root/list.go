package root

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/outfleet/bget/pkg/download"
)

// The input file is a newline-separated list of absolute URLs. Blank lines
// are ignored. The destination file name is the URL's final path segment;
// names carrying a DM_/DO_/DA_ prefix are routed into a matching subfolder of
// the output directory.

var subfolderPrefixes = []string{"DM_", "DO_", "DA_"}

func parseURLList(r io.Reader, outputDir string) ([]download.Request, error) {
	var requests []download.Request
	seenDestinations := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		dest, err := destinationFor(line, outputDir)
		if err != nil {
			return nil, err
		}
		if seenURL, ok := seenDestinations[dest]; ok {
			return nil, fmt.Errorf("duplicate destination %s for urls %s and %s", dest, seenURL, line)
		}
		seenDestinations[dest] = line

		requests = append(requests, download.Request{URL: line, Dest: dest})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading url list: %w", err)
	}
	return requests, nil
}

// destinationFor derives the destination path for a URL.
func destinationFor(rawURL, outputDir string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid url %q: not absolute", rawURL)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("cannot derive a file name from url %q", rawURL)
	}

	for _, prefix := range subfolderPrefixes {
		if strings.HasPrefix(name, prefix) {
			return filepath.Join(outputDir, strings.TrimSuffix(prefix, "_"), name), nil
		}
	}
	return filepath.Join(outputDir, name), nil
}
