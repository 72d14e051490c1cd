// Package extract scans message content for candidate document URLs.
//
// Both scanners take content as it sits on the wire, presumed
// quoted-printable encoded, and reverse that encoding before matching.
// Running the decoder over content that was never encoded is harmless.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"mime/quotedprintable"
	"regexp"
)

var (
	// anchorHrefPattern matches the href value of an anchor tag, tolerating
	// arbitrary other attributes and either quote style. It is a deliberate
	// shortcut, not an HTML parse: malformed or unusually spaced tags are
	// missed.
	anchorHrefPattern = regexp.MustCompile(`(?i)<a\s+[^>]*?href\s*=\s*["']([^"']*)["']`)

	// textPDFPattern matches bare http(s) URLs whose path ends in .pdf,
	// capturing scheme and remainder separately.
	textPDFPattern = regexp.MustCompile(`(?i)(https?)(://\S+\.pdf)`)
)

// FromHTML returns every anchor href in the content, in document order,
// duplicates preserved. A quoted-printable decode failure is returned as an
// error, never swallowed.
func FromHTML(content []byte) ([]string, error) {
	decoded, err := decodeQuotedPrintable(content)
	if err != nil {
		return nil, fmt.Errorf("extract: decode html content: %w", err)
	}

	matches := anchorHrefPattern.FindAllStringSubmatch(string(decoded), -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1])
	}
	return urls, nil
}

// FromText returns every bare http(s) URL ending in .pdf in the content, in
// document order, duplicates preserved. URLs without an http(s) scheme are
// not recognized. A quoted-printable decode failure is returned as an error.
func FromText(content []byte) ([]string, error) {
	decoded, err := decodeQuotedPrintable(content)
	if err != nil {
		return nil, fmt.Errorf("extract: decode text content: %w", err)
	}

	matches := textPDFPattern.FindAllStringSubmatch(string(decoded), -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1]+m[2])
	}
	return urls, nil
}

func decodeQuotedPrintable(content []byte) ([]byte, error) {
	return io.ReadAll(quotedprintable.NewReader(bytes.NewReader(content)))
}
