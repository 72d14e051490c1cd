// Package message parses raw RFC 5322 messages into a MIME part tree.
// Leaf parts keep their payload exactly as transported (still
// transfer-encoded); callers decode on demand via DecodedBody.
package message

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// Message is one mail message fetched from the mailbox.
type Message struct {
	// ID is the mailbox-assigned identifier (opaque, server-scoped).
	ID      string
	From    string
	Subject string
	Root    *Part
}

// Part is one node of the MIME tree. Multipart nodes are pure containers
// whose Children hold the nested parts in document order; all other nodes
// are leaves carrying the raw payload.
type Part struct {
	// ContentType is the normalized media type, e.g. "application/pdf".
	ContentType string
	// Params holds the Content-Type parameters (boundary, name, charset).
	Params map[string]string
	// Filename is the declared filename from Content-Disposition, falling
	// back to the Content-Type "name" parameter. Empty when none declared.
	Filename string
	// TransferEncoding is the lowercased Content-Transfer-Encoding value.
	TransferEncoding string
	// Body is the raw, still transfer-encoded payload. Nil for containers.
	Body []byte
	// Children holds nested parts for multipart containers.
	Children []*Part
}

// headerGetter is satisfied by both net/mail.Header and
// net/textproto.MIMEHeader.
type headerGetter interface {
	Get(key string) string
}

// Parse parses a raw RFC 5322 message into a Message identified by id.
func Parse(id string, raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("message: read message: %w", err)
	}

	root, err := buildPart(msg.Header, msg.Body)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:      id,
		From:    msg.Header.Get("From"),
		Subject: msg.Header.Get("Subject"),
		Root:    root,
	}, nil
}

// buildPart constructs one Part from a header block and body reader,
// recursing into multipart content.
func buildPart(header headerGetter, body io.Reader) (*Part, error) {
	// No Content-Type header means text/plain per RFC 2045.
	mediaType := "text/plain"
	var params map[string]string

	if ct := header.Get("Content-Type"); ct != "" {
		var err error
		mediaType, params, err = mime.ParseMediaType(ct)
		if err != nil {
			// Unparseable Content-Type; treat as an opaque binary leaf.
			mediaType = "application/octet-stream"
			params = nil
		}
	}

	p := &Part{
		ContentType:      mediaType,
		Params:           params,
		Filename:         partFilename(header, params),
		TransferEncoding: strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))),
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("message: multipart part missing boundary")
		}
		children, err := parseChildren(body, boundary)
		if err != nil {
			return nil, err
		}
		p.Children = children
		return p, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("message: read part body: %w", err)
	}
	p.Body = data
	return p, nil
}

// parseChildren reads every child part of a multipart body. NextRawPart is
// used so quoted-printable payloads are not transparently decoded; decoding
// stays an explicit, per-consumer step.
func parseChildren(r io.Reader, boundary string) ([]*Part, error) {
	mr := multipart.NewReader(r, boundary)

	var children []*Part
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			return children, nil
		}
		if err != nil {
			return nil, fmt.Errorf("message: read next part: %w", err)
		}

		child, err := buildPart(part.Header, part)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
}

// partFilename extracts the declared filename from Content-Disposition,
// falling back to the Content-Type "name" parameter.
func partFilename(header headerGetter, ctParams map[string]string) string {
	if disposition := header.Get("Content-Disposition"); disposition != "" {
		if _, dispParams, err := mime.ParseMediaType(disposition); err == nil {
			if filename := dispParams["filename"]; filename != "" {
				return filename
			}
		}
	}
	return ctParams["name"]
}

// MainType returns the major media type, e.g. "application" for
// "application/pdf".
func (p *Part) MainType() string {
	if i := strings.Index(p.ContentType, "/"); i >= 0 {
		return p.ContentType[:i]
	}
	return p.ContentType
}

// IsContainer reports whether the part is a multipart container.
func (p *Part) IsContainer() bool {
	return p.MainType() == "multipart"
}

// DecodedBody returns the payload with its Content-Transfer-Encoding
// reversed. 7bit, 8bit, binary, and empty encodings return the body as-is.
func (p *Part) DecodedBody() ([]byte, error) {
	switch p.TransferEncoding {
	case "base64":
		decoded, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, bytes.NewReader(p.Body)))
		if err != nil {
			return nil, fmt.Errorf("message: decode base64 body: %w", err)
		}
		return decoded, nil
	case "quoted-printable":
		decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(p.Body)))
		if err != nil {
			return nil, fmt.Errorf("message: decode quoted-printable body: %w", err)
		}
		return decoded, nil
	default:
		return p.Body, nil
	}
}

// Walk visits every part of the tree in document order, containers before
// their children. It stops at the first error from fn and returns it.
func (m *Message) Walk(fn func(*Part) error) error {
	return walk(m.Root, fn)
}

func walk(p *Part, fn func(*Part) error) error {
	if err := fn(p); err != nil {
		return err
	}
	for _, child := range p.Children {
		if err := walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}
