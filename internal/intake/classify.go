package intake

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/pleadbot/mail-intake/internal/message"
)

// Action is the disposition the classifier assigns to one MIME part.
type Action int

const (
	// ActionContainer marks a multipart part: only its children are visited.
	ActionContainer Action = iota
	// ActionAttachment saves the part's decoded payload directly.
	ActionAttachment
	// ActionHTMLLinks scans the part for anchor hrefs and fetches PDF links.
	ActionHTMLLinks
	// ActionTextLinks scans the part for bare PDF URLs and fetches them.
	ActionTextLinks
	// ActionSkip logs and ignores the part; not an error.
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionContainer:
		return "container"
	case ActionAttachment:
		return "attachment"
	case ActionHTMLLinks:
		return "html_links"
	case ActionTextLinks:
		return "text_links"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// mimeExtensions maps declared MIME types to file extensions. The table is
// fixed in the repo rather than read from the platform MIME registry so
// generated filenames are identical on every host.
var mimeExtensions = map[string]string{
	"application/pdf":          ".pdf",
	"application/msword":       ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/zip":          ".zip",
	"application/octet-stream": ".bin",
	"text/html":                ".html",
	"text/plain":               ".txt",
	"text/csv":                 ".csv",
	"image/jpeg":               ".jpg",
	"image/png":                ".png",
	"image/gif":                ".gif",
	"image/tiff":               ".tiff",
	"message/rfc822":           ".eml",
}

// ExtensionFor derives the extension used for dispatch and for generated
// filenames: the declared filename's extension when one exists, else the
// fixed MIME-type mapping, else ".bin".
func ExtensionFor(p *message.Part) string {
	if p.Filename != "" {
		if ext := path.Ext(p.Filename); ext != "" {
			return strings.ToLower(ext)
		}
	}
	if ext, ok := mimeExtensions[p.ContentType]; ok {
		return ext
	}
	return ".bin"
}

// Classify routes one part to its action. Extension rows are checked
// before the content-type row, mirroring the dispatch table order.
func Classify(p *message.Part) Action {
	if p.IsContainer() {
		return ActionContainer
	}
	switch ext := ExtensionFor(p); {
	case ext == ".pdf":
		return ActionAttachment
	case ext == ".html" || ext == ".htm":
		return ActionHTMLLinks
	case p.ContentType == "text/plain":
		return ActionTextLinks
	default:
		return ActionSkip
	}
}

// PartFileName builds the collision-safe target name for an attachment
// part: the declared filename prefixed with the msgid, or the
// sender-and-counter form when no filename was declared. n is the 1-based
// ordinal of the part among non-container parts in traversal order.
func PartFileName(msgID, from string, p *message.Part, n int) string {
	if p.Filename != "" {
		return msgID + "-" + p.Filename
	}
	return fmt.Sprintf("%s-%s-part-%d%s", msgID, SanitizeFromName(from), n, ExtensionFor(p))
}

// LinkFileName builds the target name for a fetched link candidate from
// the basename of the URL path. Degenerate basenames (empty path, bare
// host, trailing slash resolving to nothing) fall back to the
// sender-and-counter form with a .pdf extension.
func LinkFileName(msgID, rawURL, from string, n int) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	if base == "" || base == "." || base == "/" {
		return fmt.Sprintf("%s-%s-part-%d.pdf", msgID, SanitizeFromName(from), n)
	}
	return msgID + "-" + base
}

// IsPDFURL reports whether a URL's path basename ends in .pdf. Extracted
// hrefs that point elsewhere never become candidates.
func IsPDFURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}
