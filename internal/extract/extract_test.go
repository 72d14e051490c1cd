package extract

import (
	"testing"
)

func TestFromHTML_SingleAnchor(t *testing.T) {
	content := []byte(`<a href="https://site.com/doc.pdf">link</a>`)

	urls, err := FromHTML(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 1 || urls[0] != "https://site.com/doc.pdf" {
		t.Errorf("urls = %v, want [https://site.com/doc.pdf]", urls)
	}
}

func TestFromHTML_NoAnchors(t *testing.T) {
	content := []byte(`<p>No links here, just text about a filing.</p>`)

	urls, err := FromHTML(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 0 {
		t.Errorf("urls = %v, want empty", urls)
	}
}

func TestFromHTML_SingleQuotesAndExtraAttributes(t *testing.T) {
	content := []byte(`<A class="btn" target='_blank' HREF='https://court.example.gov/filings/motion.pdf' rel="noopener">Download</A>`)

	urls, err := FromHTML(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 1 || urls[0] != "https://court.example.gov/filings/motion.pdf" {
		t.Errorf("urls = %v, want the single-quoted href", urls)
	}
}

func TestFromHTML_OrderAndDuplicatesPreserved(t *testing.T) {
	content := []byte(`
		<a href="https://a.example/1.pdf">one</a>
		<a href="https://a.example/2.pdf">two</a>
		<a href="https://a.example/1.pdf">one again</a>`)

	urls, err := FromHTML(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"https://a.example/1.pdf",
		"https://a.example/2.pdf",
		"https://a.example/1.pdf",
	}
	if len(urls) != len(want) {
		t.Fatalf("got %d urls, want %d: %v", len(urls), len(want), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestFromHTML_DecodesQuotedPrintableFirst(t *testing.T) {
	// On the wire the = of href= is escaped as =3D; matching without
	// decoding first would miss the anchor entirely.
	content := []byte(`<a href=3D"https://site.com/served.pdf">served copy</a>`)

	urls, err := FromHTML(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 1 || urls[0] != "https://site.com/served.pdf" {
		t.Errorf("urls = %v, want decoded href", urls)
	}
}

func TestFromHTML_DecodeFailure(t *testing.T) {
	// An = escape followed by a bare CR is invalid quoted-printable.
	content := []byte("prefix =\rX suffix")

	if _, err := FromHTML(content); err == nil {
		t.Error("expected decode error, got nil")
	}
}

func TestFromText_BareURL(t *testing.T) {
	content := []byte("see https://site.com/f.pdf now")

	urls, err := FromText(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 1 || urls[0] != "https://site.com/f.pdf" {
		t.Errorf("urls = %v, want [https://site.com/f.pdf]", urls)
	}
}

func TestFromText_SchemelessURLNotRecognized(t *testing.T) {
	content := []byte("download from www.site.com/f.pdf today")

	urls, err := FromText(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 0 {
		t.Errorf("urls = %v, want empty for schemeless URL", urls)
	}
}

func TestFromText_CaseInsensitiveScheme(t *testing.T) {
	content := []byte("HTTP://COURT.EXAMPLE.GOV/ORDER.PDF is attached")

	urls, err := FromText(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 1 || urls[0] != "HTTP://COURT.EXAMPLE.GOV/ORDER.PDF" {
		t.Errorf("urls = %v, want the original-case match", urls)
	}
}

func TestFromText_IgnoresNonPDF(t *testing.T) {
	content := []byte("visit https://site.com/page.html and http://site.com/doc.docx")

	urls, err := FromText(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 0 {
		t.Errorf("urls = %v, want empty for non-pdf URLs", urls)
	}
}

func TestFromText_MultipleURLsInOrder(t *testing.T) {
	content := []byte("first http://a.example/x.pdf then https://b.example/y.pdf done")

	urls, err := FromText(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 2 || urls[0] != "http://a.example/x.pdf" || urls[1] != "https://b.example/y.pdf" {
		t.Errorf("urls = %v, want both pdf urls in order", urls)
	}
}

func TestFromText_DecodesQuotedPrintableFirst(t *testing.T) {
	// A soft line break (=\r\n) splits the URL across lines on the wire.
	content := []byte("fetch https://site.com/long-na=\r\nme.pdf please")

	urls, err := FromText(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 1 || urls[0] != "https://site.com/long-name.pdf" {
		t.Errorf("urls = %v, want re-joined URL", urls)
	}
}

func TestFromText_DecodeFailure(t *testing.T) {
	content := []byte("broken =\rX escape")

	if _, err := FromText(content); err == nil {
		t.Error("expected decode error, got nil")
	}
}
