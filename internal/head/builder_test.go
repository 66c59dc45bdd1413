package head

import (
	"strings"
	"testing"
)

func TestSocialEscapesAndDedupes(t *testing.T) {
	b := New()
	b.SetTitle(`Tom & Jerry`)
	b.Social(`Say "hi"`, "Get <the> app", "https://acme.depl.link/images/og.jpg", "https://acme.depl.link/promo")
	b.Property("og:title", "ignored second value")

	if got := string(b.Title()); got != "<title>Tom &amp; Jerry</title>" {
		t.Fatalf("Title = %s", got)
	}

	metas := string(b.Metas())
	for _, want := range []string{
		`<meta property="og:title" content="Say &#34;hi&#34;">`,
		`<meta property="og:description" content="Get &lt;the&gt; app">`,
		`<meta name="twitter:card" content="summary_large_image">`,
		`<meta property="og:image" content="https://acme.depl.link/images/og.jpg">`,
	} {
		if !strings.Contains(metas, want) {
			t.Errorf("missing %s in\n%s", want, metas)
		}
	}
	if strings.Contains(metas, "ignored second value") {
		t.Error("duplicate og:title emitted")
	}
}

func TestEmptyContentSkipped(t *testing.T) {
	b := New()
	b.Property("og:image", "")
	if b.Metas() != "" {
		t.Fatalf("Metas = %q", b.Metas())
	}
}

func TestRawTagsAndCanonical(t *testing.T) {
	b := New()
	b.Meta(`<meta name="viewport" content="width=device-width">`)
	b.Meta(`<meta name="viewport" content="width=device-width">`)
	b.Canonical(`https://acme.depl.link/promo?a=1&b=2`)
	b.Canonical(`https://acme.depl.link/other`)
	b.Link(`<link rel="icon" href="/favicon.ico">`)

	if got := string(b.Metas()); got != `<meta name="viewport" content="width=device-width">` {
		t.Fatalf("Metas = %s", got)
	}
	want := `<link rel="canonical" href="https://acme.depl.link/promo?a=1&amp;b=2">` + "\n" +
		`<link rel="icon" href="/favicon.ico">`
	if got := string(b.Links()); got != want {
		t.Fatalf("Links = %s", got)
	}
}
