// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single render call.  The redirect
// page pushes its title, Open Graph, and Twitter card tags into a builder,
// then the template decides where to emit each slice.
//
// Features
// --------
//   - SetTitle        – single <title> tag (last call wins).
//   - Property, Name  – escaped <meta property|name content> pairs.
//   - Meta, Link      – pre-built tags with deduplication.
//   - Canonical       – escaped <link rel="canonical">.
//   - Render helpers  – concat methods that return template.HTML.
package head

import (
	"html/template"
	"strings"
	"sync"
)

// Builder is safe for concurrent writes, though typical use is one
// goroutine per render.
type Builder struct {
	mu sync.Mutex

	title string
	metas []string
	links []string

	// seen tracks keys for deduplication.
	seen map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// ------------------------------------------------------------------
// Single-value helper
// ------------------------------------------------------------------

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// ------------------------------------------------------------------
// Meta helpers
// ------------------------------------------------------------------

// Property adds <meta property="p" content="c">, the Open Graph form.
// Empty content is skipped.  The first value for a property wins.
func (b *Builder) Property(p, content string) {
	if content == "" {
		return
	}
	b.add("property:"+p, &b.metas, `<meta property="`+template.HTMLEscapeString(p)+
		`" content="`+template.HTMLEscapeString(content)+`">`)
}

// Name adds <meta name="n" content="c">, the Twitter card form.
func (b *Builder) Name(n, content string) {
	if content == "" {
		return
	}
	b.add("name:"+n, &b.metas, `<meta name="`+template.HTMLEscapeString(n)+
		`" content="`+template.HTMLEscapeString(content)+`">`)
}

// Social adds the Open Graph and Twitter card tags for a shared link.
func (b *Builder) Social(title, description, image, pageURL string) {
	b.Property("og:type", "website")
	b.Property("og:title", title)
	b.Property("og:description", description)
	b.Property("og:image", image)
	b.Property("og:url", pageURL)
	b.Name("description", description)
	b.Name("twitter:card", "summary_large_image")
	b.Name("twitter:title", title)
	b.Name("twitter:description", description)
	b.Name("twitter:image", image)
}

// ------------------------------------------------------------------
// Raw tag helpers with deduplication
// ------------------------------------------------------------------

// Meta and Link take a complete tag that the caller has already escaped.
func (b *Builder) Meta(tag string) { b.add("meta:"+tag, &b.metas, tag) }
func (b *Builder) Link(tag string) { b.add("link:"+tag, &b.links, tag) }

// Canonical adds <link rel="canonical">.  Only the first href is kept.
func (b *Builder) Canonical(href string) {
	if href == "" {
		return
	}
	b.add("canonical", &b.links, `<link rel="canonical" href="`+template.HTMLEscapeString(href)+`">`)
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// ------------------------------------------------------------------
// Rendering helpers called from templates
// ------------------------------------------------------------------

func (b *Builder) Metas() template.HTML { return b.concat(b.metas) }
func (b *Builder) Links() template.HTML { return b.concat(b.links) }

// concat joins pre-escaped tags with newlines.
func (b *Builder) concat(sl []string) template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	return template.HTML(strings.Join(sl, "\n"))
}
