// internal/redirect/page.go
//
// Holding, fallback, and not-found page renderer.
//
// Context
// -------
// A visit is answered with HTML, not a 3xx.  Link-preview crawlers read the
// Open Graph tags in <head>; real browsers run the inline script, which
// waits Delay before navigating to the Decision target.  Hold decisions
// render the same page without the script.
//
// Notes
// -----
//   - The template is embedded and parsed once at package init.
//   - html/template puts Target into a JS string context, so intent URLs
//     and query strings are escaped for the script body.
package redirect

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/yanizio/depl/internal/head"
	"github.com/yanizio/depl/internal/model"
)

// DefaultDelay is the wait before client-side navigation.
const DefaultDelay = time.Second

//go:embed templates/page.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// pageData is the template's view model.
type pageData struct {
	Head         *head.Builder
	Outcome      string
	Title        string
	Description  string
	Target       string
	DelayMS      int64
	PlayStoreURL string
	AppStoreURL  string
}

const viewportTag = `<meta name="viewport" content="width=device-width, initial-scale=1">`

// pageCSP allows the inline navigation script and remote preview images.
const pageCSP = "default-src 'none'; script-src 'unsafe-inline'; style-src 'unsafe-inline'; " +
	"img-src * data:; base-uri 'none'; frame-ancestors 'none'"

// Render writes the page for d.  Not-found decisions get status 404, the
// rest 200.
func Render(w http.ResponseWriter, d Decision, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultDelay
	}

	meta := model.SocialMeta{}.WithDefaults()
	pageURL := ""
	if d.Deeplink != nil {
		meta = d.Deeplink.SocialMeta.WithDefaults()
		pageURL = "https://" + d.LinkHost + "/" + d.Deeplink.Slug
	}

	h := head.New()
	h.SetTitle(meta.Title)
	h.Meta(viewportTag)
	h.Canonical(pageURL)
	if d.Outcome != OutcomeNotFound {
		h.Social(meta.Title, meta.Description, absoluteURL(d.LinkHost, meta.ThumbnailURL), pageURL)
	} else {
		h.Name("robots", "noindex")
	}

	data := pageData{
		Head:         h,
		Outcome:      string(d.Outcome),
		Title:        meta.Title,
		Description:  meta.Description,
		DelayMS:      delay.Milliseconds(),
		PlayStoreURL: d.PlayStoreURL,
		AppStoreURL:  d.AppStoreURL,
	}
	if d.Outcome == OutcomeRedirect {
		data.Target = d.Target
	}

	var buf bytes.Buffer
	if err := pageTmpl.ExecuteTemplate(&buf, "page.html", data); err != nil {
		return err
	}

	status := http.StatusOK
	if d.Outcome == OutcomeNotFound {
		status = http.StatusNotFound
	}
	hdr := w.Header()
	hdr.Set("Content-Type", "text/html; charset=utf-8")
	hdr.Set("Content-Security-Policy", pageCSP)
	hdr.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// absoluteURL resolves a root-relative thumbnail against the link host;
// crawlers ignore relative og:image values.
func absoluteURL(linkHost, u string) string {
	if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") && linkHost != "" {
		return "https://" + linkHost + u
	}
	return u
}
