// Package htmlsafe sanitizes admin-authored HTML for email delivery.
//
// Email clients ignore scripts and external stylesheets anyway; stripping
// them here keeps the stored templates and the preview surface identical
// to what actually ships in a message.
package htmlsafe

import "github.com/microcosm-cc/bluemonday"

var (
	emailPolicy  = buildEmailPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

func buildEmailPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Email rendering relies on inline styles and presentational table
	// attributes, which the UGC policy drops.
	p.AllowAttrs("style").Globally()
	p.AllowAttrs("align", "valign", "width", "height", "bgcolor", "border", "cellpadding", "cellspacing").
		OnElements("table", "thead", "tbody", "tfoot", "tr", "td", "th")
	p.AllowAttrs("width", "height", "align").OnElements("img")
	p.AllowElements("center")
	return p
}

// Sanitize reduces html to the email-safe subset: scripts, event handlers,
// and javascript: URLs are removed; inline styles, links, images, and table
// markup survive. Placeholder tokens like {{recordCount}} are plain text
// and pass through untouched.
func Sanitize(html string) string {
	return emailPolicy.Sanitize(html)
}

// StripTags removes all markup, leaving text content only. Used for
// subject lines and plain-text fallbacks.
func StripTags(html string) string {
	return strictPolicy.Sanitize(html)
}
