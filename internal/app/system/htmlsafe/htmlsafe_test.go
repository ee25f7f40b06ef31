package htmlsafe_test

import (
	"strings"
	"testing"

	"github.com/civicatlas/notifyhub/internal/app/system/htmlsafe"
)

func TestSanitizeEmpty(t *testing.T) {
	if got := htmlsafe.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitizePlainText(t *testing.T) {
	if got := htmlsafe.Sanitize("Hello, World!"); got != "Hello, World!" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestSanitizeKeepsSafeHTML(t *testing.T) {
	input := "<p><strong>Bold</strong> and <em>italic</em></p>"
	if got := htmlsafe.Sanitize(input); got != input {
		t.Errorf("expected safe HTML preserved, got %q", got)
	}
}

func TestSanitizeRemovesScript(t *testing.T) {
	input := "<p>Hello</p><script>alert('xss')</script>"
	if got := htmlsafe.Sanitize(input); got != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitizeRemovesOnclick(t *testing.T) {
	input := `<button onclick="alert('xss')">Click</button>`
	if got := htmlsafe.Sanitize(input); got == input {
		t.Error("expected onclick attribute to be removed")
	}
}

func TestSanitizeRemovesJavascriptHref(t *testing.T) {
	input := `<a href="javascript:alert('xss')">Click</a>`
	if got := htmlsafe.Sanitize(input); got == input {
		t.Error("expected javascript: href to be removed")
	}
}

func TestSanitizeKeepsInlineStyles(t *testing.T) {
	input := `<td style="color: #1A2B3C; padding: 8px">Cell</td>`
	got := htmlsafe.Sanitize(input)
	if !strings.Contains(got, "style=") {
		t.Errorf("expected inline style preserved, got %q", got)
	}
}

func TestSanitizeKeepsTableMarkup(t *testing.T) {
	input := `<table cellpadding="4" cellspacing="0" width="100%"><tr><td align="left">Cell</td></tr></table>`
	got := htmlsafe.Sanitize(input)
	for _, want := range []string{`cellpadding="4"`, `width="100%"`, `align="left"`} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s preserved, got %q", want, got)
		}
	}
}

func TestSanitizeKeepsPlaceholders(t *testing.T) {
	input := `<p>{{recordCount}} records since {{startDate}}</p>`
	got := htmlsafe.Sanitize(input)
	if !strings.Contains(got, "{{recordCount}}") || !strings.Contains(got, "{{startDate}}") {
		t.Errorf("expected placeholder tokens untouched, got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	input := `<p>New <strong>road closures</strong> this week</p>`
	if got := htmlsafe.StripTags(input); got != "New road closures this week" {
		t.Errorf("StripTags = %q", got)
	}
}
