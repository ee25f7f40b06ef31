// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// DigestEmailData holds data for the built-in notification digest layout,
// used when a notification has no custom email template.
type DigestEmailData struct {
	OrganizationName string
	NotificationName string
	Intro            string
	RecordCount      string
	DateRange        string
	RecordsTable     template.HTML // already sanitized by the caller
}

// BuildDigestEmail creates a digest email with both HTML and text bodies.
func BuildDigestEmail(data DigestEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("%s update from %s", data.NotificationName, data.OrganizationName),
		TextBody: buildDigestText(data),
		HTMLBody: buildDigestHTML(data),
	}
}

func buildDigestText(data DigestEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s update from %s\n\n", data.NotificationName, data.OrganizationName))
	if data.Intro != "" {
		buf.WriteString(data.Intro + "\n\n")
	}
	buf.WriteString(fmt.Sprintf("%s records between %s.\n\n", data.RecordCount, data.DateRange))
	buf.WriteString("Open this email in an HTML-capable client to see the full table.\n")
	return buf.String()
}

func buildDigestHTML(data DigestEmailData) string {
	tmpl := template.Must(template.New("digest").Parse(digestHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

// InvitationEmailData holds data for organization invitation emails.
type InvitationEmailData struct {
	OrganizationName string
	InviterEmail     string
	AcceptURL        string
	ExpiresIn        string // e.g., "7 days"
}

// BuildInvitationEmail creates an invitation email with both HTML and
// text bodies.
func BuildInvitationEmail(data InvitationEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("You're invited to join %s", data.OrganizationName),
		TextBody: buildInvitationText(data),
		HTMLBody: buildInvitationHTML(data),
	}
}

func buildInvitationText(data InvitationEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s invited you to join %s.\n\n", data.InviterEmail, data.OrganizationName))
	buf.WriteString("Accept the invitation here:\n")
	buf.WriteString(data.AcceptURL + "\n\n")
	buf.WriteString(fmt.Sprintf("This invitation expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you were not expecting this invitation, you can safely ignore this email.\n")
	return buf.String()
}

func buildInvitationHTML(data InvitationEmailData) string {
	tmpl := template.Must(template.New("invitation").Parse(invitationHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

// BuildTestEmail readdresses a digest to the requesting admin and marks
// the subject so a test send is never mistaken for a live one.
func BuildTestEmail(digest Email, adminEmail string) Email {
	digest.To = []string{adminEmail}
	digest.Subject = "[Test] " + digest.Subject
	return digest
}

const digestHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.NotificationName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #F5F7FA;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #F5F7FA;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 600px; background-color: #FFFFFF; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; border-bottom: 1px solid #DEE2E6;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #1F5C99;">{{.OrganizationName}}</h1>
              <p style="margin: 8px 0 0; font-size: 14px; color: #6C757D;">{{.NotificationName}} &middot; {{.DateRange}}</p>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              {{if .Intro}}<p style="margin: 0 0 24px; font-size: 16px; color: #212529; line-height: 1.5;">{{.Intro}}</p>{{end}}

              <p style="margin: 0 0 16px; font-size: 14px; color: #6C757D;">
                {{.RecordCount}} matching records in this period.
              </p>

              {{.RecordsTable}}
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #F5F7FA; border-top: 1px solid #DEE2E6; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #6C757D; text-align: center;">
                You are receiving this digest because {{.OrganizationName}} subscribed you to {{.NotificationName}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const invitationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #F5F7FA;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #F5F7FA;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #FFFFFF; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #DEE2E6;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #1F5C99;">{{.OrganizationName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #212529; line-height: 1.5;">
                {{.InviterEmail}} invited you to join {{.OrganizationName}}.
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.AcceptURL}}" style="display: inline-block; padding: 14px 32px; background-color: #1F5C99; color: #FFFFFF; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Accept Invitation
                    </a>
                  </td>
                </tr>
              </table>

              <p style="margin: 24px 0 0; font-size: 13px; color: #6C757D; text-align: center;">
                This invitation expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #F5F7FA; border-top: 1px solid #DEE2E6; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #6C757D; text-align: center;">
                If you were not expecting this invitation, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
