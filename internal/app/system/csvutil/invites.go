// internal/app/system/csvutil/invites.go

// Package csvutil parses roster CSV uploads for the bulk invitation
// endpoint. Parsing never touches the database; callers decide what to
// do with the validated rows.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/civicatlas/notifyhub/internal/app/system/normalize"
	"github.com/civicatlas/notifyhub/internal/domain/models"
)

// Upload bounds for roster files. The HTTP handler applies
// MaxUploadSize to the request body before parsing begins.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)

// ErrTooManyRows is returned when the file exceeds ParseOptions.MaxRows.
var ErrTooManyRows = errors.New("csv exceeds the row limit")

// InviteRow is one validated roster line: the person to invite and the
// seats they should occupy. Line is 1-based over the whole file so later
// rejections (an email already in use, say) can still point at the row.
type InviteRow struct {
	Line     int
	FullName string
	Email    string   // normalized (lowercased, trimmed)
	Role     string   // owner | editor | viewer
	Products []string // subset of notify, atlas
}

// RowError describes why one line was rejected. Line numbers are
// 1-based over the whole file, header included.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ParseResult carries the valid rows and every per-line rejection.
type ParseResult struct {
	Rows   []InviteRow
	Errors []RowError
}

// HasErrors returns true if any row was rejected.
func (r *ParseResult) HasErrors() bool { return len(r.Errors) > 0 }

// ParseOptions bounds a parse.
type ParseOptions struct {
	MaxRows int
}

// DefaultParseOptions applies the package row limit.
func DefaultParseOptions() ParseOptions { return ParseOptions{MaxRows: MaxRows} }

// ParseInvitesCSV reads a roster of people to invite:
//
//	full_name,email[,role][,products]
//
// role defaults to viewer; products is semicolon-separated ("notify;atlas")
// and defaults to notify. A leading header row is skipped when its second
// column says "email". Rows that fail validation land in Errors with
// their line number, and in-file duplicate emails are rejected against
// the first occurrence, so one upload cannot mint two invitations for
// the same address.
func ParseInvitesCSV(r io.Reader, opts ParseOptions) (ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result ParseResult

	first, err := reader.Read()
	if err == io.EOF {
		return result, nil
	}
	if err != nil {
		result.Errors = append(result.Errors, RowError{Line: 1, Reason: err.Error()})
		return result, nil
	}

	// Handle BOM in first cell
	if len(first) > 0 {
		first[0] = strings.TrimPrefix(first[0], "\uFEFF")
	}

	type numbered struct {
		line int
		rec  []string
	}
	var raw []numbered

	line := 1
	if !isHeaderRow(first) {
		raw = append(raw, numbered{line: line, rec: first})
	}

	for {
		rec, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}
		if len(rec) == 0 {
			continue
		}
		if opts.MaxRows > 0 && len(raw) >= opts.MaxRows {
			return result, ErrTooManyRows
		}
		raw = append(raw, numbered{line: line, rec: rec})
	}

	seen := make(map[string]int) // email -> first line

	for _, nr := range raw {
		row, rowErr := parseInviteRow(nr.rec, nr.line)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		if row == nil {
			continue // blank line
		}

		if firstLine, dup := seen[row.Email]; dup {
			result.Errors = append(result.Errors, RowError{
				Line:   nr.line,
				Reason: fmt.Sprintf("duplicate email (first appears on line %d)", firstLine),
			})
			continue
		}
		seen[row.Email] = nr.line

		result.Rows = append(result.Rows, *row)
	}

	return result, nil
}

// isHeaderRow reports whether a row looks like a column header rather
// than roster data.
func isHeaderRow(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	c0 := strings.ToLower(strings.TrimSpace(rec[0]))
	c1 := strings.ToLower(strings.TrimSpace(rec[1]))
	switch c0 {
	case "full_name", "fullname", "full name", "name":
		return true
	}
	return c1 == "email" || c1 == "email_address" || c1 == "email address"
}

// parseInviteRow validates one record. Returns nil,nil for blank rows.
func parseInviteRow(rec []string, line int) (*InviteRow, *RowError) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}

	blank := true
	for _, f := range rec {
		if f != "" {
			blank = false
			break
		}
	}
	if blank {
		return nil, nil
	}

	if len(rec) < 2 {
		return nil, &RowError{Line: line, Reason: "row must have at least full_name and email"}
	}

	fullName := normalize.Name(rec[0])
	if fullName == "" {
		return nil, &RowError{Line: line, Reason: "missing full name"}
	}

	email := normalize.Email(rec[1])
	if email == "" {
		return nil, &RowError{Line: line, Reason: "missing email"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, &RowError{Line: line, Reason: "invalid email format"}
	}

	role := "viewer"
	if len(rec) > 2 && rec[2] != "" {
		role = normalize.Role(rec[2])
		switch role {
		case "owner", "editor", "viewer":
		default:
			return nil, &RowError{Line: line, Reason: "invalid role (allowed: owner, editor, viewer)"}
		}
	}

	products := []string{models.ProductNotify}
	if len(rec) > 3 && rec[3] != "" {
		products = nil
		for _, p := range strings.Split(rec[3], ";") {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			switch p {
			case models.ProductNotify, models.ProductAtlas:
			default:
				return nil, &RowError{Line: line, Reason: fmt.Sprintf("unknown product %q (allowed: notify, atlas)", p)}
			}
			if !containsString(products, p) {
				products = append(products, p)
			}
		}
		if len(products) == 0 {
			products = []string{models.ProductNotify}
		}
	}

	return &InviteRow{
		Line:     line,
		FullName: fullName,
		Email:    email,
		Role:     role,
		Products: products,
	}, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
