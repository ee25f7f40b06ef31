// internal/app/features/orgusers/importcsv.go
package orgusers

import (
	"net/http"

	userstore "github.com/civicatlas/notifyhub/internal/app/store/users"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/csvutil"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleImport processes POST /api/orgs/{orgID}/invitations/import: a
// multipart upload with a "csv" file of roster rows. Rows that fail
// validation come back as errors with their line numbers; the whole
// batch is rejected when it would blow past a product's seat limit.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)

	file, _, err := r.FormFile("csv")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "csv file is required")
		return
	}
	defer file.Close()

	result, err := csvutil.ParseInvitesCSV(file, csvutil.DefaultParseOptions())
	if err == csvutil.ErrTooManyRows {
		httpjson.Error(w, http.StatusRequestEntityTooLarge, "csv exceeds the row limit")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "could not read csv")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "invitation import")
	defer cancel()

	org, err := orgutil.ResolveActiveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	rowErrors := append([]csvutil.RowError{}, result.Errors...)
	users := userstore.New(h.DB)

	rows := make([]csvutil.InviteRow, 0, len(result.Rows))
	for _, row := range result.Rows {
		exists, err := users.EmailExists(ctx, row.Email)
		if err != nil {
			h.Log.Error("email lookup failed", zap.Error(err), zap.String("email", row.Email))
			httpjson.Error(w, http.StatusInternalServerError, "failed to check emails")
			return
		}
		if exists {
			rowErrors = append(rowErrors, csvutil.RowError{Line: row.Line, Reason: "a user with this email already exists"})
			continue
		}
		rows = append(rows, row)
	}

	// One oversubscribed product rejects the whole batch, so a partial
	// import never silently drops the tail of the file.
	needed := map[string]int{}
	for _, row := range rows {
		for _, p := range row.Products {
			needed[p]++
		}
	}
	for product, n := range needed {
		seats, ok := h.seatUsage(ctx, w, &org, product)
		if !ok {
			return
		}
		if seats.Limit != nil && n > *seats.Remaining {
			httpjson.Error(w, http.StatusConflict, seatLimitMessage(product))
			return
		}
	}

	actor, _ := auth.CurrentAdmin(r)
	invited := make([]invitationRow, 0, len(rows))
	emailFailures := 0
	for _, row := range rows {
		inv := models.Invitation{
			OrganizationID: org.ID,
			Email:          row.Email,
			FullName:       row.FullName,
			Role:           row.Role,
			Products:       row.Products,
		}
		if actor != nil {
			inv.InvitedBy = actor.Email
		}

		created, err := h.Invitations.Create(ctx, inv)
		if err != nil {
			h.Log.Warn("invitation row failed", zap.Error(err), zap.String("email", row.Email))
			rowErrors = append(rowErrors, csvutil.RowError{Line: row.Line, Reason: "failed to create invitation"})
			continue
		}
		if !h.sendInvitationEmail(ctx, org, created) {
			emailFailures++
		}
		if actor != nil {
			h.AuditLog.InvitationSent(ctx, r, actor.Email, org.ID, created.Email, created.Role)
		}
		invited = append(invited, invitationRow{Invitation: created, Pending: true})
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"invited":       len(invited),
		"invitations":   invited,
		"errors":        rowErrors,
		"emailFailures": emailFailures,
	})
}
