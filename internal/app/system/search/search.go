package search

import "strings"

// EmailPivotOK reports whether a paged account list should pivot from
// name-based sorting to email-based sorting.
//
// Pivoting is safe when:
//   - the query contains '@', so the operator is clearly searching by
//     email rather than by name, and
//   - the status filter is fixed (active or disabled), and
//   - the list is scoped to a single organization, which keeps the
//     email index path selective enough for keyset paging.
//
// Typical usage in the organization users list:
//
//	pivot := search.EmailPivotOK(query, status, !orgID.IsZero())
//	sortField := "full_name_ci"
//	if pivot {
//	    sortField = "email"
//	}
func EmailPivotOK(search, status string, hasOrg bool) bool {
	qHasAt := strings.Contains(search, "@")
	statusFixed := equalsAnyFold(status, "active", "disabled")
	return qHasAt && statusFixed && hasOrg
}

func equalsAnyFold(s string, vals ...string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, v := range vals {
		if s == strings.ToLower(v) {
			return true
		}
	}
	return false
}
