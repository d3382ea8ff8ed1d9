package validators

import (
	"net/http"
	"strconv"

	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/pagination"
)

// ParsePagination reads limit/cursor query parameters. The limit is clamped
// later by the service; here only syntax is checked.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{
		Cursor: r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return pagination.Params{}, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a non-negative integer")
		}
		params.Limit = limit
	}
	return params, nil
}
