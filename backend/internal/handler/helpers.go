package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	mw "github.com/itchan-dev/forum/shared/middleware"
	"github.com/itchan-dev/forum/shared/utils"
)

// parseIdParam reads a positive integer route parameter.
func parseIdParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.Validation(fmt.Sprintf("invalid %s: must be a positive integer", name))
	}
	return id, nil
}

// actor falls back to a guest without permissions when no auth middleware ran.
func actor(r *http.Request) *domain.User {
	if user := mw.GetUserFromContext(r); user != nil {
		return user
	}
	return domain.Guest(nil)
}

// pageParams reads limit and offset. Limits above max are capped.
func pageParams(r *http.Request, defaultLimit, maxLimit int) (limit, offset int, err error) {
	if limit, err = utils.QueryInt(r, "limit", defaultLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = utils.QueryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit < 1 {
		return 0, 0, errors.Validation("invalid limit: must be at least 1")
	}
	if offset < 0 {
		return 0, 0, errors.Validation("invalid offset: must not be negative")
	}
	return min(limit, maxLimit), offset, nil
}
