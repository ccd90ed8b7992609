package handler

import (
	"net/http"

	"github.com/itchan-dev/forum/backend/internal/service"
	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	"github.com/itchan-dev/forum/shared/utils"
)

func (h *Handler) ListDiscussions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r, h.cfg.Public.DiscussionsPerPage, h.cfg.Public.MaxPageLimit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	criteria := domain.SearchCriteria{
		Actor: actor(r),
		Query: r.URL.Query().Get("q"),
		Sort:  r.URL.Query().Get("sort"),
	}
	results, err := h.discussion.Search(r.Context(), criteria, limit, offset)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.NewDiscussionListResponse(results, offset, limit))
}

func (h *Handler) StartDiscussion(w http.ResponseWriter, r *http.Request) {
	var body api.StartDiscussionRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	d, err := h.discussion.Start(r.Context(), actor(r), service.StartData{
		Title:     body.Title,
		Content:   body.Content,
		IsPrivate: body.IsPrivate,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.NewDiscussionResponse(d))
}

func (h *Handler) ShowDiscussion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "id")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	limit, offset, err := pageParams(r, h.cfg.Public.PostsPerPage, h.cfg.Public.MaxPageLimit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	near, err := utils.QueryInt(r, "near", 0)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	page, err := h.discussion.Show(r.Context(), actor(r), id, near, offset, limit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.NewDiscussionPageResponse(page))
}

func (h *Handler) EditDiscussion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "id")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.EditDiscussionRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if body.Title == nil && body.IsHidden == nil {
		utils.WriteErrorAndStatusCode(w, errors.Validation("Nothing to change"))
		return
	}

	d, err := h.discussion.Edit(r.Context(), actor(r), id, domain.DiscussionEditData{
		Title:    body.Title,
		IsHidden: body.IsHidden,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.NewDiscussionResponse(d))
}

func (h *Handler) DeleteDiscussion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "id")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.discussion.Delete(r.Context(), actor(r), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// IndexForNumber tells clients which offset to load to land near a post number.
func (h *Handler) IndexForNumber(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "id")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if r.URL.Query().Get("number") == "" {
		utils.WriteErrorAndStatusCode(w, errors.Validation("number is required"))
		return
	}
	number, err := utils.QueryInt(r, "number", 0)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	index, err := h.discussion.IndexForNumber(r.Context(), actor(r), id, number)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.IndexResponse{Index: index})
}
