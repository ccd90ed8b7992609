package handler

import (
	"net/http"

	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/utils"
)

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	discussionId, err := parseIdParam(r, "id")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.MarkReadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	state, err := h.read.MarkRead(r.Context(), actor(r), discussionId, body.Number)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.ReadStateResponse{
		DiscussionId: state.DiscussionId,
		ReadNumber:   state.ReadNumber,
		ReadTime:     state.ReadTime,
	})
}

func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.read.MarkAllAsRead(r.Context(), actor(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
