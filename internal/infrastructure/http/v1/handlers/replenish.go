package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"abasto/internal/core/apperror"
	"abasto/internal/core/id"

	"abasto/internal/cart"
	"abasto/internal/costing"
	"abasto/internal/infrastructure/http/v1/dto"
	"abasto/internal/replenish"
	"abasto/internal/session"
	"abasto/internal/terminal"
)

// DraftHandler manages a session's replenishment draft.
type DraftHandler struct {
	BaseHandler
	svc *terminal.Service
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(svc *terminal.Service) *DraftHandler {
	return &DraftHandler{svc: svc}
}

func (h *DraftHandler) sessionFrom(c *gin.Context) (*session.Session, bool) {
	sid, err := id.Parse(c.Param("sid"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid session id"))
		return nil, false
	}
	sess, err := h.svc.Sessions().Get(sid)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return sess, true
}

func draftResponse(d *replenish.DraftList) dto.DraftResponse {
	lines := d.Lines()
	previews := make([]costing.Costs, len(lines))
	for i := range lines {
		previews[i] = d.Preview(i)
	}
	return dto.NewDraftResponse(lines, previews)
}

// Get returns the draft with live cost previews.
// GET /api/v1/sessions/:sid/draft
func (h *DraftHandler) Get(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	var resp dto.DraftResponse
	_ = sess.Do(func(_ *cart.Aggregator, d *replenish.DraftList) error {
		resp = draftResponse(d)
		return nil
	})
	h.OK(c, resp)
}

// AddLine appends a draft line.
// POST /api/v1/sessions/:sid/draft/lines
func (h *DraftHandler) AddLine(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	var req dto.DraftLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var resp dto.DraftResponse
	err := sess.Do(func(_ *cart.Aggregator, d *replenish.DraftList) error {
		if _, err := d.Add(req.Form()); err != nil {
			return err
		}
		resp = draftResponse(d)
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateLine replaces the draft line at an index.
// PUT /api/v1/sessions/:sid/draft/lines/:index
func (h *DraftHandler) UpdateLine(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid line index"))
		return
	}
	var req dto.DraftLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var resp dto.DraftResponse
	err = sess.Do(func(_ *cart.Aggregator, d *replenish.DraftList) error {
		if err := d.Update(index, req.Form()); err != nil {
			return err
		}
		resp = draftResponse(d)
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, resp)
}

// RemoveLine deletes the draft line at an index.
// DELETE /api/v1/sessions/:sid/draft/lines/:index
func (h *DraftHandler) RemoveLine(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid line index"))
		return
	}

	var resp dto.DraftResponse
	_ = sess.Do(func(_ *cart.Aggregator, d *replenish.DraftList) error {
		d.Remove(index)
		resp = draftResponse(d)
		return nil
	})
	h.OK(c, resp)
}

// Commit validates and sends the draft as one replenishment batch.
// POST /api/v1/sessions/:sid/draft/commit
func (h *DraftHandler) Commit(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	if err := h.svc.CommitDraft(c.Request.Context(), sess); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "replenishment committed")
}
