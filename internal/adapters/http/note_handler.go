package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// NoteHandler handles note requests. Errors are returned untouched and
// rendered by the server's error handler.
type NoteHandler struct {
	notes      ports.NoteService
	translator *query.Translator
	logger     *logger.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(notes ports.NoteService, translator *query.Translator, log *logger.Logger) *NoteHandler {
	return &NoteHandler{
		notes:      notes,
		translator: translator,
		logger:     log.WithComponent("http"),
	}
}

// Register mounts the note routes on g
func (h *NoteHandler) Register(g *echo.Group) {
	g.POST("", h.CreateNote)
	g.GET("", h.ListNotes)
	g.GET("/:id", h.GetNote)
	g.PUT("/:id", h.UpdateNote)
	g.PATCH("/:id", h.UpdateNote)
	g.DELETE("/:id", h.DeleteNote)
	g.PATCH("/:id/archive", h.ArchiveNote)
	g.PATCH("/:id/restore", h.RestoreNote)
	g.PATCH("/:id/pin", h.PinNote)
	g.PATCH("/:id/unpin", h.UnpinNote)
}

var bodyBinder = &echo.DefaultBinder{}

// bind decodes only the request body; path and query values never leak in
func (h *NoteHandler) bind(c echo.Context, dst interface{}) error {
	if err := bodyBinder.BindBody(c, dst); err != nil {
		h.logger.Debugw("Rejected request body", "path", c.Path(), "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return nil
}

// CreateNote godoc
// @Summary Create a note
// @Description Create a note. A reminderAt in the future schedules a reminder.
// @Tags notes
// @Accept json
// @Produce json
// @Param request body ports.CreateNoteRequest true "Note data"
// @Success 201 {object} NoteResponse
// @Failure 400 {object} ErrorResponse
// @Router /notes [post]
func (h *NoteHandler) CreateNote(c echo.Context) error {
	var req ports.CreateNoteRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	note, err := h.notes.CreateNote(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, noteResponse(note, "Note created successfully"))
}

// ListNotes godoc
// @Summary List notes
// @Description Filter with field[op]=value (gt, gte, lt, lte, ne), archived=true|all, reminderBefore, reminderAfter, dueBefore, dueAfter, hasReminder, isOverdue. Sort with sort=-createdAt,title; project with fields=title,category; paginate with page and limit.
// @Tags notes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sort query string false "Sort fields"
// @Param fields query string false "Fields to include"
// @Param archived query string false "true or all"
// @Success 200 {object} NoteListResponse
// @Failure 400 {object} ErrorResponse
// @Router /notes [get]
func (h *NoteHandler) ListNotes(c echo.Context) error {
	q, err := h.translator.Translate(c.QueryParams())
	if err != nil {
		return err
	}

	list, err := h.notes.ListNotes(c.Request().Context(), q)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, noteListResponse(list))
}

// GetNote godoc
// @Summary Get a note
// @Tags notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id} [get]
func (h *NoteHandler) GetNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	note, err := h.notes.GetNote(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, noteResponse(note, ""))
}

// UpdateNote godoc
// @Summary Update a note
// @Description Partial update. Sending reminderAt replaces the reminder; null clears it. isArchived and isPinned are rejected.
// @Tags notes
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param request body ports.UpdateNoteRequest true "Fields to change"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id} [patch]
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateNoteRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	note, err := h.notes.UpdateNote(c.Request().Context(), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, noteResponse(note, "Note updated successfully"))
}

// DeleteNote godoc
// @Summary Delete a note permanently
// @Tags notes
// @Param id path string true "Note ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id} [delete]
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.notes.DeleteNote(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// ArchiveNote godoc
// @Summary Archive a note
// @Description Archiving cancels a pending reminder.
// @Tags notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} NoteResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id}/archive [patch]
func (h *NoteHandler) ArchiveNote(c echo.Context) error {
	return h.transition(c, h.notes.ArchiveNote, "Note archived successfully")
}

// RestoreNote godoc
// @Summary Restore an archived note
// @Description Restoring re-schedules a reminder that is still in the future.
// @Tags notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} NoteResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id}/restore [patch]
func (h *NoteHandler) RestoreNote(c echo.Context) error {
	return h.transition(c, h.notes.RestoreNote, "Note restored successfully")
}

// PinNote godoc
// @Summary Pin a note
// @Tags notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} NoteResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id}/pin [patch]
func (h *NoteHandler) PinNote(c echo.Context) error {
	return h.transition(c, h.notes.PinNote, "Note pinned successfully")
}

// UnpinNote godoc
// @Summary Unpin a note
// @Tags notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} NoteResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id}/unpin [patch]
func (h *NoteHandler) UnpinNote(c echo.Context) error {
	return h.transition(c, h.notes.UnpinNote, "Note unpinned successfully")
}

type noteTransition func(ctx context.Context, id uuid.UUID) (*entities.Note, error)

func (h *NoteHandler) transition(c echo.Context, fn noteTransition, message string) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	note, err := fn(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, noteResponse(note, message))
}

func parseID(c echo.Context) (uuid.UUID, error) {
	return entities.ParseID(c.Param("id"))
}
