package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-console/internal/dto"
	"github.com/noah-isme/student-console/internal/service"
	"github.com/noah-isme/student-console/internal/view"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/export"
	"github.com/noah-isme/student-console/pkg/response"
)

type consoleService interface {
	Snapshot() dto.ConsoleState
	LoadList(ctx context.Context) error
	Submit(ctx context.Context, form dto.StudentForm) error
	Dispatch(ctx context.Context, action dto.RowAction, id int, confirm service.Confirmer) error
	ResetForm()
	ShowMessage(text string, kind dto.MessageKind)
}

// ConsoleHandler is the web surface of the student console: server-rendered
// pages for operators and a JSON mirror under /console.
type ConsoleHandler struct {
	console consoleService
	csv     export.Renderer
	pdf     export.Renderer
}

// NewConsoleHandler constructs ConsoleHandler.
func NewConsoleHandler(console consoleService) *ConsoleHandler {
	return &ConsoleHandler{
		console: console,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// Page renders the console.
func (h *ConsoleHandler) Page(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, view.IndexPage, view.IndexData{State: h.console.Snapshot()})
}

// SubmitForm posts the form and returns to the page.
func (h *ConsoleHandler) SubmitForm(c *gin.Context) {
	var form dto.StudentForm
	if err := c.ShouldBind(&form); err != nil {
		h.console.ShowMessage("Error: "+err.Error(), dto.MessageError)
		response.SeeOther(c, "/")
		return
	}
	_ = h.console.Submit(c.Request.Context(), form)
	response.SeeOther(c, "/")
}

// ResetForm handles the cancel button.
func (h *ConsoleHandler) ResetForm(c *gin.Context) {
	h.console.ResetForm()
	response.SeeOther(c, "/")
}

// Reload fetches the list again.
func (h *ConsoleHandler) Reload(c *gin.Context) {
	_ = h.console.LoadList(c.Request.Context())
	response.SeeOther(c, "/")
}

// EditRow dispatches the edit action of a row and jumps to the form on success.
func (h *ConsoleHandler) EditRow(c *gin.Context) {
	id, ok := h.rowID(c)
	if !ok {
		response.SeeOther(c, "/")
		return
	}
	if err := h.console.Dispatch(c.Request.Context(), dto.RowActionEdit, id, nil); err != nil {
		response.SeeOther(c, "/")
		return
	}
	response.SeeOther(c, "/#student-form")
}

// ConfirmDelete asks the operator before a delete.
func (h *ConsoleHandler) ConfirmDelete(c *gin.Context) {
	id, ok := h.rowID(c)
	if !ok {
		response.SeeOther(c, "/")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, view.ConfirmPage, view.ConfirmData{ID: id, Prompt: service.DeletePrompt})
}

// DeleteRow dispatches the delete action; only confirm=yes grants it.
func (h *ConsoleHandler) DeleteRow(c *gin.Context) {
	id, ok := h.rowID(c)
	if !ok {
		response.SeeOther(c, "/")
		return
	}
	granted := c.PostForm("confirm") == "yes"
	_ = h.console.Dispatch(c.Request.Context(), dto.RowActionDelete, id, func(string) bool { return granted })
	response.SeeOther(c, "/")
}

// ExportCSV downloads the displayed table as CSV.
func (h *ConsoleHandler) ExportCSV(c *gin.Context) {
	h.export(c, h.csv)
}

// ExportPDF downloads the displayed table as PDF.
func (h *ConsoleHandler) ExportPDF(c *gin.Context) {
	h.export(c, h.pdf)
}

// State godoc
// @Summary Current console state
// @Tags Console
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /console/state [get]
func (h *ConsoleHandler) State(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.console.Snapshot())
}

// APISubmit godoc
// @Summary Submit the student form
// @Tags Console
// @Accept json
// @Produce json
// @Param payload body dto.StudentForm true "Form values"
// @Success 200 {object} response.Envelope
// @Router /console/submit [post]
func (h *ConsoleHandler) APISubmit(c *gin.Context) {
	var form dto.StudentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.reply(c, h.console.Submit(c.Request.Context(), form))
}

// APIReset godoc
// @Summary Reset the form to create mode
// @Tags Console
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /console/reset [post]
func (h *ConsoleHandler) APIReset(c *gin.Context) {
	h.console.ResetForm()
	h.reply(c, nil)
}

// APIReload godoc
// @Summary Reload the student list
// @Tags Console
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /console/reload [post]
func (h *ConsoleHandler) APIReload(c *gin.Context) {
	h.reply(c, h.console.LoadList(c.Request.Context()))
}

// APIDispatch godoc
// @Summary Run a row action
// @Tags Console
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param action path string true "edit or delete"
// @Param payload body dto.DispatchRequest false "Delete confirmation"
// @Success 200 {object} response.Envelope
// @Router /console/rows/{id}/{action} [post]
func (h *ConsoleHandler) APIDispatch(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student id"))
		return
	}
	var req dto.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	action := dto.RowAction(c.Param("action"))
	h.reply(c, h.console.Dispatch(c.Request.Context(), action, id, func(string) bool { return req.Confirm }))
}

func (h *ConsoleHandler) reply(c *gin.Context, err error) {
	state := h.console.Snapshot()
	if err != nil {
		response.Error(c, err, state)
		return
	}
	response.JSON(c, http.StatusOK, state)
}

func (h *ConsoleHandler) rowID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.console.ShowMessage("Error: invalid student id "+strconv.Quote(c.Param("id")), dto.MessageError)
		return 0, false
	}
	return id, true
}

func (h *ConsoleHandler) export(c *gin.Context, renderer export.Renderer) {
	data, err := renderer.Render(studentDataset(h.console.Snapshot().Rows))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export students"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="students.%s"`, renderer.Extension()))
	c.Data(http.StatusOK, renderer.ContentType(), data)
}

var exportHeaders = []string{"ID", "Name", "Email", "Student ID", "Major", "Year"}

func studentDataset(rows []dto.StudentRow) export.Dataset {
	data := export.Dataset{Title: "Students", Headers: exportHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"ID":         strconv.Itoa(row.ID),
			"Name":       row.Name,
			"Email":      row.Email,
			"Student ID": row.StudentID,
			"Major":      row.Major,
			"Year":       strconv.Itoa(row.Year),
		})
	}
	return data
}
