package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/api/metrics"
	"github.com/kata/useradmin/internal/api/websession"
	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/ports"
)

// DirectoryListPath is the directory app's user list.
const DirectoryListPath = "/users"

// DirectoryHandler serves the unauthenticated user directory.
type DirectoryHandler struct {
	svc ports.DirectoryService
	log zerolog.Logger
}

func NewDirectoryHandler(svc ports.DirectoryService, log zerolog.Logger) *DirectoryHandler {
	return &DirectoryHandler{svc: svc, log: log}
}

type directoryForm struct {
	Name  string `form:"name" validate:"required,min=2,max=50"`
	Email string `form:"email" validate:"required,email,max=255"`
}

func (h *DirectoryHandler) List(c echo.Context) error {
	users, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "directory/list.html", echo.Map{"Users": users})
}

func (h *DirectoryHandler) AddForm(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, "", directoryForm{}, FieldErrors{})
}

// Create is served on both POST /users and POST /users/add.
func (h *DirectoryHandler) Create(c echo.Context) error {
	form, errs, err := h.bindForm(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, "", form, errs)
	}

	if _, err := h.svc.Create(c.Request().Context(), ports.DirectoryInput{Name: form.Name, Email: form.Email}); err != nil {
		return h.writeFailed(c, "", form, err)
	}

	metrics.UserWritesTotal.WithLabelValues("directory", "create").Inc()
	if err := websession.AddFlash(c, websession.FlashSuccess, "User added successfully!"); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, DirectoryListPath)
}

func (h *DirectoryHandler) EditForm(c echo.Context) error {
	u, err := h.svc.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return h.renderForm(c, http.StatusOK, u.ID, directoryForm{Name: u.Name, Email: u.Email}, FieldErrors{})
}

func (h *DirectoryHandler) Update(c echo.Context) error {
	id := c.Param("id")
	form, errs, err := h.bindForm(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, id, form, errs)
	}

	if _, err := h.svc.Update(c.Request().Context(), id, ports.DirectoryInput{Name: form.Name, Email: form.Email}); err != nil {
		return h.writeFailed(c, id, form, err)
	}

	metrics.UserWritesTotal.WithLabelValues("directory", "update").Inc()
	if err := websession.AddFlash(c, websession.FlashSuccess, "User updated successfully!"); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, DirectoryListPath)
}

func (h *DirectoryHandler) Delete(c echo.Context) error {
	if err := h.svc.DeleteByID(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}

	metrics.UserWritesTotal.WithLabelValues("directory", "delete").Inc()
	if err := websession.AddFlash(c, websession.FlashSuccess, "User successfully deleted."); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, DirectoryListPath)
}

func (h *DirectoryHandler) bindForm(c echo.Context) (directoryForm, FieldErrors, error) {
	var form directoryForm
	if err := c.Bind(&form); err != nil {
		return form, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	errs, err := validateForm(c.Validate, &form)
	return form, errs, err
}

func (h *DirectoryHandler) writeFailed(c echo.Context, id string, form directoryForm, err error) error {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return h.renderForm(c, http.StatusUnprocessableEntity, id, form, FieldErrors{"email": "is already taken"})
	case errors.Is(err, domain.ErrInvalidInput):
		return h.renderForm(c, http.StatusUnprocessableEntity, id, form, FieldErrors{"name": "must be at least 2 characters"})
	}
	return err
}

func (h *DirectoryHandler) renderForm(c echo.Context, code int, id string, form directoryForm, errs FieldErrors) error {
	action := DirectoryListPath + "/add"
	if id != "" {
		action = DirectoryListPath + "/update/" + id
	}
	return render(c, code, "directory/form.html", echo.Map{
		"Action": action,
		"IsNew":  id == "",
		"Form":   form,
		"Errors": errs,
	})
}
