package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/api/metrics"
	"github.com/kata/useradmin/internal/api/websession"
	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/ports"
)

// AdminListPath is the admin panel's user list.
const AdminListPath = "/admin"

// AdminHandler serves the admin panel's user management pages.
type AdminHandler struct {
	users ports.UserService
	log   zerolog.Logger
}

func NewAdminHandler(users ports.UserService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{users: users, log: log}
}

// userForm is the add/edit form. Password is only mandatory on add; on edit
// an empty value keeps the current one.
type userForm struct {
	FirstName string   `form:"firstName" validate:"required,max=50"`
	LastName  string   `form:"lastName" validate:"required,max=50"`
	Age       int      `form:"age" validate:"gte=0"`
	Username  string   `form:"username" validate:"required,max=50"`
	Email     string   `form:"email" validate:"required,email,max=255"`
	Password  string   `form:"password" validate:"omitempty,min=6,maxbytes=72"`
	Roles     []string `form:"roles" validate:"min=1,dive,required"`
}

// trim drops surrounding whitespace so that blank values fail "required".
// Passwords are taken as typed.
func (f *userForm) trim() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	for i, r := range f.Roles {
		f.Roles[i] = strings.TrimSpace(r)
	}
}

func (f userForm) input() ports.UserInput {
	return ports.UserInput{
		Username:  f.Username,
		Email:     f.Email,
		Password:  f.Password,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Age:       f.Age,
		RoleNames: f.Roles,
	}
}

func formOf(u *domain.User) userForm {
	return userForm{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Username:  u.Username,
		Email:     u.Email,
		Roles:     u.RoleNames(),
	}
}

// List renders every user with their roles.
func (h *AdminHandler) List(c echo.Context) error {
	users, err := h.users.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "admin/list.html", echo.Map{"Users": users})
}

// AddForm renders an empty add form.
func (h *AdminHandler) AddForm(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, "", userForm{}, FieldErrors{})
}

// Add validates and creates a user, then redirects to the list.
func (h *AdminHandler) Add(c echo.Context) error {
	form, errs, err := h.bindForm(c)
	if err != nil {
		return err
	}
	if form.Password == "" {
		errs.Add("password", "must not be blank")
	}
	if len(errs) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, "", form, errs)
	}

	u, err := h.users.Create(c.Request().Context(), form.input())
	if err != nil {
		return h.writeFailed(c, "", form, err)
	}

	metrics.UserWritesTotal.WithLabelValues("admin", "create").Inc()
	h.log.Debug().Int64("user_id", u.ID).Msg("admin added user")
	if err := websession.AddFlash(c, websession.FlashSuccess, "User added successfully!"); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, AdminListPath)
}

// EditForm renders the edit form pre-filled with the stored user.
func (h *AdminHandler) EditForm(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	u, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return h.renderForm(c, http.StatusOK, c.Param("id"), formOf(u), FieldErrors{})
}

// Edit validates and applies an update, then redirects to the list.
func (h *AdminHandler) Edit(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	form, errs, err := h.bindForm(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, c.Param("id"), form, errs)
	}

	if _, err := h.users.Update(c.Request().Context(), id, form.input()); err != nil {
		return h.writeFailed(c, c.Param("id"), form, err)
	}

	metrics.UserWritesTotal.WithLabelValues("admin", "update").Inc()
	if err := websession.AddFlash(c, websession.FlashSuccess, "User updated successfully!"); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, AdminListPath)
}

// Delete removes a user, then redirects to the list.
func (h *AdminHandler) Delete(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.DeleteByID(c.Request().Context(), id); err != nil {
		return err
	}

	metrics.UserWritesTotal.WithLabelValues("admin", "delete").Inc()
	if err := websession.AddFlash(c, websession.FlashSuccess, "User successfully deleted."); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, AdminListPath)
}

func (h *AdminHandler) bindForm(c echo.Context) (userForm, FieldErrors, error) {
	var form userForm
	if err := c.Bind(&form); err != nil {
		errs := FieldErrors{}
		errs.Add("age", "must be a number")
		return form, errs, nil
	}
	form.trim()
	errs, err := validateForm(c.Validate, &form)
	return form, errs, err
}

// writeFailed maps store conflicts back onto the form; anything else goes to
// the error handler.
func (h *AdminHandler) writeFailed(c echo.Context, id string, form userForm, err error) error {
	errs := FieldErrors{}
	switch {
	case errors.Is(err, domain.ErrUsernameTaken):
		errs.Add("username", "is already taken")
	case errors.Is(err, domain.ErrEmailTaken):
		errs.Add("email", "is already taken")
	case errors.Is(err, domain.ErrRoleNotFound):
		errs.Add("roles", "contains an unknown role")
	case errors.Is(err, domain.ErrInvalidInput):
		errs.Add("form", "Please correct the highlighted fields.")
	default:
		return err
	}
	return h.renderForm(c, http.StatusUnprocessableEntity, id, form, errs)
}

// renderForm renders the add form when id is empty, the edit form otherwise.
func (h *AdminHandler) renderForm(c echo.Context, code int, id string, form userForm, errs FieldErrors) error {
	roles, err := h.users.ListRoles(c.Request().Context())
	if err != nil {
		return err
	}
	form.Password = ""

	action := AdminListPath + "/add"
	if id != "" {
		action = fmt.Sprintf("%s/edit/%s", AdminListPath, id)
	}
	return render(c, code, "admin/form.html", echo.Map{
		"Action": action,
		"IsNew":  id == "",
		"Form":   form,
		"Roles":  roles,
		"Errors": errs,
	})
}
