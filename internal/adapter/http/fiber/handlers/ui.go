package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
)

// UIHandler serves the HTML pages under /ui. Errors never escape to the
// error handler: they are shown on the page the user came from.
type UIHandler struct {
	service ports.CustomerService
	formats []string
	tmpl    *template.Template
	log     *zap.Logger
}

func NewUIHandler(service ports.CustomerService, formats []string, tmpl *template.Template, log *zap.Logger) *UIHandler {
	return &UIHandler{
		service: service,
		formats: formats,
		tmpl:    tmpl,
		log:     log,
	}
}

func (h *UIHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.New)
	r.Post("/customers", h.Create)
	r.Get("/customers/:id/edit", h.Edit)
	r.Post("/customers/:id", h.Update)
	r.Post("/customers/:id/toggle", h.Toggle)
	r.Post("/customers/:id/delete", h.Delete)
	r.Get("/export/:format", h.Export)
}

type page struct {
	Title   string
	Message string
	Error   string
}

type listPage struct {
	page
	Customers  []*domain.Customer
	Stats      *ports.Stats
	Variants   []domain.Variant
	Formats    []string
	Search     string
	Variant    string
	ActiveOnly bool
}

type formPage struct {
	page
	Action  string
	Variant string
	Editing bool
	Values  map[string]string
	Tiers   []domain.Tier
}

var tiers = []domain.Tier{domain.TierGold, domain.TierPlatinum, domain.TierDiamond}

func (h *UIHandler) List(c *fiber.Ctx) error {
	data := listPage{
		page:       page{Title: "Clientes", Message: c.Query("msg"), Error: c.Query("err")},
		Stats:      &ports.Stats{},
		Variants:   domain.Variants,
		Formats:    h.formats,
		Search:     c.Query("search"),
		Variant:    c.Query("variant"),
		ActiveOnly: c.Query("active") == "true",
	}

	filter, err := listFilter(data.Variant, c.Query("active"), data.Search)
	if err != nil {
		data.Error = err.Error()
		return h.render(c, "list", data)
	}
	if data.Customers, err = h.service.List(c.UserContext(), filter); err != nil {
		data.Error = err.Error()
	}
	if st, err := h.service.Stats(c.UserContext()); err == nil {
		data.Stats = st
	} else if data.Error == "" {
		data.Error = err.Error()
	}
	return h.render(c, "list", data)
}

func (h *UIHandler) New(c *fiber.Ctx) error {
	v, err := domain.ParseVariant(c.Query("variant", string(domain.VariantRegular)))
	if err != nil {
		return h.redirect(c, "", err.Error())
	}
	return h.render(c, "form", formPage{
		page:    page{Title: "Nuevo cliente " + string(v)},
		Action:  "/ui/customers",
		Variant: string(v),
		Values:  map[string]string{},
		Tiers:   tiers,
	})
}

func (h *UIHandler) Create(c *fiber.Ctx) error {
	variant := c.FormValue("variant")
	values := formValues(c)

	in, err := inputFromForm(c)
	if err == nil {
		var res *ports.CreateResult
		res, err = h.service.Create(c.UserContext(), variant, in)
		if err == nil {
			msg := "Cliente " + res.Customer.Name + " creado."
			if res.Welcome != nil {
				msg += " " + res.Welcome.Message
			}
			return h.redirect(c, msg, "")
		}
	}

	return h.render(c, "form", formPage{
		page:    page{Title: "Nuevo cliente " + variant, Error: err.Error()},
		Action:  "/ui/customers",
		Variant: variant,
		Values:  values,
		Tiers:   tiers,
	})
}

func (h *UIHandler) Edit(c *fiber.Ctx) error {
	cust, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.redirect(c, "", err.Error())
	}

	values := map[string]string{}
	for k, v := range cust.ToRecord() {
		values[k] = fmt.Sprint(v)
	}
	return h.render(c, "form", formPage{
		page:    page{Title: "Editar " + cust.Name},
		Action:  "/ui/customers/" + cust.ID,
		Variant: string(cust.Variant),
		Editing: true,
		Values:  values,
	})
}

func (h *UIHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	patch, err := patchFromForm(c)
	if err == nil {
		var cust *domain.Customer
		if cust, err = h.service.Update(c.UserContext(), id, patch); err == nil {
			return h.redirect(c, "Cliente "+cust.Name+" actualizado.", "")
		}
	}

	return h.render(c, "form", formPage{
		page:    page{Title: "Editar cliente", Error: err.Error()},
		Action:  "/ui/customers/" + id,
		Variant: c.FormValue("variant"),
		Editing: true,
		Values:  formValues(c),
	})
}

func (h *UIHandler) Toggle(c *fiber.Ctx) error {
	active, err := h.service.Toggle(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.redirect(c, "", err.Error())
	}
	if active {
		return h.redirect(c, "Cliente activado.", "")
	}
	return h.redirect(c, "Cliente desactivado.", "")
}

func (h *UIHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.redirect(c, "", err.Error())
	}
	return h.redirect(c, "Cliente eliminado.", "")
}

func (h *UIHandler) Export(c *fiber.Ctx) error {
	format := c.Params("format")
	var buf bytes.Buffer
	if err := h.service.ExportTo(c.UserContext(), format, &buf); err != nil {
		return h.redirect(c, "", err.Error())
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="customers.%s"`, format))
	c.Type(format)
	return c.Send(buf.Bytes())
}

func (h *UIHandler) render(c *fiber.Ctx, name string, data any) error {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error("Failed to render page", zap.String("page", name), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render page")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (h *UIHandler) redirect(c *fiber.Ctx, msg, errMsg string) error {
	q := url.Values{}
	if msg != "" {
		q.Set("msg", msg)
	}
	if errMsg != "" {
		q.Set("err", errMsg)
	}
	target := "/ui"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

var formFields = []string{
	"name", "email", "phone", "address",
	"credit_limit", "loyalty_points",
	"tier", "advisor_name",
	"tax_id", "legal_name", "industry", "business_contact", "employee_count",
}

func formValues(c *fiber.Ctx) map[string]string {
	out := make(map[string]string, len(formFields))
	for _, f := range formFields {
		out[f] = c.FormValue(f)
	}
	return out
}

func inputFromForm(c *fiber.Ctx) (domain.Input, error) {
	in := domain.Input{
		Name:            c.FormValue("name"),
		Email:           c.FormValue("email"),
		Phone:           c.FormValue("phone"),
		Address:         c.FormValue("address"),
		Tier:            c.FormValue("tier"),
		AdvisorName:     c.FormValue("advisor_name"),
		TaxID:           c.FormValue("tax_id"),
		LegalName:       c.FormValue("legal_name"),
		Industry:        c.FormValue("industry"),
		BusinessContact: c.FormValue("business_contact"),
	}
	var err error
	if in.CreditLimit, err = optFloat(c, "credit_limit"); err != nil {
		return in, err
	}
	if in.LoyaltyPoints, err = optInt(c, "loyalty_points"); err != nil {
		return in, err
	}
	if in.EmployeeCount, err = optInt(c, "employee_count"); err != nil {
		return in, err
	}
	return in, nil
}

// patchFromForm sets every field the form submitted.
func patchFromForm(c *fiber.Ctx) (domain.Patch, error) {
	var p domain.Patch
	args := c.Request().PostArgs()
	str := func(key string) *string {
		if !args.Has(key) {
			return nil
		}
		v := c.FormValue(key)
		return &v
	}
	p.Name = str("name")
	p.Email = str("email")
	p.Phone = str("phone")
	p.Address = str("address")
	p.AdvisorName = str("advisor_name")
	p.LegalName = str("legal_name")
	p.Industry = str("industry")
	p.BusinessContact = str("business_contact")

	var err error
	p.CreditLimit, err = optFloat(c, "credit_limit")
	return p, err
}

func optFloat(c *fiber.Ctx, key string) (*float64, error) {
	s := strings.TrimSpace(c.FormValue(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be a number")
	}
	return &v, nil
}

func optInt(c *fiber.Ctx, key string) (*int, error) {
	s := strings.TrimSpace(c.FormValue(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be a whole number")
	}
	return &v, nil
}
