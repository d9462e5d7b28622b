package handlers

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
)

// CustomerHandler serves the JSON API under /api/customers. Errors are
// returned to the app's error handler, which renders the envelope.
type CustomerHandler struct {
	service ports.CustomerService
	log     *zap.Logger
}

func NewCustomerHandler(service ports.CustomerService, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes mounts the API on r. Fixed paths come before /:id.
func (h *CustomerHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/customers", h.List)
	r.Post("/customers", h.Create)
	r.Get("/customers/stats", h.Stats)
	r.Get("/customers/by-email", h.FindByEmail)
	r.Post("/customers/export/:format", h.Export)
	r.Get("/customers/export/:format", h.Download)
	r.Post("/customers/import/:format", h.Import)
	r.Get("/customers/:id", h.Get)
	r.Put("/customers/:id", h.Update)
	r.Delete("/customers/:id", h.Delete)
	r.Patch("/customers/:id/toggle", h.Toggle)
	r.Post("/customers/:id/loyalty-points", h.AddLoyaltyPoints)
	r.Post("/customers/:id/promote", h.Promote)
	r.Put("/customers/:id/employees", h.UpdateEmployees)
	r.Get("/customers/:id/discount", h.Discount)
	r.Post("/customers/:id/verify", h.Verify)
	r.Get("/customers/:id/activity", h.Activity)
}

type createRequest struct {
	Variant string `json:"variant"`
	domain.Input
}

func (h *CustomerHandler) List(c *fiber.Ctx) error {
	filter, err := listFilter(c.Query("variant"), c.Query("active"), c.Query("search"))
	if err != nil {
		return err
	}

	customers, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "count": len(customers), "customers": views(customers)})
}

func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := h.service.Create(c.UserContext(), req.Variant, req.Input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":       true,
		"customer": view(res.Customer),
		"welcome":  res.Welcome,
	})
}

func (h *CustomerHandler) Stats(c *fiber.Ctx) error {
	st, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "stats": st})
}

func (h *CustomerHandler) FindByEmail(c *fiber.Ctx) error {
	cust, err := h.service.FindByEmail(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "customer": view(cust)})
}

func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	cust, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "customer": view(cust)})
}

func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	patch, err := domain.DecodePatch(c.Body())
	if err != nil {
		return err
	}

	cust, err := h.service.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "customer": view(cust)})
}

func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "deleted": c.Params("id")})
}

func (h *CustomerHandler) Toggle(c *fiber.Ctx) error {
	active, err := h.service.Toggle(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "id": c.Params("id"), "active": active})
}

func (h *CustomerHandler) AddLoyaltyPoints(c *fiber.Ctx) error {
	var req struct {
		Points int `json:"points"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	cust, err := h.service.AddLoyaltyPoints(c.UserContext(), c.Params("id"), req.Points)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "customer": view(cust)})
}

func (h *CustomerHandler) Promote(c *fiber.Ctx) error {
	cust, promoted, err := h.service.PromoteTier(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	body := fiber.Map{"ok": true, "promoted": promoted, "customer": view(cust)}
	if !promoted {
		body["message"] = "customer is already at the highest tier"
	}
	return c.JSON(body)
}

func (h *CustomerHandler) UpdateEmployees(c *fiber.Ctx) error {
	var req struct {
		EmployeeCount int `json:"employee_count"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	cust, err := h.service.UpdateEmployeeCount(c.UserContext(), c.Params("id"), req.EmployeeCount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "customer": view(cust)})
}

func (h *CustomerHandler) Discount(c *fiber.Ctx) error {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be a number")
	}

	quote, err := h.service.Discount(c.UserContext(), c.Params("id"), amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "quote": quote})
}

func (h *CustomerHandler) Verify(c *fiber.Ctx) error {
	res, err := h.service.Verify(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "identity": res})
}

func (h *CustomerHandler) Activity(c *fiber.Ctx) error {
	entries, err := h.service.Activity(c.UserContext(), c.Params("id"), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "count": len(entries), "activity": entries})
}

// Export writes a file into the server's export directory.
func (h *CustomerHandler) Export(c *fiber.Ctx) error {
	path, err := h.service.Export(c.UserContext(), c.Params("format"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "path": path})
}

// Download streams the export as an attachment.
func (h *CustomerHandler) Download(c *fiber.Ctx) error {
	format := c.Params("format")
	var buf bytes.Buffer
	if err := h.service.ExportTo(c.UserContext(), format, &buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="customers.%s"`, format))
	c.Type(format)
	return c.Send(buf.Bytes())
}

// Import reads the raw body, or the "file" part of a multipart form.
func (h *CustomerHandler) Import(c *fiber.Ctx) error {
	src, err := uploadOrBody(c)
	if err != nil {
		return err
	}

	rep, err := h.service.Import(c.UserContext(), c.Params("format"), src)
	if err != nil {
		if rep != nil {
			h.log.Warn("Import aborted", zap.Int("imported", rep.Imported), zap.Error(err))
		}
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "report": rep})
}

func uploadOrBody(c *fiber.Ctx) (io.Reader, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
		}
		return bytes.NewReader(data), nil
	}
	if len(c.Body()) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "empty import body")
	}
	return bytes.NewReader(append([]byte(nil), c.Body()...)), nil
}

func listFilter(variant, active, search string) (ports.ListFilter, error) {
	filter := ports.ListFilter{Search: search}
	if variant != "" {
		v, err := domain.ParseVariant(variant)
		if err != nil {
			return filter, err
		}
		filter.Variant = v
	}
	filter.ActiveOnly = active == "true" || active == "1"
	return filter, nil
}

// view is the flat JSON form of a customer, the same shape exports use.
func view(c *domain.Customer) domain.Record {
	if c == nil {
		return nil
	}
	r := c.ToRecord()
	r["discount_rate"] = c.DiscountRate()
	return r
}

func views(cs []*domain.Customer) []domain.Record {
	out := make([]domain.Record, 0, len(cs))
	for _, c := range cs {
		out = append(out, view(c))
	}
	return out
}
