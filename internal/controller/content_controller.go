package controller

import (
	"guest-assistant-be/internal/dto"
	"guest-assistant-be/internal/pkg/serverutils"
	"guest-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IContentController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
}

type contentController struct {
	ingestService service.IIngestService
}

func NewContentController(ingestService service.IIngestService) IContentController {
	return &contentController{
		ingestService: ingestService,
	}
}

func (c *contentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/content/v1")
	h.Post("", c.Ingest)
}

func (c *contentController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestContentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.ingestService.Enqueue(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Content queued for indexing", dto.IngestContentResponse{
		Domain:   req.Domain,
		Identity: req.Identity,
		Queued:   true,
	}))
}
