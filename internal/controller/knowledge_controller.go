package controller

import (
	"regen-advisor-be/internal/constant"
	"regen-advisor-be/internal/dto"
	"regen-advisor-be/internal/pkg/serverutils"
	"regen-advisor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	CreateEntry(ctx *fiber.Ctx) error
	ListEntries(ctx *fiber.Ctx) error
	DeleteEntry(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Use(serverutils.AdminKeyMiddleware)
	h.Post("entries", c.CreateEntry)
	h.Get("entries", c.ListEntries)
	h.Delete("entries/:id", c.DeleteEntry)
}

func (c *knowledgeController) CreateEntry(ctx *fiber.Ctx) error {
	var req dto.CreateKnowledgeEntryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.CreateEntry(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create knowledge entry", res))
}

func (c *knowledgeController) ListEntries(ctx *fiber.Ctx) error {
	collectionKey := ctx.Query("collection", constant.CollectionIndicatorMethods)

	res, err := c.knowledgeService.ListEntries(ctx.Context(), collectionKey)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list knowledge entries", res))
}

func (c *knowledgeController) DeleteEntry(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return &serverutils.BadRequestError{Message: "Invalid entry id"}
	}

	if err := c.knowledgeService.DeleteEntry(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete knowledge entry", nil))
}
