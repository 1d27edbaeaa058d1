package controllers

import (
	"net/http"
	"strconv"

	"bike-shop/models"
	"bike-shop/services"

	"github.com/gin-gonic/gin"
)

type PageController struct {
	pages *services.PageService
}

func NewPageController(pages *services.PageService) *PageController {
	return &PageController{pages: pages}
}

// @Summary Get page
// @Description Get a published page with its content blocks
// @Tags Pages
// @Produce json
// @Param slug path string true "Page slug"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /pages/{slug} [get]
func (ctrl *PageController) GetPage(c *gin.Context) {
	slug := c.Param("slug")

	page, err := ctrl.pages.GetPublishedPage(c.Request.Context(), slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Page retrieved", Data: page})
}

// @Summary Get menu
// @Description Get the published pages shown in the navigation menu
// @Tags Pages
// @Produce json
// @Success 200 {object} models.Response
// @Router /pages [get]
func (ctrl *PageController) GetMenu(c *gin.Context) {
	pages, err := ctrl.pages.GetMenu(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Menu retrieved", Data: pages})
}

// @Summary List all pages
// @Description List every page including drafts (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Response
// @Router /admin/pages [get]
func (ctrl *PageController) ListPages(c *gin.Context) {
	pages, err := ctrl.pages.ListPages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Pages retrieved", Data: pages})
}

// @Summary Get page by ID
// @Description Get a page including drafts (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Produce json
// @Param id path int true "Page ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/pages/{id} [get]
func (ctrl *PageController) GetPageByID(c *gin.Context) {
	pageID, err := strconv.Atoi(c.Param("id"))
	if err != nil || pageID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid page ID"})
		return
	}

	page, err := ctrl.pages.GetPage(c.Request.Context(), pageID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Page retrieved", Data: page})
}

// @Summary Create page
// @Description Create a new page; it starts unpublished (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.CreatePageRequest true "Page data"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/pages [post]
func (ctrl *PageController) CreatePage(c *gin.Context) {
	var req models.CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	page, err := ctrl.pages.CreatePage(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Page created", Data: page})
}

// @Summary Update page
// @Description Update page metadata (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Page ID"
// @Param body body models.UpdatePageRequest true "Fields to update"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/pages/{id} [patch]
func (ctrl *PageController) UpdatePage(c *gin.Context) {
	pageID, err := strconv.Atoi(c.Param("id"))
	if err != nil || pageID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid page ID"})
		return
	}

	var req models.UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	page, err := ctrl.pages.UpdatePage(c.Request.Context(), pageID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Page updated", Data: page})
}

// @Summary Publish or unpublish page
// @Description Toggle a page's published state (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Produce json
// @Param id path int true "Page ID"
// @Param published query bool true "Published state"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/pages/{id}/publish [patch]
func (ctrl *PageController) PublishPage(c *gin.Context) {
	pageID, err := strconv.Atoi(c.Param("id"))
	if err != nil || pageID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid page ID"})
		return
	}

	published, err := strconv.ParseBool(c.DefaultQuery("published", "true"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid published value"})
		return
	}

	if err := ctrl.pages.PublishPage(c.Request.Context(), pageID, published); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Page publish state updated"})
}

// @Summary Delete page
// @Description Delete a page and its blocks (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Produce json
// @Param id path int true "Page ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/pages/{id} [delete]
func (ctrl *PageController) DeletePage(c *gin.Context) {
	pageID, err := strconv.Atoi(c.Param("id"))
	if err != nil || pageID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid page ID"})
		return
	}

	if err := ctrl.pages.DeletePage(c.Request.Context(), pageID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Page deleted"})
}

// @Summary Add block
// @Description Append a content block to a page (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Page ID"
// @Param body body models.CreateBlockRequest true "Block data"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/pages/{id}/blocks [post]
func (ctrl *PageController) AddBlock(c *gin.Context) {
	pageID, err := strconv.Atoi(c.Param("id"))
	if err != nil || pageID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid page ID"})
		return
	}

	var req models.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	block, err := ctrl.pages.AddBlock(c.Request.Context(), pageID, req)
	if err != nil {
		if statusForError(err) == http.StatusInternalServerError {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Block added", Data: block})
}

// @Summary Update block
// @Description Update a block's content or position (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param blockId path int true "Block ID"
// @Param body body models.UpdateBlockRequest true "Fields to update"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/pages/blocks/{blockId} [patch]
func (ctrl *PageController) UpdateBlock(c *gin.Context) {
	blockID, err := strconv.Atoi(c.Param("blockId"))
	if err != nil || blockID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid block ID"})
		return
	}

	var req models.UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	if err := ctrl.pages.UpdateBlock(c.Request.Context(), blockID, req); err != nil {
		if statusForError(err) == http.StatusInternalServerError {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Block updated"})
}

// @Summary Delete block
// @Description Remove a block from its page (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Produce json
// @Param blockId path int true "Block ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/pages/blocks/{blockId} [delete]
func (ctrl *PageController) DeleteBlock(c *gin.Context) {
	blockID, err := strconv.Atoi(c.Param("blockId"))
	if err != nil || blockID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid block ID"})
		return
	}

	if err := ctrl.pages.DeleteBlock(c.Request.Context(), blockID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Block deleted"})
}

// @Summary Reorder blocks
// @Description Rewrite the block order for a page (Admin)
// @Tags Admin - Pages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Page ID"
// @Param body body models.ReorderBlocksRequest true "Block ids in the new order"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/pages/{id}/blocks/reorder [patch]
func (ctrl *PageController) ReorderBlocks(c *gin.Context) {
	pageID, err := strconv.Atoi(c.Param("id"))
	if err != nil || pageID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid page ID"})
		return
	}

	var req models.ReorderBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body", Error: err.Error()})
		return
	}

	if err := ctrl.pages.ReorderBlocks(c.Request.Context(), pageID, req.BlockIDs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Blocks reordered"})
}
