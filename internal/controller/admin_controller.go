package controller

import (
	"errors"
	"strconv"

	"takarawalk_backend/internal/service"
	"takarawalk_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminController exposes the moderation surface. Every route behind it
// is guarded by the admin role middleware.
type AdminController struct {
	UserService   *service.UserService
	PuzzleService *service.PuzzleService
}

func NewAdminController(userService *service.UserService, puzzleService *service.PuzzleService) *AdminController {
	return &AdminController{UserService: userService, PuzzleService: puzzleService}
}

// @Summary List users
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/admin/users [get]
func (ctl *AdminController) ListUsers(c *gin.Context) {
	users, err := ctl.UserService.ListSummaries()
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, users)
}

// @Summary List all puzzles
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response
// @Router /api/admin/puzzles [get]
func (ctl *AdminController) ListPuzzles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	puzzles, total, err := ctl.PuzzleService.List(page, limit, false)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, util.PageResponse{List: puzzles, Total: total, Page: page, Limit: limit})
}

// @Summary Remove a puzzle
// @Description Moderation delete; bypasses the creator check
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Puzzle ID"
// @Success 200 {object} util.Response
// @Router /api/admin/puzzles/{id} [delete]
func (ctl *AdminController) DeletePuzzle(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	if err := ctl.PuzzleService.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		if errors.Is(err, util.ErrPuzzleNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, nil)
}
