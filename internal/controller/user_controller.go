package controller

import (
	"errors"
	"strconv"

	"takarawalk_backend/internal/service"
	"takarawalk_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// @Summary Update profile
// @Description Change display name, photo and social links
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param profile body service.UpdateProfileRequest true "Profile"
// @Success 200 {object} util.Response
// @Router /api/users/me [put]
func (ctl *UserController) UpdateProfile(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	user, err := ctl.UserService.UpdateProfile(claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(c)
		default:
			util.BadRequest(c, err.Error())
		}
		return
	}
	util.Success(c, user)
}

// @Summary Public profile
// @Description Profile page data: the user's created and solved puzzles
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} util.Response
// @Router /api/users/{id} [get]
func (ctl *UserController) GetPublicProfile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(c, "invalid user id")
		return
	}

	profile, err := ctl.UserService.GetPublicProfile(uint(id))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, profile)
}
