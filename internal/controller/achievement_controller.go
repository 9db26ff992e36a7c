package controller

import (
	"errors"
	"strconv"

	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// @Summary 我的成就
// @Description 当前用户已解锁的成就，按解锁时间倒序
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/achievements [get]
func (c *AchievementController) GetUserAchievements(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	achievements, err := c.AchievementService.GetUserAchievements(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// @Summary 成就目录
// @Description 全部成就定义（含停用的）
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/achievements/catalog [get]
func (c *AchievementController) GetCatalog(ctx *gin.Context) {
	achievements, err := c.AchievementService.ListCatalog()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// @Summary 新建成就
// @Description 管理员新建成就定义
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.AchievementRequest true "成就信息"
// @Success 201 {object} util.Response
// @Router /api/admin/achievements [post]
func (c *AchievementController) CreateAchievement(ctx *gin.Context) {
	var req service.AchievementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	achievement, err := c.AchievementService.CreateAchievement(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, achievement)
}

// @Summary 启用/停用成就
// @Description 管理员切换成就的启用状态
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "成就ID"
// @Success 200 {object} util.Response
// @Router /api/admin/achievements/{id}/active [patch]
func (c *AchievementController) SetActive(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "Invalid achievement ID")
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AchievementService.SetAchievementActive(uint(id), *req.Active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Achievement updated"})
}
