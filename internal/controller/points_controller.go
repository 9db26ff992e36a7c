package controller

import (
	"errors"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PointsController struct {
	PointsService *service.PointsService
}

func NewPointsController(pointsService *service.PointsService) *PointsController {
	return &PointsController{PointsService: pointsService}
}

// ManualAwardRequest 手工加分请求
// swagger:model ManualAwardRequest
type ManualAwardRequest struct {
	UserID      uint   `json:"userId" binding:"required"`
	Points      int    `json:"points" binding:"required"`
	Description string `json:"description"`
}

// @Summary 手工加分
// @Description 管理员给指定用户加（或扣）积分
// @Tags 积分
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ManualAwardRequest true "加分信息"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/points/award [post]
func (c *PointsController) ManualAward(ctx *gin.Context) {
	var req ManualAwardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.PointsService.AwardPoints(ctx.Request.Context(), service.AwardRequest{
		UserID:      req.UserID,
		PointsType:  model.PointsManualAward,
		Points:      req.Points,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, util.ErrInvalidPoints) || errors.Is(err, util.ErrUserNotFound) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 积分流水
// @Description 当前用户最近的积分记录，新的在前
// @Tags 积分
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/points/history [get]
func (c *PointsController) GetHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := util.ParseLimit(ctx.Query("limit"), 20, 100)

	events, err := c.PointsService.GetRecentEvents(user.UserID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, events)
}

// @Summary 指定用户积分流水
// @Description 管理员查看任意用户的积分记录
// @Tags 积分
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Param limit query int false "返回数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/admin/points/users/{userId}/history [get]
func (c *PointsController) GetUserHistory(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.Param("userId"))
	if userID == 0 {
		util.BadRequest(ctx, "Invalid user ID")
		return
	}

	limit := util.ParseLimit(ctx.Query("limit"), 20, 100)

	events, err := c.PointsService.GetRecentEvents(userID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, events)
}

// @Summary 我的积分统计
// @Description 当前用户的积分、连续活跃与完成计数
// @Tags 积分
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "还没有积分记录"
// @Router /api/points/stats [get]
func (c *PointsController) GetMyStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.PointsService.GetUserStats(user.UserID)
	if err != nil {
		if errors.Is(err, util.ErrStatsNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}
