package controller

import (
	"errors"

	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
	MaxLimit           int
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService, maxLimit int) *LeaderboardController {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &LeaderboardController{
		LeaderboardService: leaderboardService,
		MaxLimit:           maxLimit,
	}
}

// @Summary 获取排行榜
// @Description 按周期（totalPoints/monthlyPoints/quarterlyPoints）获取积分排行
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param period query string false "周期字段" default(totalPoints)
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "未知周期"
// @Router /api/leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	period := ctx.DefaultQuery("period", "totalPoints")
	limit := util.ParseLimit(ctx.Query("limit"), 10, c.MaxLimit)

	entries, err := c.LeaderboardService.GetLeaderboard(ctx.Request.Context(), period, limit)
	if err != nil {
		if errors.Is(err, util.ErrUnknownPeriod) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, entries)
}

// @Summary 我的排名
// @Description 当前用户在排行榜中的名次和分数
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param period query string false "周期字段" default(totalPoints)
// @Success 200 {object} util.Response
// @Router /api/leaderboard/me [get]
func (c *LeaderboardController) GetMyPosition(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	period := ctx.DefaultQuery("period", "totalPoints")

	entry, err := c.LeaderboardService.GetUserPosition(ctx.Request.Context(), user.UserID, period)
	if err != nil {
		if errors.Is(err, util.ErrUnknownPeriod) {
			util.BadRequest(ctx, err.Error())
			return
		}
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, entry)
}

// @Summary 重建排行榜
// @Description 为全部用户回填统计并全量重排，可重复执行
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param period query string false "周期字段" default(totalPoints)
// @Success 200 {object} util.Response
// @Router /api/admin/leaderboard/initialize [post]
func (c *LeaderboardController) Initialize(ctx *gin.Context) {
	period := ctx.DefaultQuery("period", "totalPoints")

	if err := c.LeaderboardService.InitializeLeaderboard(ctx.Request.Context(), period); err != nil {
		if errors.Is(err, util.ErrUnknownPeriod) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Leaderboard initialized"})
}
