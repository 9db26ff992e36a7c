package controller

import (
	"errors"

	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ActivityController 把可记分的业务动作暴露为接口
type ActivityController struct {
	ActivityService *service.ActivityService
}

func NewActivityController(activityService *service.ActivityService) *ActivityController {
	return &ActivityController{ActivityService: activityService}
}

// @Summary 完成课程
// @Description 将报名记录标记为已完成并记分，重复提交不重复记分
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param enrollmentId path int true "报名ID"
// @Success 200 {object} util.Response
// @Router /api/activities/courses/{enrollmentId}/complete [post]
func (c *ActivityController) CompleteCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	enrollmentID := util.MustParseUint(ctx.Param("enrollmentId"))
	if enrollmentID == 0 {
		util.BadRequest(ctx, "Invalid enrollment ID")
		return
	}

	result, err := c.ActivityService.CompleteCourse(ctx.Request.Context(), user.UserID, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 完成项目
// @Description 将项目指派标记为已完成并记分
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param assignmentId path int true "指派ID"
// @Success 200 {object} util.Response
// @Router /api/activities/projects/{assignmentId}/complete [post]
func (c *ActivityController) CompleteProject(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	assignmentID := util.MustParseUint(ctx.Param("assignmentId"))
	if assignmentID == 0 {
		util.BadRequest(ctx, "Invalid assignment ID")
		return
	}

	result, err := c.ActivityService.CompleteProject(ctx.Request.Context(), user.UserID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 登记技能
// @Description 新增一项技能并记分
// @Tags 活动
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SkillRequest true "技能信息"
// @Success 201 {object} util.Response
// @Router /api/activities/skills [post]
func (c *ActivityController) AddSkill(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SkillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ActivityService.AddSkill(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// @Summary 验证技能
// @Description 将技能标记为已验证并记分
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param skillId path int true "技能ID"
// @Success 200 {object} util.Response
// @Router /api/activities/skills/{skillId}/verify [post]
func (c *ActivityController) VerifySkill(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	skillID := util.MustParseUint(ctx.Param("skillId"))
	if skillID == 0 {
		util.BadRequest(ctx, "Invalid skill ID")
		return
	}

	result, err := c.ActivityService.VerifySkill(ctx.Request.Context(), user.UserID, skillID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 提升技能等级
// @Description 调整技能等级，升级时记分
// @Tags 活动
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param skillId path int true "技能ID"
// @Success 200 {object} util.Response
// @Router /api/activities/skills/{skillId}/level [patch]
func (c *ActivityController) ImproveSkill(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	skillID := util.MustParseUint(ctx.Param("skillId"))
	if skillID == 0 {
		util.BadRequest(ctx, "Invalid skill ID")
		return
	}

	var req struct {
		Level int `json:"level" binding:"required,min=1,max=5"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ActivityService.ImproveSkill(ctx.Request.Context(), user.UserID, skillID, req.Level)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// BadgeAwardRequest 徽章授予请求
// swagger:model BadgeAwardRequest
type BadgeAwardRequest struct {
	UserID uint   `json:"userId" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Icon   string `json:"icon"`
}

// @Summary 授予徽章
// @Description 管理员给用户授予徽章并记分
// @Tags 活动
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body BadgeAwardRequest true "徽章信息"
// @Success 201 {object} util.Response
// @Router /api/admin/badges [post]
func (c *ActivityController) AwardBadge(ctx *gin.Context) {
	var req BadgeAwardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ActivityService.AwardBadge(ctx.Request.Context(), req.UserID, req.Name, req.Icon)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, result)
}
