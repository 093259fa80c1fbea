package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plantcare/internal/service"
	"github.com/plantcare/internal/status"
)

type createPlantPayload struct {
	Name      string  `json:"name" binding:"required"`
	PlantType string  `json:"plant_type" binding:"required"`
	Image     *string `json:"image"`
}

type updatePlantPayload struct {
	Name      *string         `json:"name"`
	PlantType *string         `json:"plant_type"`
	Image     *string         `json:"image"`
	Status    json.RawMessage `json:"status"`
}

type statusPayload struct {
	Date       string `json:"date" binding:"required"`
	StatusType string `json:"status_type" binding:"required"`
	Value      *bool  `json:"value" binding:"required"`
}

// CreatePlant 新建植物
func (a *API) CreatePlant(c *gin.Context) {
	var payload createPlantPayload
	if !bindJSON(c, &payload, "invalid plant payload") {
		return
	}

	plant, err := a.plants.Create(c.Request.Context(), currentUserID(c), service.PlantInput{
		Name:      payload.Name,
		PlantType: payload.PlantType,
		Image:     payload.Image,
	})
	if err != nil {
		a.respondServiceError(c, err, "failed to create plant")
		return
	}
	respondSuccess(c, http.StatusOK, "Plant added successfully", plant)
}

// ListPlants 返回当前用户的植物
func (a *API) ListPlants(c *gin.Context) {
	plants, err := a.plants.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err, "failed to list plants")
		return
	}
	respondSuccess(c, http.StatusOK, fmt.Sprintf("%d plants found", len(plants)), plants)
}

// GetPlant 返回单个植物
func (a *API) GetPlant(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	plant, err := a.plants.Get(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err, "failed to load plant")
		return
	}
	respondSuccess(c, http.StatusOK, "Plant found", plant)
}

// UpdatePlant 部分更新植物，status 字段存在时整体替换
func (a *API) UpdatePlant(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload updatePlantPayload
	if !bindJSON(c, &payload, "invalid plant payload") {
		return
	}

	update := service.PlantUpdate{
		Name:      payload.Name,
		PlantType: payload.PlantType,
		Image:     payload.Image,
	}
	replacement, err := decodeStatus(payload.Status)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	update.Status = replacement

	plant, err := a.plants.Update(c.Request.Context(), id, currentUserID(c), update)
	if err != nil {
		a.respondServiceError(c, err, "failed to update plant")
		return
	}
	respondSuccess(c, http.StatusOK, "Plant updated successfully", plant)
}

// UpdatePlantStatus 合并单日单字段状态
func (a *API) UpdatePlantStatus(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload statusPayload
	if !bindJSON(c, &payload, "invalid status payload") {
		return
	}

	plant, err := a.plants.UpdateStatus(c.Request.Context(), id, currentUserID(c), service.StatusUpdate{
		Date:  payload.Date,
		Field: payload.StatusType,
		Value: *payload.Value,
	})
	if err != nil {
		a.respondServiceError(c, err, "failed to update plant status")
		return
	}

	a.metrics.ObserveStatusUpdate(a.backend, strings.TrimSpace(payload.StatusType))
	respondSuccess(c, http.StatusOK, "Plant status updated successfully", plant)
}

// DeletePlant 删除植物
func (a *API) DeletePlant(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.plants.Delete(c.Request.Context(), id, currentUserID(c)); err != nil {
		a.respondServiceError(c, err, "failed to delete plant")
		return
	}
	respondSuccess(c, http.StatusOK, "Plant deleted successfully", nil)
}

// Dashboard 返回某日统计，date 缺省为服务器本地当天
func (a *API) Dashboard(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = time.Now().Format(status.DateLayout)
	}

	summary, err := a.plants.Dashboard(c.Request.Context(), currentUserID(c), date)
	if err != nil {
		a.respondServiceError(c, err, "failed to compute dashboard")
		return
	}

	a.metrics.ObserveDashboard(a.backend)
	respondSuccess(c, http.StatusOK, "Dashboard stats retrieved successfully", summary)
}

type testPlantPayload struct {
	createPlantPayload
	UserID string `json:"user_id" binding:"required"`
}

// CreatePlantUnauthenticated 供联调使用，user_id 由请求体给出
func (a *API) CreatePlantUnauthenticated(c *gin.Context) {
	var payload testPlantPayload
	if !bindJSON(c, &payload, "invalid plant payload") {
		return
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user_id format")
		return
	}

	plant, err := a.plants.Create(c.Request.Context(), userID, service.PlantInput{
		Name:      payload.Name,
		PlantType: payload.PlantType,
		Image:     payload.Image,
	})
	if err != nil {
		a.respondServiceError(c, err, "failed to create plant")
		return
	}
	respondSuccess(c, http.StatusOK, "Plant added successfully (test)", plant)
}

// ListPlantsUnauthenticated 供联调使用，user_id 由查询参数给出
func (a *API) ListPlantsUnauthenticated(c *gin.Context) {
	raw, ok := c.GetQuery("user_id")
	if !ok {
		respondError(c, http.StatusBadRequest, "user_id query parameter required")
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user_id format")
		return
	}

	plants, err := a.plants.List(c.Request.Context(), userID)
	if err != nil {
		a.respondServiceError(c, err, "failed to list plants")
		return
	}
	respondSuccess(c, http.StatusOK, fmt.Sprintf("%d plants found (test)", len(plants)), plants)
}

// decodeStatus 严格解析客户端提交的整份状态；缺省或 null 表示不修改
func decodeStatus(raw json.RawMessage) (status.Store, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var days map[string]status.DayStatus
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&days); err != nil {
		return nil, fmt.Errorf("invalid status: %v", err)
	}
	return status.Store(days).Clone(), nil
}
