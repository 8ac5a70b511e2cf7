package handlers

import (
	"errors"
	"io"
	"net/http"

	"thermostat_relay/internal/config"
	"thermostat_relay/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK        = "ok"
	statusForcedOff = "forced_off"
	statusResumed   = "resumed"

	errForceOff        = "failed to force heater off"
	errResume          = "failed to resume schedule"
	errGetState        = "failed to load state"
	errNoStatus        = "no cycle has run yet"
	errInvalidBodyPref = "invalid body: "
	errReadBody        = "failed to read body"
)

// maxConfigBody caps the operating document accepted by the validator.
const maxConfigBody = 1 << 20

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include the persisted state if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.GetState(ctx)
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// ForceOffRequest is the optional body of the force-off endpoint.
type ForceOffRequest struct {
	// Why the heater is being switched off; logged with the event
	Reason string `json:"reason,omitempty" example:"smell of smoke"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Live status document
// @Description  The status document of the latest cycle; every leaf is a string.
// @Tags         thermostat
// @Produce      json
// @Success      200  {object}  thermostat.Status
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/thermostat/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	st, ok := h.services.Monitoring.Status()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoStatus})
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Get persisted thermostat state
// @Tags         thermostat
// @Produce      json
// @Success      200  {object}  models.ThermostatState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/thermostat/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "thermostat_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Force heater off
// @Description  Opens the relay and holds it open until resume.
// @Tags         thermostat
// @Accept       json
// @Produce      json
// @Param        body  body   ForceOffRequest  false  "Reason"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/thermostat/off [post]
// @Security     BearerAuth
func (h *Handler) forceOff(c *gin.Context) {
	var req ForceOffRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Control.ForceOff(ctx, req.Reason); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errForceOff, "thermostat_force_off_failed", err, "reason", req.Reason)
		return
	}
	if h.log != nil {
		h.log.Infow("thermostat_forced_off", "operator_id", operatorID(c), "reason", req.Reason)
	}
	h.respondWithStatusAndState(c, statusForcedOff, gin.H{})
}

// @Summary      Resume schedule
// @Tags         thermostat
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/thermostat/resume [post]
// @Security     BearerAuth
func (h *Handler) resume(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Control.Resume(ctx); err != nil {
		if errors.Is(err, service.ErrNotHeld) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errResume, "thermostat_resume_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusResumed, gin.H{})
}

// @Summary      Validate an operating document
// @Description  Self-test for a config file before it is published. Always 200; the verdict is in the body.
// @Tags         config
// @Accept       json
// @Produce      json
// @Success      200  {object}  config.ValidationResult
// @Failure      400  {object}  map[string]string
// @Router       /public-api/validate/config [post]
func (h *Handler) validateConfig(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxConfigBody))
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errReadBody, "validate_read_failed", err)
		return
	}
	res := config.ValidateJSON(data)
	if h.log != nil && !res.Valid() {
		h.log.Infow("config_invalid", "fields", res.Fields)
	}
	c.JSON(http.StatusOK, res)
}
