package attendance

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendance-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// r は RequireAuth 済みのグループ
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/attendance/check-in", h.CheckIn)
	r.POST("/attendance/check-out", h.CheckOut)
	r.GET("/attendance/sessions", h.List)
	r.GET("/attendance/sessions/:session_id", h.Get)
	r.PUT("/attendance/sessions/:session_id/agenda", h.UpdateAgenda)
}

// CheckIn godoc
// @Summary  出勤
// @Tags     attendance
// @Accept   json
// @Produce  json
// @Param    body body CheckInRequest false "agenda"
// @Success  201 {object} SessionResponse
// @Failure  409 {object} errorDTO
// @Security BearerAuth
// @Router   /attendance/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	// body 無しも許可
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
			return
		}
	}
	res, err := h.svc.CheckIn(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Location", "/attendance/sessions/"+strconv.FormatUint(res.SessionID, 10))
	c.JSON(http.StatusCreated, res)
}

// CheckOut godoc
// @Summary  退勤
// @Tags     attendance
// @Produce  json
// @Success  200 {object} SessionResponse
// @Failure  404 {object} errorDTO
// @Security BearerAuth
// @Router   /attendance/check-out [post]
func (h *Handler) CheckOut(c *gin.Context) {
	res, err := h.svc.CheckOut(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// List godoc
// @Summary  自分の勤怠一覧
// @Tags     attendance
// @Produce  json
// @Param    from   query string false "YYYY-MM-DD"
// @Param    to     query string false "YYYY-MM-DD"
// @Param    limit  query int    false "limit"
// @Param    offset query int    false "offset"
// @Param    sort   query string false "check_in_desc | check_in_asc"
// @Security BearerAuth
// @Router   /attendance/sessions [get]
func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "from/to must be YYYY-MM-DD, limit/offset must be numbers"))
		return
	}
	q.UserID = auth.UserID(c)
	items, total, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "next_offset": nextOffset(total, q)})
}

// Get godoc
// @Summary  勤怠1件
// @Tags     attendance
// @Produce  json
// @Param    session_id path int true "session id"
// @Success  200 {object} SessionResponse
// @Security BearerAuth
// @Router   /attendance/sessions/{session_id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}
	res, err := h.svc.GetOwnSession(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateAgenda godoc
// @Summary  その日の予定（アジェンダ）を更新
// @Tags     attendance
// @Accept   json
// @Produce  json
// @Param    session_id path int true "session id"
// @Param    body body UpdateAgendaRequest true "agenda"
// @Success  200 {object} SessionResponse
// @Security BearerAuth
// @Router   /attendance/sessions/{session_id}/agenda [put]
func (h *Handler) UpdateAgenda(c *gin.Context) {
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var req UpdateAgendaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.UpdateAgenda(c.Request.Context(), auth.UserID(c), id, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func sessionIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("session_id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "session_id must be a number"))
		return 0, false
	}
	return id, true
}

func nextOffset(total int64, q ListQuery) int {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	n := q.Offset + limit
	if n >= int(total) {
		return 0
	}
	return n
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		// DBエラー等の詳細はログだけに残す
		log.Printf("[ERROR] attendance: %v", err)
		msg = "internal error"
	}
	return errorBody(code, msg)
}
