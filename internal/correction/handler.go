package correction

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// r は RequireAuth 済み、hr は更に RequireRole(hr) 済みのグループ
func RegisterRoutes(r, hr gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/corrections/check", h.Check)
	r.POST("/corrections/check-field", h.CheckField)
	r.POST("/corrections", h.Submit)
	r.GET("/corrections", h.List)
	r.GET("/corrections/:correction_id", h.Get)

	hr.GET("/corrections/pending", h.Pending)
	hr.POST("/corrections/:correction_id/review", h.Review)
}

// Check godoc
// @Summary  修正申請の事前検証（提出しない）
// @Tags     corrections
// @Accept   json
// @Produce  json
// @Param    body body CheckRequest true "correction"
// @Success  200 {object} OutcomeResponse
// @Failure  404 {object} errorDTO
// @Security BearerAuth
// @Router   /corrections/check [post]
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "session_id is required"))
		return
	}
	res, err := h.svc.Check(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// CheckField godoc
// @Summary  1欄だけ検証（入力中のフィードバック）
// @Tags     corrections
// @Accept   json
// @Produce  json
// @Param    body body CheckFieldRequest true "field"
// @Success  200 {object} FieldCheckResponse
// @Security BearerAuth
// @Router   /corrections/check-field [post]
func (h *Handler) CheckField(c *gin.Context) {
	var req CheckFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "session_id and field (check_in|check_out|justification) are required"))
		return
	}
	res, err := h.svc.CheckField(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Submit godoc
// @Summary  修正申請
// @Tags     corrections
// @Accept   json
// @Produce  json
// @Param    body body CheckRequest true "correction"
// @Success  201 {object} RequestResponse
// @Failure  422 {object} rejectedDTO
// @Failure  503 {object} errorDTO
// @Security BearerAuth
// @Router   /corrections [post]
func (h *Handler) Submit(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "session_id is required"))
		return
	}
	res, err := h.svc.Submit(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		var rej *RejectedError
		if errors.As(err, &rej) {
			c.JSON(http.StatusUnprocessableEntity, rejectedBody(rej))
			return
		}
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Location", "/corrections/"+res.CorrectionID)
	c.JSON(http.StatusCreated, res)
}

// List godoc
// @Summary  自分の修正申請一覧
// @Tags     corrections
// @Produce  json
// @Param    status query string false "PENDING | APPROVED | REJECTED"
// @Param    limit  query int    false "limit"
// @Param    offset query int    false "offset"
// @Security BearerAuth
// @Router   /corrections [get]
func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid query"))
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
// @Summary  修正申請1件
// @Tags     corrections
// @Produce  json
// @Param    correction_id path string true "correction id (ULID)"
// @Success  200 {object} RequestResponse
// @Security BearerAuth
// @Router   /corrections/{correction_id} [get]
func (h *Handler) Get(c *gin.Context) {
	isHR := auth.Role(c) == auth.RoleHR
	res, err := h.svc.Get(c.Request.Context(), auth.UserID(c), isHR, c.Param("correction_id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Pending godoc
// @Summary  レビュー待ち一覧（HR）
// @Tags     corrections
// @Produce  json
// @Param    limit  query int false "limit"
// @Param    offset query int false "offset"
// @Security BearerAuth
// @Router   /corrections/pending [get]
func (h *Handler) Pending(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid query"))
		return
	}
	items, total, err := h.svc.Pending(c.Request.Context(), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "next_offset": nextOffset(total, q)})
}

// Review godoc
// @Summary  承認 / 却下（HR）
// @Tags     corrections
// @Accept   json
// @Produce  json
// @Param    correction_id path string true "correction id (ULID)"
// @Param    body body ReviewRequest true "decision"
// @Success  200 {object} RequestResponse
// @Failure  409 {object} errorDTO
// @Security BearerAuth
// @Router   /corrections/{correction_id}/review [post]
func (h *Handler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "decision must be approve or reject"))
		return
	}
	res, err := h.svc.Review(c.Request.Context(), auth.UserID(c), c.Param("correction_id"), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

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

// 422: エラー本体に加えて欄ごとの結果を返す
type rejectedDTO struct {
	errorDTO
	Outcome OutcomeResponse `json:"outcome"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func rejectedBody(rej *RejectedError) rejectedDTO {
	msg := "correction has validation errors"
	if g := rej.Outcome.GeneralError; g != nil {
		msg = g.Message
	}
	return rejectedDTO{errorDTO: errorBody(CodeUnprocessable, msg), Outcome: rej.Outcome.ToResponse()}
}

func errorFromErr(err error) errorDTO {
	var api *APIError
	if errors.As(err, &api) {
		return errorBody(api.Code, api.Message)
	}
	var sub *SubmissionError
	if errors.As(err, &sub) {
		log.Printf("[WARN] correction: %v", sub)
		switch sub.Kind {
		case SubmissionNotFound:
			return errorBody(CodeNotFound, sub.Message)
		case SubmissionConflict:
			return errorBody(CodeConflict, sub.Message)
		case SubmissionTransient:
			return errorBody(CodeUnavailable, sub.Message)
		default:
			return errorBody(CodeInternal, sub.Message)
		}
	}
	// DBエラー等の詳細はログだけに残す
	log.Printf("[ERROR] correction: %v", err)
	return errorBody(CodeInternal, "internal error")
}
