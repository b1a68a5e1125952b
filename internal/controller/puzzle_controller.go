package controller

import (
	"errors"
	"net/http"
	"strconv"

	"takarawalk_backend/internal/config"
	"takarawalk_backend/internal/model"
	"takarawalk_backend/internal/service"
	"takarawalk_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 5

type PuzzleController struct {
	PuzzleService *service.PuzzleService
	SubmitService *service.SubmitService
	Hub           *service.PuzzleHub
	Cfg           *config.Config
}

func NewPuzzleController(puzzleService *service.PuzzleService, submitService *service.SubmitService, hub *service.PuzzleHub, cfg *config.Config) *PuzzleController {
	return &PuzzleController{
		PuzzleService: puzzleService,
		SubmitService: submitService,
		Hub:           hub,
		Cfg:           cfg,
	}
}

// sessionID identifies the submitting client for cooldown and scan-flag
// purposes. Anonymous browsers send a generated id in X-Session-ID; the
// client IP is the fallback so a stripped header still gets throttled.
func sessionID(c *gin.Context) string {
	if sid := c.GetHeader("X-Session-ID"); sid != "" {
		return sid
	}
	return c.ClientIP()
}

func solverUID(c *gin.Context) *uint {
	if claims := util.GetUserFromContext(c); claims != nil {
		uid := claims.UserID
		return &uid
	}
	return nil
}

// @Summary Create a puzzle
// @Description Upload an image riddle with its accepted answers
// @Tags puzzles
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param location formData string false "Location hint"
// @Param answerType formData string true "keyword or qrcode"
// @Param answers formData []string false "Accepted answers (keyword type)"
// @Param image formData file true "Puzzle image"
// @Success 201 {object} util.Response
// @Router /api/puzzles [post]
func (ctl *PuzzleController) Create(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	req := service.CreatePuzzleRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Location:    c.PostForm("location"),
		AnswerType:  model.AnswerType(c.DefaultPostForm("answerType", string(model.AnswerKeyword))),
		Answers:     c.PostFormArray("answers"),
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		util.BadRequest(c, util.ErrMissingImage.Error())
		return
	}

	maxMB := ctl.Cfg.Solve.MaxImageMB
	if maxMB <= 0 {
		maxMB = 5
	}
	if fileHeader.Size > int64(maxMB)*1024*1024 {
		util.BadRequest(c, util.ErrImageTooLarge.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	defer file.Close()

	created, err := ctl.PuzzleService.Create(c.Request.Context(), claims, req, file, fileHeader.Size, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNoAnswers),
			errors.Is(err, util.ErrTooManyAnswers),
			errors.Is(err, util.ErrMissingImage):
			util.BadRequest(c, err.Error())
		default:
			util.LogInternalError(c, err)
		}
		return
	}

	util.Created(c, created)
}

// @Summary List puzzles
// @Description Paginated listing, newest first
// @Tags puzzles
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(5)
// @Param unsolved query bool false "Only unsolved puzzles"
// @Success 200 {object} util.Response
// @Router /api/puzzles [get]
func (ctl *PuzzleController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = defaultPageSize
	}
	unsolvedOnly := c.Query("unsolved") == "true"

	puzzles, total, err := ctl.PuzzleService.List(page, limit, unsolvedOnly)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, util.PageResponse{
		List:  puzzles,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary Get a puzzle
// @Description Public puzzle view; accepted answers are never included
// @Tags puzzles
// @Produce json
// @Param id path string true "Puzzle ID"
// @Success 200 {object} util.Response
// @Router /api/puzzles/{id} [get]
func (ctl *PuzzleController) Get(c *gin.Context) {
	p, err := ctl.PuzzleService.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrPuzzleNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, p)
}

// @Summary Edit a puzzle
// @Description Cosmetic edit of title/description/location; creator only, while unsolved
// @Tags puzzles
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Puzzle ID"
// @Param puzzle body service.UpdatePuzzleRequest true "Fields"
// @Success 200 {object} util.Response
// @Router /api/puzzles/{id} [put]
func (ctl *PuzzleController) Update(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var req service.UpdatePuzzleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	p, err := ctl.PuzzleService.Update(claims, c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPuzzleNotFound):
			util.NotFound(c)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(c)
		case errors.Is(err, util.ErrEditLocked):
			util.Error(c, http.StatusConflict, err.Error())
		default:
			util.BadRequest(c, err.Error())
		}
		return
	}
	util.Success(c, p)
}

// @Summary Delete a puzzle
// @Description Creator or admin; the stored image is removed as well
// @Tags puzzles
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Puzzle ID"
// @Success 200 {object} util.Response
// @Router /api/puzzles/{id} [delete]
func (ctl *PuzzleController) Delete(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	err := ctl.PuzzleService.Delete(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPuzzleNotFound):
			util.NotFound(c)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(c)
		default:
			util.LogInternalError(c, err)
		}
		return
	}
	util.Success(c, nil)
}

// @Summary Re-issue the solve URL
// @Description Creator-only; for qrcode puzzles the URL embeds the scan token
// @Tags puzzles
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Puzzle ID"
// @Success 200 {object} util.Response
// @Router /api/puzzles/{id}/solve-url [get]
func (ctl *PuzzleController) GetSolveURL(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	url, err := ctl.PuzzleService.SolveURLForCreator(claims, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPuzzleNotFound):
			util.NotFound(c)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(c)
		default:
			util.LogInternalError(c, err)
		}
		return
	}
	util.Success(c, gin.H{"solveUrl": url})
}

type SubmitAnswerRequest struct {
	Answer     string `json:"answer" binding:"required"`
	PlayerName string `json:"playerName" binding:"required"`
	// Website is the honeypot field; humans never see it, so it must
	// arrive empty.
	Website string `json:"website"`
}

// @Summary Submit an answer
// @Description Evaluate a manual submission against the puzzle
// @Tags solve
// @Accept json
// @Produce json
// @Param id path string true "Puzzle ID"
// @Param submission body SubmitAnswerRequest true "Submission"
// @Success 200 {object} util.Response
// @Router /api/puzzles/{id}/submit [post]
func (ctl *PuzzleController) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	outcome := ctl.SubmitService.SubmitAnswer(
		c.Request.Context(),
		sessionID(c),
		c.Param("id"),
		req.Answer,
		req.PlayerName,
		req.Website,
		solverUID(c),
	)
	ctl.respondOutcome(c, outcome)
}

type SubmitTokenRequest struct {
	Token      string `json:"token" binding:"required"`
	PlayerName string `json:"playerName" binding:"required"`
	Website    string `json:"website"`
}

// @Summary Submit a scanned token
// @Description Auto-solve entry for /puzzle/{id}?token=...; fires once per page visit
// @Tags solve
// @Accept json
// @Produce json
// @Param id path string true "Puzzle ID"
// @Param submission body SubmitTokenRequest true "Scanned token"
// @Success 200 {object} util.Response
// @Router /api/puzzles/{id}/token [post]
func (ctl *PuzzleController) SubmitToken(c *gin.Context) {
	var req SubmitTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	outcome := ctl.SubmitService.SubmitToken(
		c.Request.Context(),
		sessionID(c),
		c.Param("id"),
		req.Token,
		req.PlayerName,
		req.Website,
		solverUID(c),
	)
	ctl.respondOutcome(c, outcome)
}

func (ctl *PuzzleController) respondOutcome(c *gin.Context, outcome service.SolveOutcome) {
	switch outcome.Kind {
	case service.OutcomeNotFound:
		util.NotFound(c)
	case service.OutcomeError:
		// Storage failure, not a judged answer; the client may retry.
		util.Error(c, http.StatusServiceUnavailable, "temporary error, please try again")
	default:
		util.Success(c, outcome)
	}
}

// @Summary Watch a puzzle live
// @Description WebSocket subscription; pushes the solve transition to all watchers
// @Tags solve
// @Param id path string true "Puzzle ID"
// @Router /api/puzzles/{id}/live [get]
func (ctl *PuzzleController) Live(c *gin.Context) {
	id := c.Param("id")
	if _, err := ctl.PuzzleService.Get(id); err != nil {
		if errors.Is(err, util.ErrPuzzleNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	if err := ctl.Hub.ServeWS(c.Writer, c.Request, id); err != nil {
		util.BadRequest(c, "websocket upgrade failed")
	}
}
