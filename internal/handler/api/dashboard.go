package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"FinDash/internal/domain/models"
	"FinDash/internal/service/ratelimit"
	"FinDash/internal/usecase"
	"FinDash/internal/view"
	xhttp "FinDash/pkg/http"
	xlogger "FinDash/pkg/logger"
)

// DashboardHandler serves the page shell, panel fragments and the actions a
// browser can take: switching tabs, refreshing a panel and asking a question.
type DashboardHandler struct {
	logger  *xlogger.Logger
	dash    *usecase.Dashboard
	store   *view.Store
	limiter *ratelimit.Limiter
	title   string
}

func NewDashboardHandler(logger *xlogger.Logger, dash *usecase.Dashboard, store *view.Store, limiter *ratelimit.Limiter, title string) *DashboardHandler {
	return &DashboardHandler{logger: logger, dash: dash, store: store, limiter: limiter, title: title}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Shell)
	e.GET("/panels/:name", h.Panel)
	e.POST("/panels/:name/refresh", h.Refresh, h.limit("refresh"))
	e.POST("/tabs/:name", h.Activate)
	e.POST("/ask", h.Ask, h.limit("ask"))
	e.GET("/chat", h.Chat)
	e.GET("/state", h.State)
}

func (h *DashboardHandler) limit(bucket string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.limiter != nil && !h.limiter.Allow(bucket+":"+c.RealIP()) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("slow down"))
			}
			return next(c)
		}
	}
}

func (h *DashboardHandler) Shell(c echo.Context) error {
	shell := view.Shell{Title: h.title}
	for _, name := range usecase.HeaderPanels {
		shell.Header = append(shell.Header, h.shellPanel(name))
	}
	active := h.dash.ActiveTab()
	for _, tab := range h.dash.Tabs() {
		st := view.ShellTab{
			Name:   tab.Name,
			Label:  tab.Label,
			Active: tab.Name == active,
			Chat:   tab.Name == models.PanelChat,
		}
		for _, p := range tab.Panels {
			st.Panels = append(st.Panels, h.shellPanel(p))
			if p == models.PanelFeed {
				st.Filters = models.FeedCategories
			}
		}
		shell.Tabs = append(shell.Tabs, st)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return view.RenderShell(c.Response(), shell)
}

func (h *DashboardHandler) shellPanel(name string) view.ShellPanel {
	frag, _ := h.store.Fragment(name)
	return view.ShellPanel{
		Name:        name,
		HTML:        safe(frag),
		Refreshable: h.dash.Refreshable(name),
	}
}

func (h *DashboardHandler) Panel(c echo.Context) error {
	name := c.Param("name")
	if !h.dash.IsPanel(name) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("panel %q not found", name))
	}
	frag, _ := h.store.Fragment(name)
	return c.HTML(http.StatusOK, frag)
}

func (h *DashboardHandler) Chat(c echo.Context) error {
	frag, _ := h.store.Fragment(models.PanelChat)
	return c.HTML(http.StatusOK, frag)
}

func (h *DashboardHandler) Refresh(c echo.Context) error {
	name := c.Param("name")
	dispatched, err := h.dash.Refresh(name, c.QueryParam("category"))
	switch {
	case errors.Is(err, usecase.ErrUnknownPanel):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("panel %q not found", name))
	case errors.Is(err, usecase.ErrInvalidCategory):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("category must be one of: %v", models.FeedCategories).
			WithParam("options", models.FeedCategories))
	case err != nil:
		h.logger.Error("refresh failed", xlogger.String("panel", name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if !dispatched {
		h.logger.Debug("refresh skipped, fetch in flight", xlogger.String("panel", name))
	}
	return xhttp.AcceptedResponse(c, RefreshResult{Panel: name, Dispatched: dispatched})
}

func (h *DashboardHandler) Activate(c echo.Context) error {
	name := c.Param("name")
	if err := h.dash.Activate(name); err != nil {
		if errors.Is(err, usecase.ErrUnknownTab) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("tab %q not found", name))
		}
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, TabResult{Active: name})
}

func (h *DashboardHandler) Ask(c echo.Context) error {
	req := &AskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, _ := h.dash.Ask(req.Question)
	switch res {
	case usecase.SubmitAccepted:
		return xhttp.AcceptedResponse(c, AskResult{Status: res.String(), SessionID: h.dash.State().Chat.SessionID})
	case usecase.SubmitBusy:
		return xhttp.AppErrorResponse(c, xhttp.ConflictError("a question is already being answered"))
	default:
		return xhttp.NoContentResponse(c)
	}
}

func (h *DashboardHandler) State(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.State())
}
