package usergraph

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPControllerRoutes are the controller's route paths.
type HTTPControllerRoutes struct {
	Register      string
	Login         string
	Logout        string
	Activate      string
	Refresh       string
	Followers     string
	Subscriptions string
	Subscribe     string
	Unsubscribe   string
}

// HTTPController exposes the session and graph operations as a JSON API.
// The refresh credential travels in an HttpOnly cookie so it stays out of
// script-accessible storage; the access credential rides in the body.
type HTTPController struct {
	Debug          bool
	Logger         Logger
	Sessions       *SessionManager
	Graph          *Graph
	Routes         *HTTPControllerRoutes
	CookieName     string
	CookieDuration time.Duration
	CookieSecure   bool
	ErrorHandler   func(c router.Context, err error) error
}

// HTTPControllerOption configures the controller.
type HTTPControllerOption func(*HTTPController) *HTTPController

// NewHTTPController creates the controller. Sessions and Graph are required.
func NewHTTPController(opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger:         defLogger{},
		CookieName:     "refreshToken",
		CookieDuration: 30 * 24 * time.Hour,
		CookieSecure:   true,
		Routes: &HTTPControllerRoutes{
			Register:      "/registration",
			Login:         "/login",
			Logout:        "/logout",
			Activate:      "/activate/:link",
			Refresh:       "/refresh",
			Followers:     "/followers",
			Subscriptions: "/subscriptions",
			Subscribe:     "/subscribe/:id",
			Unsubscribe:   "/unsubscribe/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in usergraph controller...")
	}

	if c.Graph == nil {
		panic("Missing Graph in usergraph controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.defaultErrHandler
	}

	return c
}

// WithControllerSessions sets the session manager.
func WithControllerSessions(s *SessionManager) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Sessions = s
		return c
	}
}

// WithControllerGraph sets the graph mutator.
func WithControllerGraph(g *Graph) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Graph = g
		return c
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Logger = l
		return c
	}
}

// RegisterRoutes mounts every controller route on the registrar.
func RegisterRoutes(app RouteRegistrar, c *HTTPController) {
	app.Post(c.Routes.Register, c.Register)
	app.Post(c.Routes.Login, c.Login)
	app.Post(c.Routes.Logout, c.Logout)
	app.Get(c.Routes.Activate, c.Activate)
	app.Get(c.Routes.Refresh, c.Refresh)
	app.Get(c.Routes.Followers, c.Followers)
	app.Get(c.Routes.Subscriptions, c.Subscriptions)
	app.Post(c.Routes.Subscribe, c.Subscribe)
	app.Post(c.Routes.Unsubscribe, c.Unsubscribe)
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 30)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 24)),
	)
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// GraphRequest carries the acting follower's handle.
type GraphRequest struct {
	FromUsername string `form:"from_username" json:"from_username"`
}

// Validate will run validation rules
func (r GraphRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FromUsername, validation.Required),
	)
}

func (c *HTTPController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"validation": err.Error(),
		})
	}

	if c.Debug {
		c.Logger.Debug("register payload: %s", print.MaybePrettyJSON(payload))
	}

	result, err := c.Sessions.Register(ctx.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if result.RefreshToken != "" {
		c.setRefreshCookie(ctx, result.RefreshToken)
	}

	return ctx.JSON(router.StatusOK, result)
}

func (c *HTTPController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"validation": err.Error(),
		})
	}

	result, err := c.Sessions.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	c.setRefreshCookie(ctx, result.RefreshToken)

	return ctx.JSON(router.StatusOK, result)
}

func (c *HTTPController) Logout(ctx router.Context) error {
	refresh := ctx.Cookies(c.CookieName)

	if err := c.Sessions.Logout(ctx.Context(), refresh); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	c.clearRefreshCookie(ctx)

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "logged out",
	})
}

func (c *HTTPController) Activate(ctx router.Context) error {
	link := ctx.Param("link")

	user, err := c.Sessions.Activate(ctx.Context(), link)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": NewSessionUser(user),
	})
}

func (c *HTTPController) Refresh(ctx router.Context) error {
	refresh := ctx.Cookies(c.CookieName)

	result, err := c.Sessions.Refresh(ctx.Context(), refresh)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	c.setRefreshCookie(ctx, result.RefreshToken)

	return ctx.JSON(router.StatusOK, result)
}

func (c *HTTPController) Subscribe(ctx router.Context) error {
	return c.mutateEdge(ctx, c.Graph.Subscribe)
}

func (c *HTTPController) Unsubscribe(ctx router.Context) error {
	return c.mutateEdge(ctx, c.Graph.Unsubscribe)
}

func (c *HTTPController) Followers(ctx router.Context) error {
	email := ctx.Query("email")

	records, err := c.Graph.Followers(ctx.Context(), email)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"followers": projectUsers(records),
	})
}

func (c *HTTPController) Subscriptions(ctx router.Context) error {
	email := ctx.Query("email")

	records, err := c.Graph.Subscriptions(ctx.Context(), email)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"subscriptions": projectUsers(records),
	})
}

func (c *HTTPController) mutateEdge(ctx router.Context, op func(ctx context.Context, followerHandle string, followeeID uuid.UUID) error) error {
	payload := new(GraphRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"validation": err.Error(),
		})
	}

	followeeID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "invalid user id",
		})
	}

	if err := op(ctx.Context(), payload.FromUsername, followeeID); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (c *HTTPController) setRefreshCookie(ctx router.Context, value string) {
	ctx.Cookie(&router.Cookie{
		Name:     c.CookieName,
		Value:    value,
		Expires:  time.Now().Add(c.CookieDuration),
		HTTPOnly: true,
		Secure:   c.CookieSecure,
		SameSite: "Lax",
	})
}

func (c *HTTPController) clearRefreshCookie(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     c.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   c.CookieSecure,
		SameSite: "Lax",
	})
}

func (c *HTTPController) defaultErrHandler(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	c.Logger.Info("controller error: %s category=%v text_code=%s", richErr.Message, richErr.Category, richErr.TextCode)

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	return ctx.JSON(status, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func projectUsers(records []*User) []SessionUser {
	out := make([]SessionUser, 0, len(records))
	for _, u := range records {
		out = append(out, NewSessionUser(u))
	}
	return out
}
