package api

import (
	"cardash/internal/logger"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"
)

// NewServer wires the handler into an echo instance with the standard
// middleware stack.
func NewServer(h *Handler, reloadsPerMinute float64) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = logger.Default()
	e.JSONSerializer = JSONSerializer{}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.LoggerWithConfig(accessLogConfig()))

	h.RegisterRoutes(e, ReloadLimiter(reloadsPerMinute))
	return e
}

const textAccessFormat = "${time_rfc3339} INFO http ${method} ${uri} ${status} ${latency_human} id=${id}\n"

// accessLogConfig sends request lines to the application log output. They are
// written at INFO, so a warn or error level drops them.
func accessLogConfig() middleware.LoggerConfig {
	cfg := middleware.LoggerConfig{
		Skipper: func(echo.Context) bool {
			return logger.Default().Level() > log.INFO
		},
		Output: logger.Default().Output(),
	}
	if !logger.JSON() {
		cfg.Format = textAccessFormat
	}
	return cfg
}

// ReloadLimiter allows reloadsPerMinute reload requests per client IP, one at
// a time.
func ReloadLimiter(reloadsPerMinute float64) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(reloadsPerMinute / 60),
		Burst:     1,
		ExpiresIn: 5 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "reload rate limit exceeded"})
		},
	})
}

// JSONSerializer is echo's default serializer on top of goccy/go-json.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Unmarshal type error: expected=%v, got=%v, field=%v, offset=%v", ute.Type, ute.Value, ute.Field, ute.Offset)).SetInternal(err)
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Syntax error: offset=%v, error=%v", se.Offset, se.Error())).SetInternal(err)
	}
	return err
}
