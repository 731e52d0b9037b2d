package admin

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/podscript/internal/pkg/messages"
	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/airenas/podscript/internal/pkg/worker"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Runner runs jobs synchronously
type Runner interface {
	RunManually(ctx context.Context, job string) (*persistence.RunSummary, error)
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// Liver checks if dependencies are alive
type Liver interface {
	Live(ctx context.Context) error
}

// StateProvider returns current worker state
type StateProvider interface {
	State() worker.State
}

// Data keeps data required for service work
type Data struct {
	Port       int
	RunTimeout time.Duration
	Runner     Runner
	Sender     MsgSender
	// Liver and State are optional
	Liver Liver
	State StateProvider
}

type enqueueResult struct {
	ID  string `json:"id"`
	Job string `json:"job"`
}

type stateResult struct {
	State string `json:"state"`
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Int("port", data.Port).Msgf("Starting HTTP podscript admin service")
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = data.RunTimeout + 10*time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.Runner == nil {
		return errors.New("no runner")
	}
	if data.Sender == nil {
		return errors.New("no sender")
	}
	if data.RunTimeout <= 0 {
		return errors.New("no run timeout")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("podscript_admin", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.POST("/run/:job", run(data))
	e.POST("/enqueue/:job", enqueue(data))
	e.GET("/status", state(data))
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if data.Liver != nil {
			if err := data.Liver.Live(c.Request().Context()); err != nil {
				goapp.Log.Error().Err(err).Msg("not live")
				return c.JSONBlob(http.StatusServiceUnavailable, []byte(`{"service":"FAIL"}`))
			}
		}
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func state(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if data.State == nil {
			return echo.NewHTTPError(http.StatusNotFound, "No state")
		}
		return c.JSON(http.StatusOK, stateResult{State: data.State.State().String()})
	}
}

func run(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("run method")()

		job := c.Param("job")
		ctx, cf := context.WithTimeout(c.Request().Context(), data.RunTimeout)
		defer cf()
		res, err := data.Runner.RunManually(ctx, job)
		if err != nil {
			if errors.Is(err, worker.ErrUnknownJob) {
				return echo.NewHTTPError(http.StatusNotFound, "Unknown job")
			}
			goapp.Log.Error().Err(err).Str("job", job).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Run failed")
		}
		return c.JSON(http.StatusOK, res)
	}
}

func enqueue(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		job := c.Param("job")
		if job != worker.JobTranscripts {
			return echo.NewHTTPError(http.StatusNotFound, "Unknown job")
		}
		id := uuid.NewString()
		err := data.Sender.SendMessage(c.Request().Context(), &messages.RunMessage{
			QueueMessage: amessages.QueueMessage{ID: id}, Job: job}, messages.Run)
		if err != nil {
			goapp.Log.Error().Err(err).Str("job", job).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Can't enqueue")
		}
		return c.JSON(http.StatusAccepted, enqueueResult{ID: id, Job: job})
	}
}
