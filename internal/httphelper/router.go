package httphelper

import (
	"errors"
	"log/slog"

	"github.com/Depado/ginprom"
	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/pkg/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	sloggin "github.com/samber/slog-gin"
)

var ErrValidator = errors.New("failed to register validator")

type RouterOpts struct {
	HTTPLogEnabled    bool
	LogLevel          log.Level
	Mode              string
	SentryDSN         string
	Version           string
	PrometheusEnabled bool
	HTTPCORSEnabled   bool
	CORSOrigins       []string
}

// CreateRouter constructs a new router using gin.Engine with the provided RouterOpts.
func CreateRouter(opts RouterOpts) (*gin.Engine, error) {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(recoveryHandler())
	engine.Use(errorHandler())

	if errReg := registerCustomValidators(); errReg != nil {
		return nil, errReg
	}

	if opts.HTTPLogEnabled {
		useSloggin(engine, opts.LogLevel)
	}

	if opts.SentryDSN != "" {
		useSentry(engine, opts.Version)
	}

	if opts.HTTPCORSEnabled {
		useCors(engine, opts.CORSOrigins, opts.Mode != gin.ReleaseMode)
	}

	if opts.PrometheusEnabled {
		usePrometheus(engine)
	}

	return engine, nil
}

// registerCustomValidators handles registering our custom request field type validators within the
// validation engine that gin uses.
func registerCustomValidators() error {
	if instance, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := instance.RegisterValidation("content_type", contentTypeValidator); err != nil {
			return errors.Join(err, ErrValidator)
		}
	}

	return nil
}

func contentTypeValidator(fl validator.FieldLevel) bool {
	contentType, ok := fl.Field().Interface().(content.Type)
	if ok {
		return contentType.Valid()
	}

	return false
}

func useCors(engine *gin.Engine, origins []string, devMode bool) {
	engine.Use(useSecure(devMode))

	if len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
		corsConfig.AllowWildcard = true
		corsConfig.AllowCredentials = true

		engine.Use(cors.New(corsConfig))
	} else {
		slog.Warn("No cors origins defined, disabling")
	}
}

func usePrometheus(engine *gin.Engine) {
	prom := ginprom.New(func(prom *ginprom.Prometheus) {
		prom.Namespace = "moderation"
		prom.Subsystem = "http"
	})
	engine.Use(prom.Instrument())
}

func useSloggin(engine *gin.Engine, level log.Level) {
	logConfig := sloggin.Config{
		DefaultLevel:     log.ToSlogLevel(level),
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}

	engine.Use(sloggin.NewWithConfig(slog.Default(), logConfig))
}
