package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adagearchive/moderation/internal/auth"
	"github.com/adagearchive/moderation/internal/challenge"
	"github.com/adagearchive/moderation/internal/config"
	"github.com/adagearchive/moderation/internal/contact"
	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/database"
	"github.com/adagearchive/moderation/internal/discord"
	"github.com/adagearchive/moderation/internal/httphelper"
	"github.com/adagearchive/moderation/internal/metrics"
	"github.com/adagearchive/moderation/internal/modlog"
	"github.com/adagearchive/moderation/internal/notification"
	"github.com/adagearchive/moderation/internal/person"
	"github.com/adagearchive/moderation/pkg/emailer"
	"github.com/adagearchive/moderation/pkg/log"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var ErrAuthSecret = errors.New("auth.secret must be at least 16 characters")

// App owns every long lived dependency of the service.
type App struct {
	config        config.Config
	database      database.Database
	persons       person.Repository
	notifications notification.Repository
	lifecycle     *challenge.Lifecycle
	bot           *discord.Bot
	sentry        *sentry.Client
	logCloser     func()
}

func NewApp() (*App, error) {
	conf, errConfig := config.Read(cfgFile)
	if errConfig != nil {
		return nil, errConfig
	}

	if errValidate := conf.Validate(); errValidate != nil {
		return nil, errValidate
	}

	return &App{config: conf}, nil
}

func (a *App) Init(ctx context.Context) error {
	conf := a.config

	a.setupSentry()
	a.logCloser = log.MustCreateLogger(ctx, log.Opts{
		Level:     conf.Log.Level,
		File:      conf.Log.File,
		UseSentry: a.sentry != nil,
		Version:   BuildVersion,
	})

	slog.Info("Starting moderation...",
		slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit),
		slog.String("date", BuildDate))

	dbConn := database.New(conf.Database.DSN, conf.Database.AutoMigrate, conf.Database.LogQueries)
	if errConnect := dbConn.Connect(ctx); errConnect != nil {
		slog.Error("Cannot initialize database", log.ErrAttr(errConnect))

		return errConnect
	}

	a.database = dbConn
	a.persons = person.NewRepository(dbConn)
	a.notifications = notification.NewRepository(dbConn)

	mailer, errMailer := a.newMailer()
	if errMailer != nil {
		return errMailer
	}

	audit, errAudit := a.newAuditLog()
	if errAudit != nil {
		return errAudit
	}

	var admins challenge.AdminDirectory = a.persons
	if len(conf.Moderation.AdminIDs) > 0 {
		admins = person.StaticAdmins(conf.Moderation.AdminIDs)
	}

	emailTypes := make([]notification.Type, 0, len(conf.Moderation.EmailTypes))
	for _, emailType := range conf.Moderation.EmailTypes {
		emailTypes = append(emailTypes, notification.Type(emailType))
	}

	a.lifecycle = challenge.NewLifecycle(challenge.Dependencies{
		Store:    challenge.NewRepository(dbConn),
		Content:  content.NewRepository(dbConn, conf.General.ExternalURL),
		Notifier: notification.NewDispatcher(a.notifications, a.persons, mailer, emailTypes, conf.General.SiteName),
		Audit:    audit,
		Admins:   admins,
		Tickets:  contact.NewRepository(dbConn),
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
	}, challenge.Options{
		EffectTimeout: conf.Moderation.EffectTimeout,
		FanOutLimit:   conf.Moderation.FanOutLimit,
		MaxAttempts:   conf.Moderation.MaxAttempts,
	})

	return nil
}

func (a *App) newMailer() (notification.Mailer, error) { //nolint:ireturn
	if !a.config.SMTP.Enabled {
		slog.Info("Email notifications are disabled")

		return nil, nil
	}

	sender, errSender := emailer.New(emailer.Config{
		Host:      a.config.SMTP.Host,
		Port:      a.config.SMTP.Port,
		Username:  a.config.SMTP.Username,
		Password:  a.config.SMTP.Password,
		From:      a.config.SMTP.From,
		PerMinute: a.config.SMTP.PerMinute,
	})
	if errSender != nil {
		slog.Error("Failed to setup emailer", log.ErrAttr(errSender))

		return nil, errSender
	}

	return sender, nil
}

func (a *App) newAuditLog() (challenge.AuditLog, error) { //nolint:ireturn
	repository := modlog.NewRepository(a.database)
	if !a.config.Discord.Enabled {
		return repository, nil
	}

	bot, errBot := discord.New(a.config.Discord.Token)
	if errBot != nil {
		slog.Error("Failed to setup discord", log.ErrAttr(errBot))

		return nil, errBot
	}

	a.bot = bot

	return modlog.NewMirror(repository, bot, a.config.Discord.LogChannelID), nil
}

func (a *App) setupSentry() {
	if a.config.Log.SentryDSN == "" {
		return
	}

	sentryClient, err := log.NewSentryClient(a.config.Log.SentryDSN, a.config.Log.SentrySampleRate, BuildVersion,
		a.config.General.Mode)
	if err != nil {
		slog.Error("Failed to setup sentry client", log.ErrAttr(err))

		return
	}

	a.sentry = sentryClient
}

func (a *App) Serve(rootCtx context.Context) error {
	if len(a.config.Auth.Secret) < 16 {
		return ErrAuthSecret
	}

	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf := a.config

	router, errRouter := httphelper.CreateRouter(httphelper.RouterOpts{
		HTTPLogEnabled:    conf.HTTP.LogEnabled,
		LogLevel:          conf.Log.Level,
		Mode:              conf.General.Mode,
		SentryDSN:         conf.Log.SentryDSN,
		Version:           BuildVersion,
		PrometheusEnabled: conf.HTTP.PrometheusEnabled,
		HTTPCORSEnabled:   len(conf.HTTP.CORSOrigins) > 0,
		CORSOrigins:       conf.HTTP.CORSOrigins,
	})
	if errRouter != nil {
		slog.Error("Could not setup router", log.ErrAttr(errRouter))

		return errRouter
	}

	authenticator := auth.New(conf.Auth.Secret, conf.Auth.Issuer, a.persons)

	challenge.NewHandler(router, a.lifecycle, a.notifications, authenticator)

	if conf.HTTP.PrometheusEnabled {
		metrics.NewHandler(router)
	}

	httpServer := httphelper.NewServer(conf.HTTP.Addr(), router)
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("Starting HTTP server", slog.String("address", conf.HTTP.Addr()))

		if errServe := httpServer.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		slog.Info("Shutting down HTTP service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx) //nolint:contextcheck
	})

	if errGroup := group.Wait(); errGroup != nil {
		slog.Error("HTTP server returned error", log.ErrAttr(errGroup))

		return errGroup
	}

	slog.Info("Exiting...")

	return nil
}

func (a *App) Close() {
	if a.bot != nil {
		log.Closer(a.bot)
	}

	if a.database != nil {
		log.Closer(a.database)
	}

	if a.sentry != nil {
		a.sentry.Flush(2 * time.Second)
	}

	if a.logCloser != nil {
		a.logCloser()
	}
}
