package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/frahmantamala/campaign-portal/api"
	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/apiclient"
	"github.com/frahmantamala/campaign-portal/internal/auth"
	authpg "github.com/frahmantamala/campaign-portal/internal/auth/postgres"
	"github.com/frahmantamala/campaign-portal/internal/cache"
	"github.com/frahmantamala/campaign-portal/internal/campaign"
	campaignpg "github.com/frahmantamala/campaign-portal/internal/campaign/postgres"
	"github.com/frahmantamala/campaign-portal/internal/carousel"
	"github.com/frahmantamala/campaign-portal/internal/core/events"
	"github.com/frahmantamala/campaign-portal/internal/donation"
	donationpg "github.com/frahmantamala/campaign-portal/internal/donation/postgres"
	"github.com/frahmantamala/campaign-portal/internal/expense"
	expensepg "github.com/frahmantamala/campaign-portal/internal/expense/postgres"
	"github.com/frahmantamala/campaign-portal/internal/form"
	"github.com/frahmantamala/campaign-portal/internal/i18n"
	"github.com/frahmantamala/campaign-portal/internal/notice"
	"github.com/frahmantamala/campaign-portal/internal/paymentgateway"
	"github.com/frahmantamala/campaign-portal/internal/telemetry"
	"github.com/frahmantamala/campaign-portal/internal/transport"
	"github.com/frahmantamala/campaign-portal/internal/transport/middleware"
	"github.com/frahmantamala/campaign-portal/internal/transport/rest"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
	"github.com/frahmantamala/campaign-portal/web"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const (
	maxDonationFlows = 10000
	sweepInterval    = time.Minute
	shutdownTimeout  = 30 * time.Second
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server serving the portal pages, HTMX fragments and the JSON API`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// Dependencies is the wired application.
type Dependencies struct {
	Config    *internal.Config
	DB        *sqlx.DB
	Router    *chi.Mux
	Logger    *slog.Logger
	Hero      *campaign.Hero
	Donations *donation.Service
	Notices   *notice.Queue
	Tracing   telemetry.ShutdownFunc
}

// backend is the data source selected by backend.mode.
type backend struct {
	campaigns campaign.Repository
	expenses  expense.Repository
	files     expense.FileStore
	signIn    auth.Authenticator
	health    map[string]rest.Pinger
}

func startHTTPServer() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, deps); err != nil {
		deps.Logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	deps.Logger.Info("Server stopped")
}

// run serves HTTP and the background loops until ctx is cancelled, then
// shuts everything down.
func run(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config.Server
	addr := fmt.Sprintf(":%d", cfg.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(deps.Router, "http.server"),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Logger.Info("Starting HTTP server", "address", addr, "backend", deps.Config.Backend.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := deps.Hero.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("hero: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		deps.Donations.Sweep(gctx, sweepInterval)
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(deps.Config.UI.NoticeTTL)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				deps.Notices.Prune()
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if deps.DB != nil {
			if err := deps.DB.Close(); err != nil {
				deps.Logger.Error("Database close error", "error", err)
			}
		}
		if err := deps.Tracing(shutdownCtx); err != nil {
			deps.Logger.Error("Tracer shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Configure(config.Observability.Logging.Level, config.Observability.Logging.Format)

	tracing, err := telemetry.Setup(ctx, config.Observability.Tracing, version)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	var db *sqlx.DB
	if config.Database.Configured() {
		db, err = initDB(ctx, config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	be, err := initBackend(config, db, lg)
	if err != nil {
		return nil, err
	}

	clock := clockwork.NewRealClock()
	bus := events.NewEventBus(lg)
	subscribeAuditLog(bus, lg)

	// campaigns and the hero carousel
	campaignService := campaign.NewService(be.campaigns, config.Cache.Size, config.Cache.TTL, clock, lg)
	hero := campaign.NewHero(campaignService, clock, campaign.HeroConfig{
		Timer: carousel.TimerConfig{
			Timeout: config.UI.Hero.Timeout,
			Settle:  config.UI.Hero.Settle,
			Frame:   config.UI.Hero.Frame,
		},
		Window:          config.UI.Hero.Window,
		Step:            config.UI.Hero.Step,
		RefreshInterval: config.UI.Hero.RefreshInterval,
	}, lg)

	// views
	bundle := i18n.NewBundle(config.UI.DefaultLocale)
	notices := notice.NewQueue(clock, config.UI.NoticeTTL)
	view, err := transport.NewView(web.Templates(), bundle, notices, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	binder := form.NewBinder()

	// sign-in
	sessions := auth.NewSessionManager(config.Security.SessionSecret, config.Security.SessionDuration, config.Security.SecureCookies, clock)
	authService := auth.NewService(be.signIn, sessions, lg)
	var google auth.OAuthProvider
	if config.OAuth.GoogleEnabled() {
		google = auth.NewGoogleProvider(config.OAuth.GoogleClientID, config.OAuth.GoogleClientSecret, config.OAuth.GoogleRedirectURL)
	}
	authHandler := auth.NewHandler(authService, binder, google, view)
	authHandler.SecureCookie = config.Security.SecureCookies

	// expenses
	expenseLists := cache.NewLRU(config.Cache.Size, config.Cache.TTL, cache.WithClock[[]expense.Expense](clock))
	expenseService := expense.NewService(be.expenses, be.files, campaignService, bus, expenseLists, lg)
	bus.Subscribe(events.EventTypeExpenseSaved, expenseService.OnExpenseSaved)
	expenseHandler := expense.NewHandler(expenseService, campaignService, binder, view)

	// donations
	gateway := paymentgateway.NewStripe(paymentgateway.Config{
		SecretKey:      config.Payment.StripeSecretKey,
		PublishableKey: config.Payment.StripePublishableKey,
		WebhookSecret:  config.Payment.WebhookSecret,
		APIURL:         config.Payment.APIURL,
	}, lg)
	var verifier donation.WebhookVerifier
	if config.Payment.WebhookSecret != "" {
		verifier = gateway
	} else {
		lg.Warn("payment.webhook_secret is empty; webhooks will be rejected")
	}
	var ledger donation.Ledger
	if db != nil {
		ledger = donationpg.NewLedger(db, clock)
	}
	donationService := donation.NewService(gateway, verifier, ledger, bus,
		donation.NewFlowStore(maxDonationFlows, config.UI.FlowTTL, clock),
		donation.Config{
			Currency:       strings.ToUpper(config.Payment.Currency),
			PublishableKey: config.Payment.StripePublishableKey,
			Bank: donation.BankInstructions{
				Beneficiary: config.Bank.Beneficiary,
				IBAN:        config.Bank.IBAN,
				BIC:         config.Bank.BIC,
				BankName:    config.Bank.BankName,
				Reason:      config.Bank.Reason,
			},
		}, clock, lg)
	donationHandler := donation.NewHandler(donationService, campaignService, authService, binder, config.UI.Breakpoint, view)
	donationHandler.SecureCookie = config.Security.SecureCookies

	validator, err := middleware.NewOpenAPIValidator(api.Spec, lg)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Routes{
		Campaigns:     campaign.NewHandler(campaignService, hero, view),
		Expenses:      expenseHandler,
		Donations:     donationHandler,
		Auth:          authHandler,
		Notices:       notices,
		Health:        be.health,
		Static:        web.Static(),
		OpenAPI:       api.Spec,
		Validator:     validator,
		Metrics:       config.Observability.Metrics,
		SecureCookies: config.Security.SecureCookies,
	}, lg)

	return &Dependencies{
		Config:    config,
		DB:        db,
		Router:    router,
		Logger:    lg,
		Hero:      hero,
		Donations: donationService,
		Notices:   notices,
		Tracing:   tracing,
	}, nil
}

// initBackend wires the repositories for the configured backend mode.
func initBackend(config *internal.Config, db *sqlx.DB, lg *slog.Logger) (*backend, error) {
	be := &backend{health: map[string]rest.Pinger{}}
	if db != nil {
		be.health["postgres"] = db
	}

	switch config.Backend.Mode {
	case internal.BackendLocal:
		if db == nil {
			return nil, errors.New("the local backend needs database.source")
		}
		gdb, err := initGorm(db.DB, lg)
		if err != nil {
			return nil, err
		}
		expenses := expensepg.NewExpenseRepository(gdb)
		be.campaigns = campaignpg.NewCampaignRepository(gdb)
		be.expenses = expenses
		be.files = expenses
		be.signIn = authpg.NewRepository(gdb)
	default:
		client := apiclient.NewClient(apiclient.Config{
			BaseURL: config.Backend.BaseURL,
			Timeout: config.Backend.Timeout,
		}, lg)
		expenses := apiclient.NewExpenseRepository(client)
		be.campaigns = apiclient.NewCampaignRepository(client)
		be.expenses = expenses
		be.files = expenses
		be.signIn = apiclient.NewAuthenticator(client)
		be.health["backend"] = client
	}
	return be, nil
}
