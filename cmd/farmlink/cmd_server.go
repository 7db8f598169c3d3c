package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/farmlink/app/controllers"
	"github.com/shashiranjanraj/farmlink/app/routes"
	"github.com/shashiranjanraj/farmlink/config"
	"github.com/shashiranjanraj/farmlink/internal/kernel"
	"github.com/shashiranjanraj/farmlink/internal/server"
	"github.com/shashiranjanraj/farmlink/pkg/cache"
	"github.com/shashiranjanraj/farmlink/pkg/database"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
	"github.com/shashiranjanraj/farmlink/pkg/metrics"
	"github.com/shashiranjanraj/farmlink/pkg/router"
)

var autoMigrate bool

// farmlink serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP server and queue workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, closer, err := boot()
	if err != nil {
		return err
	}
	defer closer.Close()

	m := metrics.New()
	db, err := openDB(cfg, m)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if autoMigrate {
		if _, err := runner(db).Run(); err != nil {
			return err
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	k, err := kernel.New(ctx, kernel.Deps{Config: cfg, DB: db, Redis: rdb, Metrics: m})
	if err != nil {
		return err
	}

	workCtx, cancel := context.WithCancel(context.Background())
	k.Start(workCtx)

	logger.Info("farmlink starting", "port", cfg.AppPort, "env", cfg.AppEnv, "db", cfg.DBDriver)
	err = server.ListenAndServe(ctx, ":"+cfg.AppPort, k.Handler())

	cancel()
	k.Shutdown()
	return err
}

// farmlink route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}

		// Services are not needed to describe the table.
		r := router.New()
		placeholder := http.NotFoundHandler()
		routes.Register(r, routes.Handlers{
			Home:        controllers.NewHomeController(),
			Auth:        controllers.NewAuthController(nil),
			Products:    controllers.NewProductController(nil),
			Orders:      controllers.NewOrderController(nil),
			Feedback:    controllers.NewFeedbackController(nil),
			Profiles:    controllers.NewProfileController(nil),
			GraphQL:     placeholder,
			Feed:        placeholder,
			Events:      placeholder,
			Metrics:     placeholder,
			Media:       placeholder,
			MediaPrefix: cfg.Storage.MediaURL,
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range r.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "run pending migrations before serving")
}
