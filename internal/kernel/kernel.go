// Package kernel builds the farmlink application graph from configuration:
// stores, queue, mail, image disk, services, controllers, routes and the
// global middleware stack. Nothing in the graph is a package-level global.
package kernel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/catalog"
	"github.com/shashiranjanraj/farmlink/app/controllers"
	"github.com/shashiranjanraj/farmlink/app/jobs"
	"github.com/shashiranjanraj/farmlink/app/routes"
	"github.com/shashiranjanraj/farmlink/app/services"
	"github.com/shashiranjanraj/farmlink/config"
	"github.com/shashiranjanraj/farmlink/pkg/auth"
	"github.com/shashiranjanraj/farmlink/pkg/cache"
	"github.com/shashiranjanraj/farmlink/pkg/event"
	"github.com/shashiranjanraj/farmlink/pkg/graphql"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
	"github.com/shashiranjanraj/farmlink/pkg/mail"
	"github.com/shashiranjanraj/farmlink/pkg/metrics"
	"github.com/shashiranjanraj/farmlink/pkg/middleware"
	"github.com/shashiranjanraj/farmlink/pkg/queue"
	"github.com/shashiranjanraj/farmlink/pkg/reqid"
	"github.com/shashiranjanraj/farmlink/pkg/router"
	"github.com/shashiranjanraj/farmlink/pkg/schedule"
	"github.com/shashiranjanraj/farmlink/pkg/session"
	"github.com/shashiranjanraj/farmlink/pkg/sse"
	"github.com/shashiranjanraj/farmlink/pkg/storage"
	"github.com/shashiranjanraj/farmlink/pkg/workerpool"
	"github.com/shashiranjanraj/farmlink/pkg/ws"
)

const (
	resetPurpose   = "reset_password"
	memoryQueueCap = 1024
	evictInterval  = time.Minute
	purgeInterval  = 10 * time.Minute
)

// Deps are the externally owned resources. Config and DB are required;
// nil optional fields are built from Config.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis, when set, backs sessions and the job queue.
	Redis   *redis.Client
	Mailer  mail.Mailer
	Disk    storage.Disk
	Metrics *metrics.Metrics
}

// Services is the business layer.
type Services struct {
	Auth     *services.AuthService
	Products *services.ProductService
	Orders   *services.OrderService
	Feedback *services.FeedbackService
	Profiles *services.ProfileService
}

// Kernel is a wired application.
type Kernel struct {
	Config   *config.Config
	DB       *gorm.DB
	Router   *router.Router
	Services Services
	Queue    *queue.Manager
	Mailer   mail.Mailer
	Disk     storage.Disk
	Sessions *session.Manager
	Events   *event.Bus
	Hub      *ws.Hub
	Stream   *sse.Broker
	Metrics  *metrics.Metrics
	Resets   *auth.Signer
	Tasks    *schedule.Scheduler

	pool    *workerpool.Pool
	limiter *middleware.RateLimiter
	handler http.Handler
}

// New wires the application. It does not start background work; call
// Start for that.
func New(ctx context.Context, d Deps) (*Kernel, error) {
	if d.Config == nil || d.DB == nil {
		return nil, fmt.Errorf("kernel: config and db are required")
	}
	cfg := d.Config

	k := &Kernel{
		Config:  cfg,
		DB:      d.DB,
		Metrics: d.Metrics,
		Mailer:  d.Mailer,
		Disk:    d.Disk,
		Events:  event.New(),
		Hub:     ws.NewHub(nil),
		Stream:  sse.NewBroker(),
		Tasks:   schedule.New(),
		Resets:  auth.NewSigner(cfg.SecretKey, resetPurpose, cfg.TokenTTL),
		pool:    workerpool.New(cfg.ImageWorkers),
		limiter: middleware.NewRateLimiter(cfg.RateLimit, time.Minute),
	}
	if k.Metrics == nil {
		k.Metrics = metrics.New()
	}
	if k.Mailer == nil {
		k.Mailer = newMailer(cfg.Mail)
	}
	if k.Disk == nil {
		disk, err := newDisk(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		k.Disk = disk
	}

	var (
		store  cache.Store = cache.NewMemory()
		driver queue.Driver
	)
	if d.Redis != nil {
		store = cache.NewRedis(d.Redis, "farmlink:")
		driver = queue.NewRedisDriver(d.Redis)
	} else {
		mem := store.(*cache.MemoryStore)
		k.Tasks.Every("sessions.purge", purgeInterval, func() {
			if n := mem.Purge(); n > 0 {
				logger.Info("sessions purged", "count", n)
			}
		})
		driver = queue.NewMemoryDriver(memoryQueueCap)
	}
	k.Tasks.Every("ratelimit.evict", evictInterval, k.limiter.Evict)

	opts := session.DefaultOptions()
	opts.CookieName = cfg.SessionCookie
	opts.TTL = cfg.SessionTTL
	opts.Secure = cfg.IsProduction()
	k.Sessions = session.NewManager(store, opts)

	k.Queue = queue.New(driver, queue.Options{
		MaxRetry: cfg.QueueMaxRetry,
		DB:       d.DB,
		Observe:  k.Metrics.RecordQueueJob,
	})
	jobs.Register(k.Queue, k.Mailer)

	media := services.NewMediaService(k.Disk, k.pool, k.Metrics)
	k.Services = Services{
		Auth:     services.NewAuthService(d.DB, k.Resets, k.Queue, k.Events, cfg.AppURL),
		Products: services.NewProductService(d.DB, media, k.Events, k.Metrics, cfg.ItemsPerPage),
		Orders:   services.NewOrderService(d.DB, k.Events, k.Metrics),
		Feedback: services.NewFeedbackService(d.DB),
		Profiles: services.NewProfileService(d.DB),
	}
	services.Listen(k.Events, k.Queue, services.Feeds{k.Hub, k.Stream}, cfg.AdminEmail)

	schema, err := catalog.NewSchema(k.Services.Products)
	if err != nil {
		return nil, fmt.Errorf("kernel: build graphql schema: %w", err)
	}

	r := router.New()
	// Outermost first: metrics see total latency, recovery catches panics
	// before anything logs, and the request id exists before the logger.
	r.Use(k.Metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(k.Sessions.Middleware)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(k.limiter.Middleware)

	h := routes.Handlers{
		Home:     controllers.NewHomeController(),
		Auth:     controllers.NewAuthController(k.Services.Auth),
		Products: controllers.NewProductController(k.Services.Products),
		Orders:   controllers.NewOrderController(k.Services.Orders),
		Feedback: controllers.NewFeedbackController(k.Services.Feedback),
		Profiles: controllers.NewProfileController(k.Services.Profiles),
		GraphQL:  graphql.Handler(schema),
		Feed:     k.Hub,
		Events:   k.Stream,
		Metrics:  k.Metrics.Handler(),
	}
	if local, ok := k.Disk.(*storage.Local); ok {
		h.Media = local.Handler()
		h.MediaPrefix = cfg.Storage.MediaURL
	}
	routes.Register(r, h)

	k.Router = r
	k.handler = r.Handler()
	return k, nil
}

// Handler is the root HTTP handler.
func (k *Kernel) Handler() http.Handler { return k.handler }

// Start runs the queue workers, the live-feed hub and the housekeeping
// tasks until ctx is cancelled.
func (k *Kernel) Start(ctx context.Context) {
	k.Queue.Start(ctx, k.Config.QueueWorkers)
	go k.Hub.Run(ctx)
	k.Tasks.Start(ctx)
}

// Shutdown waits for the queue workers (ctx passed to Start must already
// be cancelled) and stops the image pool.
func (k *Kernel) Shutdown() {
	k.Queue.Wait()
	k.Tasks.Wait()
	k.pool.Shutdown()
	logger.Info("kernel: stopped")
}

func newMailer(cfg config.Mail) mail.Mailer {
	if cfg.Server == "" {
		return mail.Log{}
	}
	return mail.NewSMTP(mail.SMTPConfig{
		Host:     cfg.Server,
		Port:     cfg.Port,
		UseTLS:   cfg.UseTLS,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.Sender,
	})
}

func newDisk(ctx context.Context, cfg config.Storage) (storage.Disk, error) {
	baseURL := cfg.MediaURL
	if cfg.Disk == "s3" && cfg.S3URL != "" {
		baseURL = cfg.S3URL
	}
	disk, err := storage.New(ctx, storage.Options{
		Driver:     cfg.Disk,
		Root:       cfg.UploadDir,
		BaseURL:    baseURL,
		S3Bucket:   cfg.S3Bucket,
		S3Region:   cfg.S3Region,
		S3Endpoint: cfg.S3Endpoint,
		S3Key:      cfg.S3Key,
		S3Secret:   cfg.S3Secret,
	})
	if err != nil {
		return nil, fmt.Errorf("kernel: open %s disk: %w", cfg.Disk, err)
	}
	return disk, nil
}
