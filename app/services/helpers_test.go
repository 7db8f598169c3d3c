package services_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/app/services"
	"github.com/shashiranjanraj/farmlink/pkg/auth"
	"github.com/shashiranjanraj/farmlink/pkg/event"
	"github.com/shashiranjanraj/farmlink/pkg/metrics"
	"github.com/shashiranjanraj/farmlink/pkg/queue"
	"github.com/shashiranjanraj/farmlink/pkg/storage"
	"github.com/shashiranjanraj/farmlink/pkg/testkit"
	"github.com/shashiranjanraj/farmlink/pkg/workerpool"
)

// recorder captures dispatched jobs and published frames.
type recorder struct {
	mu     sync.Mutex
	jobs   []queue.Job
	frames []string
}

func (r *recorder) Dispatch(_ context.Context, job queue.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recorder) Publish(eventType string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, eventType)
}

type env struct {
	db       *gorm.DB
	rec      *recorder
	bus      *event.Bus
	disk     *storage.Local
	metrics  *metrics.Metrics
	signer   *auth.Signer
	auth     *services.AuthService
	products *services.ProductService
	orders   *services.OrderService
	feedback *services.FeedbackService
	profiles *services.ProfileService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testkit.DB(t)
	disk, err := storage.NewLocal(t.TempDir(), "/media")
	require.NoError(t, err)
	pool := workerpool.New(2)
	t.Cleanup(pool.Shutdown)

	e := &env{
		db:      db,
		rec:     &recorder{},
		bus:     event.New(),
		disk:    disk,
		metrics: metrics.New(),
		signer:  auth.NewSigner("test-secret", "reset_password", time.Minute),
	}
	services.Listen(e.bus, e.rec, e.rec, "admin@farmlink.local")

	media := services.NewMediaService(disk, pool, e.metrics)
	e.auth = services.NewAuthService(db, e.signer, e.rec, e.bus, "http://farmlink.test")
	e.products = services.NewProductService(db, media, e.bus, e.metrics, 2)
	e.orders = services.NewOrderService(db, e.bus, e.metrics)
	e.feedback = services.NewFeedbackService(db)
	e.profiles = services.NewProfileService(db)
	return e
}

func farmerRequest(username string) requests.RegisterRequest {
	return requests.RegisterRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            "farmer",
		County:          "kiambu",
		SubCounty:       "Thika",
		Town:            "Makongeni",
		FarmName:        "Green Acres",
		Location:        "Thika",
	}
}

func vendorRequest(username string) requests.RegisterRequest {
	return requests.RegisterRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            "vendor",
		County:          "nairobi",
		SubCounty:       "Westlands",
		Town:            "Parklands",
		FullName:        "Bob Mwangi",
		ShippingAddress: "12 Market Road, Nairobi",
	}
}

func (e *env) register(t *testing.T, req requests.RegisterRequest) *models.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), req)
	require.NoError(t, err)
	return u
}

func (e *env) listProduct(t *testing.T, farmer *models.User, name string, price float64, qty int) *models.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), farmer.ID, requests.ProductRequest{
		Name:              name,
		Description:       "Fresh produce from the farm",
		Price:             &price,
		QuantityAvailable: &qty,
	}, nil)
	require.NoError(t, err)
	return p
}

func (e *env) stock(t *testing.T, productID uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, e.db.First(&p, productID).Error)
	return p.QuantityAvailable
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
