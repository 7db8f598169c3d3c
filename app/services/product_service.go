package services

import (
	"context"
	"io"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/repositories"
	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
	"github.com/shashiranjanraj/farmlink/pkg/metrics"
	"github.com/shashiranjanraj/farmlink/pkg/orm"
)

const (
	MsgProductNotFound = "Product not found."
	MsgNotYourProduct  = "You do not have permission to view this product."
	MsgNoFarmerProfile = "No farmer profile found. Please complete your registration."
	MsgFarmerNotFound  = "Farmer not found."
)

const (
	defaultItemsPerPage  = 10
	farmerDashboardRoute = "/farmer/dashboard"
)

// ErrNoFarmerProfile is returned by Dashboard for a farmer-role user
// without a profile row.
var ErrNoFarmerProfile = apperr.Forbidden(MsgNoFarmerProfile).WithRedirect("/")

// ProductPage is one page of the catalogue.
type ProductPage struct {
	Products []models.Product `json:"products"`
	Page     orm.Page         `json:"pagination"`
}

// ProductDetail is the public product view.
type ProductDetail struct {
	Product  *models.Product     `json:"product"`
	ImageURL string              `json:"image_url,omitempty"`
	Rating   repositories.Rating `json:"farmer_rating"`
}

// FarmerDashboard lists a farmer's own products.
type FarmerDashboard struct {
	Farmer   *models.Farmer   `json:"farmer"`
	Products []models.Product `json:"products"`
}

// FarmerView is a farmer's public page.
type FarmerView struct {
	Farmer   *models.Farmer      `json:"farmer"`
	Products []models.Product    `json:"products"`
	Rating   repositories.Rating `json:"rating"`
}

// ProductService manages product listings.
type ProductService struct {
	db      *gorm.DB
	media   *MediaService
	events  Events
	metrics *metrics.Metrics
	perPage int
}

// NewProductService returns a ProductService. m may be nil.
func NewProductService(db *gorm.DB, media *MediaService, events Events, m *metrics.Metrics, perPage int) *ProductService {
	if perPage <= 0 {
		perPage = defaultItemsPerPage
	}
	return &ProductService{db: db, media: media, events: eventsOrNop(events), metrics: m, perPage: perPage}
}

func (s *ProductService) repos() *repositories.Set { return repositories.NewSet(s.db) }

// Create lists a new product for the farmer userID. image may be nil.
func (s *ProductService) Create(ctx context.Context, userID uint, req requests.ProductRequest, image io.Reader) (*models.Product, error) {
	repos := s.repos()
	farmer, err := farmerFor(ctx, repos.Profiles, userID)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		FarmerID:          farmer.ID,
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.PriceDecimal(),
		QuantityAvailable: req.Quantity(),
	}
	if image != nil && s.media != nil {
		name, err := s.media.SaveProductImage(ctx, image)
		if err != nil {
			return nil, err
		}
		p.ImageFile = name
	}

	if err := repos.Products.Create(ctx, p); err != nil {
		if s.media != nil {
			s.media.Delete(ctx, p.ImageFile)
		}
		return nil, classify("create product", err)
	}
	p.Farmer = farmer

	if s.metrics != nil {
		s.metrics.ProductsCreated.Inc()
	}
	logger.WithCtx(ctx).Info("product created", "product_id", p.ID, "farmer_id", farmer.ID)
	s.events.Fire(ctx, EventProductCreated, p)
	return p, nil
}

// List returns page (1-based) of every product, newest first.
func (s *ProductService) List(ctx context.Context, page int) (*ProductPage, error) {
	products, meta, err := s.repos().Products.Paginate(ctx, page, s.perPage)
	if err != nil {
		return nil, classify("list products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return &ProductPage{Products: products, Page: meta}, nil
}

// Get returns the public view of a product.
func (s *ProductService) Get(ctx context.Context, id uint) (*ProductDetail, error) {
	repos := s.repos()
	p, err := repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("find product", err, apperr.NotFound(MsgProductNotFound))
	}
	rating, err := repos.Feedbacks.RatingFor(ctx, p.FarmerID)
	if err != nil {
		return nil, classify("rate farmer", err)
	}
	return &ProductDetail{Product: p, ImageURL: s.imageURL(p), Rating: rating}, nil
}

// GetOwned returns a product only to the farmer who listed it. A missing
// product and someone else's product are refused the same way.
func (s *ProductService) GetOwned(ctx context.Context, userID, id uint) (*ProductDetail, error) {
	repos := s.repos()
	denied := apperr.Forbidden(MsgNotYourProduct).WithRedirect(farmerDashboardRoute)

	farmer, err := repos.Profiles.FarmerByUserID(ctx, userID)
	if err != nil {
		return nil, notFound("load farmer profile", err, denied)
	}
	p, err := repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("find product", err, denied)
	}
	if p.FarmerID != farmer.ID {
		logger.WithCtx(ctx).Warn("foreign product access", "user_id", userID, "product_id", id)
		return nil, denied
	}
	return &ProductDetail{Product: p, ImageURL: s.imageURL(p)}, nil
}

// ListMine returns the current farmer's products.
func (s *ProductService) ListMine(ctx context.Context, userID uint) ([]models.Product, error) {
	repos := s.repos()
	farmer, err := farmerFor(ctx, repos.Profiles, userID)
	if err != nil {
		return nil, err
	}
	products, err := repos.Products.ListByFarmer(ctx, farmer.ID)
	if err != nil {
		return nil, classify("list farmer products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Dashboard returns the farmer's profile and products.
func (s *ProductService) Dashboard(ctx context.Context, userID uint) (*FarmerDashboard, error) {
	repos := s.repos()
	farmer, err := repos.Profiles.FarmerByUserID(ctx, userID)
	if err != nil {
		return nil, notFound("load farmer profile", err, ErrNoFarmerProfile)
	}
	products, err := repos.Products.ListByFarmer(ctx, farmer.ID)
	if err != nil {
		return nil, classify("list farmer products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return &FarmerDashboard{Farmer: farmer, Products: products}, nil
}

// Farmer returns a farmer's public page.
func (s *ProductService) Farmer(ctx context.Context, farmerID uint) (*FarmerView, error) {
	repos := s.repos()
	farmer, err := repos.Profiles.FarmerByID(ctx, farmerID)
	if err != nil {
		return nil, notFound("find farmer", err, apperr.NotFound(MsgFarmerNotFound))
	}
	products, err := repos.Products.ListByFarmer(ctx, farmer.ID)
	if err != nil {
		return nil, classify("list farmer products", err)
	}
	rating, err := repos.Feedbacks.RatingFor(ctx, farmer.ID)
	if err != nil {
		return nil, classify("rate farmer", err)
	}
	return &FarmerView{Farmer: farmer, Products: products, Rating: rating}, nil
}

// ImageURL returns the public URL of p's image, or "".
func (s *ProductService) ImageURL(p *models.Product) string { return s.imageURL(p) }

func (s *ProductService) imageURL(p *models.Product) string {
	if s.media == nil || p == nil {
		return ""
	}
	return s.media.URL(p.ImageFile)
}
