// Package catalog exposes the product catalogue as a read-only GraphQL
// schema: products(page), product(id) and farmer(id).
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/services"
	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	gql "github.com/shashiranjanraj/farmlink/pkg/graphql"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// Catalog is the read side of the product service.
type Catalog interface {
	List(ctx context.Context, page int) (*services.ProductPage, error)
	Get(ctx context.Context, id uint) (*services.ProductDetail, error)
	Farmer(ctx context.Context, farmerID uint) (*services.FarmerView, error)
	ImageURL(p *models.Product) string
}

// NewSchema builds the catalogue schema over c.
func NewSchema(c Catalog) (graphql.Schema, error) {
	r := &resolver{c: c}

	ratingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Rating",
		Fields: graphql.Fields{
			"average": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"count":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	var productType *graphql.Object
	farmerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Farmer",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: farmerField(func(f *models.Farmer) any { return int(f.ID) })},
				"farmName": &graphql.Field{Type: graphql.String, Resolve: farmerField(func(f *models.Farmer) any { return f.FarmName })},
				"location": &graphql.Field{Type: graphql.String, Resolve: farmerField(func(f *models.Farmer) any { return f.Location })},
				"username": &graphql.Field{Type: graphql.String, Resolve: farmerField(func(f *models.Farmer) any {
					if f.User == nil {
						return nil
					}
					return f.User.Username
				})},
				"rating":   &graphql.Field{Type: ratingType, Resolve: r.farmerRating},
				"products": &graphql.Field{Type: graphql.NewList(productType), Resolve: r.farmerProducts},
			}
		}),
	})

	productType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: productField(func(p *models.Product) any { return int(p.ID) })},
			"name":              &graphql.Field{Type: graphql.String, Resolve: productField(func(p *models.Product) any { return p.Name })},
			"description":       &graphql.Field{Type: graphql.String, Resolve: productField(func(p *models.Product) any { return p.Description })},
			"price":             &graphql.Field{Type: graphql.String, Resolve: productField(func(p *models.Product) any { return p.Price.StringFixed(2) })},
			"quantityAvailable": &graphql.Field{Type: graphql.Int, Resolve: productField(func(p *models.Product) any { return p.QuantityAvailable })},
			"dateAdded":         &graphql.Field{Type: graphql.String, Resolve: productField(func(p *models.Product) any { return p.DateAdded.UTC().Format(time.RFC3339) })},
			"imageUrl": &graphql.Field{Type: graphql.String, Resolve: productField(func(p *models.Product) any {
				if u := c.ImageURL(p); u != "" {
					return u
				}
				return nil
			})},
			"farmer": &graphql.Field{Type: farmerType, Resolve: productField(func(p *models.Product) any {
				if p.Farmer == nil {
					return nil
				}
				return p.Farmer
			})},
		},
	})

	pageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProductPage",
		Fields: graphql.Fields{
			"items":      &graphql.Field{Type: graphql.NewList(productType)},
			"page":       &graphql.Field{Type: graphql.Int},
			"perPage":    &graphql.Field{Type: graphql.Int},
			"total":      &graphql.Field{Type: graphql.Int},
			"totalPages": &graphql.Field{Type: graphql.Int},
			"hasNext":    &graphql.Field{Type: graphql.Boolean},
		},
	})

	idArg := graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)}}
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: pageType,
				Args: graphql.FieldConfigArgument{
					"page": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
				},
				Resolve: r.products,
			},
			"product": &graphql.Field{Type: productType, Args: idArg, Resolve: r.product},
			"farmer":  &graphql.Field{Type: farmerType, Args: idArg, Resolve: r.farmer},
		},
	})

	return gql.NewSchema(query)
}

type resolver struct {
	c Catalog
}

func (r *resolver) products(p graphql.ResolveParams) (any, error) {
	page, _ := p.Args["page"].(int)
	res, err := r.c.List(p.Context, page)
	if err != nil {
		return nil, public(p.Context, err)
	}
	items := make([]*models.Product, len(res.Products))
	for i := range res.Products {
		items[i] = &res.Products[i]
	}
	return map[string]any{
		"items":      items,
		"page":       res.Page.Page,
		"perPage":    res.Page.PerPage,
		"total":      int(res.Page.Total),
		"totalPages": res.Page.TotalPages,
		"hasNext":    res.Page.HasNext,
	}, nil
}

func (r *resolver) product(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(int)
	if id < 1 {
		return nil, nil
	}
	d, err := r.c.Get(p.Context, uint(id))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, public(p.Context, err)
	}
	return d.Product, nil
}

func (r *resolver) farmer(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(int)
	if id < 1 {
		return nil, nil
	}
	v, err := r.c.Farmer(p.Context, uint(id))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, public(p.Context, err)
	}
	return v.Farmer, nil
}

func (r *resolver) farmerView(p graphql.ResolveParams) (*services.FarmerView, error) {
	f, ok := p.Source.(*models.Farmer)
	if !ok {
		return nil, nil
	}
	v, err := r.c.Farmer(p.Context, f.ID)
	if err != nil {
		return nil, public(p.Context, err)
	}
	return v, nil
}

func (r *resolver) farmerRating(p graphql.ResolveParams) (any, error) {
	v, err := r.farmerView(p)
	if err != nil || v == nil {
		return nil, err
	}
	return map[string]any{"average": v.Rating.Average, "count": int(v.Rating.Count)}, nil
}

func (r *resolver) farmerProducts(p graphql.ResolveParams) (any, error) {
	v, err := r.farmerView(p)
	if err != nil || v == nil {
		return nil, err
	}
	items := make([]*models.Product, len(v.Products))
	for i := range v.Products {
		items[i] = &v.Products[i]
	}
	return items, nil
}

func productField(get func(*models.Product) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if prod, ok := p.Source.(*models.Product); ok && prod != nil {
			return get(prod), nil
		}
		return nil, nil
	}
}

func farmerField(get func(*models.Farmer) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if f, ok := p.Source.(*models.Farmer); ok && f != nil {
			return get(f), nil
		}
		return nil, nil
	}
}

// public hides infrastructure failures behind the generic message.
func public(ctx context.Context, err error) error {
	e := apperr.As(err)
	if e.Kind == apperr.KindPersistence || e.Kind == apperr.KindUnavailable {
		logger.WithCtx(ctx).Error("graphql resolve failed", "op", e.Message, "error", e.Err)
		return errors.New(apperr.GenericMessage)
	}
	return errors.New(e.Message)
}
