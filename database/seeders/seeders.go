// Package seeders fills a fresh database with demo farmers, vendors and
// products generated by gofakeit.
//
//	err := seeders.RunAll(ctx, db, seeders.All(seeders.DefaultOptions()), os.Stdout)
package seeders

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/app/services"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password"

// Seeder is one named seed step.
type Seeder struct {
	Name string
	Run  func(ctx context.Context, db *gorm.DB) error
}

// Options sizes the demo data set.
type Options struct {
	Farmers           int
	Vendors           int
	ProductsPerFarmer int
	// Seed makes runs reproducible.
	Seed int64
}

func DefaultOptions() Options {
	return Options{Farmers: 3, Vendors: 2, ProductsPerFarmer: 4, Seed: 42}
}

// All returns the demo seeders in run order.
func All(opts Options) []Seeder {
	f := gofakeit.New(opts.Seed)
	return []Seeder{
		{Name: "farmers", Run: func(ctx context.Context, db *gorm.DB) error { return seedFarmers(ctx, db, f, opts) }},
		{Name: "vendors", Run: func(ctx context.Context, db *gorm.DB) error { return seedVendors(ctx, db, f, opts) }},
	}
}

// RunAll executes seeders in order and stops on the first error. A
// database that already has users is left alone.
func RunAll(ctx context.Context, db *gorm.DB, seeders []Seeder, out io.Writer) error {
	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return fmt.Errorf("seeders: count users: %w", err)
	}
	if users > 0 {
		fmt.Fprintf(out, "  (database has %d users, skipping seed)\n", users)
		return nil
	}

	for _, s := range seeders {
		fmt.Fprintf(out, "  • Running seeder: %s … ", s.Name)
		if err := s.Run(ctx, db); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", s.Name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}

func account(f *gofakeit.Faker, role models.Role, i int) requests.RegisterRequest {
	county := requests.Counties[f.Number(0, len(requests.Counties)-1)].Value
	username := fmt.Sprintf("%s_%s%d", role, strings.ToLower(f.FirstName()), i+1)
	return requests.RegisterRequest{
		Username:        username,
		Email:           username + "@farmlink.local",
		Password:        DemoPassword,
		ConfirmPassword: DemoPassword,
		Role:            role.String(),
		County:          county,
		SubCounty:       f.City(),
		Town:            f.City(),
	}
}

func seedFarmers(ctx context.Context, db *gorm.DB, f *gofakeit.Faker, opts Options) error {
	auth := services.NewAuthService(db, nil, nil, nil, "")
	products := services.NewProductService(db, nil, nil, nil, 0)

	for i := 0; i < opts.Farmers; i++ {
		req := account(f, models.RoleFarmer, i)
		req.FarmName = f.LastName() + " Farm"
		req.Location = f.City()
		u, err := auth.Register(ctx, req)
		if err != nil {
			return err
		}

		for j := 0; j < opts.ProductsPerFarmer; j++ {
			price := f.Price(20, 500)
			qty := f.Number(1, 200)
			name := f.Vegetable()
			if j%2 == 1 {
				name = f.Fruit()
			}
			_, err := products.Create(ctx, u.ID, requests.ProductRequest{
				Name:              name,
				Description:       f.Sentence(8),
				Price:             &price,
				QuantityAvailable: &qty,
			}, nil)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func seedVendors(ctx context.Context, db *gorm.DB, f *gofakeit.Faker, opts Options) error {
	auth := services.NewAuthService(db, nil, nil, nil, "")
	for i := 0; i < opts.Vendors; i++ {
		req := account(f, models.RoleVendor, i)
		req.FullName = f.Name()
		req.ShippingAddress = fmt.Sprintf("%s, %s", f.Street(), f.City())
		if _, err := auth.Register(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
