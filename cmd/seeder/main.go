// Command seeder loads the sample catalog into an empty products collection.
package main

import (
	"context"
	"time"

	"github.com/fjod/peixeshop/internal/config"
	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/logging"
	"github.com/fjod/peixeshop/internal/repository"
)

func money(s string) *domain.Money {
	m := domain.MustParseMoney(s)
	return &m
}

func stock(n int) *int { return &n }

var sampleProducts = []domain.ProductInput{
	{
		Name:          "Salmão Fresco",
		Category:      "Peixes",
		Price:         domain.MustParseMoney("89.90"),
		OriginalPrice: money("99.90"),
		Unit:          "kg",
		Description:   "Salmão fresco do Chile, ideal para grelhados",
		Image:         "/images/salmao.jpg",
		IsBestSeller:  true,
		Stock:         stock(50),
	},
	{
		Name:         "Camarão Rosa",
		Category:     "Frutos do Mar",
		Price:        domain.MustParseMoney("65.00"),
		Unit:         "kg",
		Description:  "Camarão rosa limpo e congelado",
		Image:        "/images/camarao.jpg",
		IsBestSeller: true,
		Stock:        stock(30),
	},
	{
		Name:        "Tilápia Filé",
		Category:    "Peixes",
		Price:       domain.MustParseMoney("35.90"),
		Unit:        "kg",
		Description: "Filé de tilápia sem espinha",
		Image:       "/images/tilapia.jpg",
		Stock:       stock(100),
	},
	{
		Name:          "Polvo Congelado",
		Category:      "Frutos do Mar",
		Price:         domain.MustParseMoney("120.00"),
		OriginalPrice: money("140.00"),
		Unit:          "kg",
		Description:   "Polvo limpo e congelado",
		Image:         "/images/polvo.jpg",
		Stock:         stock(15),
	},
	{
		Name:          "Kit Moqueca",
		Category:      "Combos",
		Price:         domain.MustParseMoney("85.00"),
		OriginalPrice: money("95.00"),
		Unit:          "kit",
		Description:   "Kit completo para moqueca (2-3 pessoas)",
		Image:         "/images/kit-moqueca.jpg",
		IsBestSeller:  true,
		Stock:         stock(20),
	},
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer db.Client().Disconnect(context.Background())

	repo := repository.NewMongoProductRepository(db)
	if ix, ok := repo.(repository.Indexer); ok {
		if err := ix.CreateIndexes(ctx); err != nil {
			log.WithError(err).Fatal("failed to create indexes")
		}
	}

	existing, err := repo.FindAll(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to read products")
	}
	if len(existing) > 0 {
		log.WithField("products", len(existing)).Info("catalog already has products, nothing to seed")
		return
	}

	for _, p := range sampleProducts {
		p.Normalize()
		if err := p.Validate(); err != nil {
			log.WithError(err).WithField("name", p.Name).Fatal("invalid sample product")
		}
		id, err := repo.Insert(ctx, p)
		if err != nil {
			log.WithError(err).WithField("name", p.Name).Fatal("failed to insert product")
		}
		log.WithField("id", id).WithField("name", p.Name).Info("product seeded")
	}

	log.WithField("products", len(sampleProducts)).Info("catalog seeded")
}
