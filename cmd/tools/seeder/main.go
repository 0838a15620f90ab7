package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/noah-isme/backend-nursery/internal/config"
	"github.com/noah-isme/backend-nursery/internal/loyalty"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := repo.NewClient(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("connect mongodb: %v", err)
	}
	defer func() { _ = client.Close(context.Background()) }()

	if err := client.Ping(ctx); err != nil {
		log.Fatalf("ping mongodb: %v", err)
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		log.Fatalf("ensure indexes: %v", err)
	}

	users := seedUsers(ctx, repo.NewUsers(client.DB))
	seedPlants(ctx, repo.NewPlants(client.DB), users["staff"])
	seedEvents(ctx, repo.NewEvents(client.DB), users["staff"])

	log.Println("seeding completed")
}

func seedUsers(ctx context.Context, users *repo.Users) map[string]string {
	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	seeds := []repo.User{
		{Name: "Ava Admin", Email: "admin@nursery.example", Role: repo.RoleAdmin, EmployeeID: "EMP-0001"},
		{Name: "Sam Stock", Email: "staff@nursery.example", Role: repo.RoleStaff, EmployeeID: "EMP-0002"},
		{Name: "Charlie Customer", Email: "charlie@example.com", Role: repo.RoleCustomer, LoyaltyTier: loyalty.TierGreen, Address: "12 Wattle St, Sydney"},
		{Name: "Dana Gardener", Email: "dana@example.com", Role: repo.RoleCustomer, LoyaltyTier: loyalty.TierGold, TotalSpentCents: 600_00, LoyaltyPoints: 600, Address: "3 Banksia Ave, Melbourne"},
	}

	ids := map[string]string{}
	for _, u := range seeds {
		u.PasswordHash = hash
		u.IsActive = true
		created, err := users.Insert(ctx, u)
		if err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				existing, lookupErr := users.ByEmail(ctx, u.Email)
				if lookupErr == nil {
					ids[u.Role] = existing.ID.Hex()
				}
				log.Printf("user %s already present, skipping", u.Email)
				continue
			}
			log.Printf("seed user %s: %v", u.Email, err)
			continue
		}
		ids[u.Role] = created.ID.Hex()
		log.Printf("seeded user %s (%s)", created.Email, created.Role)
	}
	return ids
}

func seedPlants(ctx context.Context, plants *repo.Plants, createdBy string) {
	seeds := []repo.Plant{
		{Name: "Grevillea 'Moonlight'", PriceCents: 24_50, Stock: 40, Category: "Outdoor, Sun", Description: "Cream flower spikes, bird attracting."},
		{Name: "Kangaroo Paw", PriceCents: 18_00, Stock: 55, Category: "Outdoor, Sun", Description: "Iconic West Australian native."},
		{Name: "Waratah", PriceCents: 32_00, Stock: 18, Category: "Outdoor, Part Shade", Description: "NSW floral emblem, striking red blooms."},
		{Name: "Calathea Orbifolia", PriceCents: 29_99, Stock: 25, Category: "Indoor", Description: "Bold striped foliage, loves humidity."},
		{Name: "Monstera Deliciosa", PriceCents: 35_00, Stock: 30, Category: "Indoor", Description: "Classic split-leaf houseplant."},
		{Name: "Devil's Ivy", PriceCents: 14_50, Stock: 80, Category: "Indoor, Low Light", Description: "Forgiving trailing pothos."},
		{Name: "Lilly Pilly 'Resilience'", PriceCents: 16_00, Stock: 60, Category: "Hedging", Description: "Fast dense screen, psyllid resistant."},
		{Name: "Bottlebrush 'Little John'", PriceCents: 19_50, Stock: 35, Category: "Outdoor, Sun", Description: "Dwarf callistemon, crimson brushes."},
		{Name: "Maidenhair Fern", PriceCents: 12_00, Stock: 4, Category: "Indoor, Shade", Description: "Delicate fronds, keep moist."},
		{Name: "Eucalyptus 'Silver Princess'", PriceCents: 27_50, Stock: 22, Category: "Outdoor, Sun", Description: "Weeping gum with silver bark."},
	}

	for _, p := range seeds {
		p.CreatedBy = createdBy
		if _, err := plants.Insert(ctx, p); err != nil {
			log.Printf("seed plant %s: %v", p.Name, err)
			continue
		}
		log.Printf("seeded plant %s", p.Name)
	}
}

func seedEvents(ctx context.Context, events *repo.Events, createdBy string) {
	nextMonth := time.Now().UTC().AddDate(0, 1, 0)
	seeds := []repo.Event{
		{
			Title:       "Native Garden Workshop",
			Description: "Hands-on session on designing a waterwise native bed.",
			Category:    "Workshop",
			City:        "Sydney",
			Location:    "Nursery HQ, Alexandria",
			StartAt:     nextMonth,
			EndAt:       nextMonth.Add(2 * time.Hour),
			Capacity:    20,
			Tags:        []string{"natives", "beginner"},
		},
		{
			Title:       "Indoor Plant Swap",
			Description: "Bring a cutting, take a cutting.",
			Category:    "Community",
			City:        "Melbourne",
			Location:    "Fitzroy Town Hall",
			StartAt:     nextMonth.AddDate(0, 0, 7),
			EndAt:       nextMonth.AddDate(0, 0, 7).Add(3 * time.Hour),
			Capacity:    0,
			Tags:        []string{"swap", "indoor"},
		},
		{
			Title:       "Propagation Masterclass",
			Description: "Cuttings, division and seed raising with our growers.",
			Category:    "Workshop",
			City:        "Brisbane",
			Location:    "New Farm Park Rotunda",
			StartAt:     nextMonth.AddDate(0, 0, 14),
			EndAt:       nextMonth.AddDate(0, 0, 14).Add(2 * time.Hour),
			Capacity:    15,
			PriceCents:  10_00,
			Tags:        []string{"propagation", "advanced"},
		},
	}

	for _, e := range seeds {
		e.CreatedBy = createdBy
		if _, err := events.Insert(ctx, e); err != nil {
			log.Printf("seed event %s: %v", e.Title, err)
			continue
		}
		log.Printf("seeded event %s", e.Title)
	}
}
