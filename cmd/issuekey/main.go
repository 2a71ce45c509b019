// issuekey mints a new API credential and prints the token once.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mockgate/mockgate/internal/config"
	"github.com/mockgate/mockgate/internal/credentials"
	"github.com/mockgate/mockgate/internal/database"
)

const tokenRetries = 3

func main() {
	var (
		name        = flag.String("name", "", "human-readable credential name (required)")
		owner       = flag.String("owner", "", "owner identifier")
		plan        = flag.String("plan", "free", "plan tier: free, basic, premium, enterprise")
		perMinute   = flag.Int("rpm", 0, "requests per minute (0 uses the plan default)")
		perDay      = flag.Int("rpd", 0, "requests per day (0 uses the plan default)")
		expiresIn   = flag.Duration("expires-in", 0, "credential lifetime, e.g. 720h (0 means no expiry)")
		chat        = flag.Bool("chat", true, "allow chat completions")
		embeddings  = flag.Bool("embeddings", true, "allow embeddings")
		moderations = flag.Bool("moderations", true, "allow moderations")
		images      = flag.Bool("images", true, "allow image generations")
	)
	flag.Parse()

	if *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	tier := credentials.Plan(*plan)
	switch tier {
	case credentials.PlanFree, credentials.PlanBasic, credentials.PlanPremium, credentials.PlanEnterprise:
	default:
		log.Fatalf("unknown plan %q", *plan)
	}

	ctx := context.Background()
	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	defaultPerMinute, defaultPerDay := credentials.PlanDefaults(tier)
	if *perMinute <= 0 {
		*perMinute = defaultPerMinute
	}
	if *perDay <= 0 {
		*perDay = defaultPerDay
	}

	cred := &credentials.Credential{
		Name:               *name,
		OwnerID:            *owner,
		Plan:               tier,
		Status:             credentials.StatusActive,
		CanChat:            *chat,
		CanEmbeddings:      *embeddings,
		CanModerations:     *moderations,
		CanImages:          *images,
		RateLimitPerMinute: *perMinute,
		RateLimitPerDay:    *perDay,
	}
	if *expiresIn > 0 {
		expiry := time.Now().UTC().Add(*expiresIn)
		cred.ExpiresAt = &expiry
	}

	store := credentials.NewPostgresStore(pool)
	for attempt := 0; ; attempt++ {
		token, err := credentials.GenerateToken()
		if err != nil {
			log.Fatalf("generate token: %v", err)
		}
		cred.Token = token

		err = store.Create(ctx, cred)
		if err == nil {
			break
		}
		if errors.Is(err, credentials.ErrTokenTaken) && attempt < tokenRetries {
			continue
		}
		log.Fatalf("create credential: %v", err)
	}

	fmt.Printf("id:    %s\n", cred.ID)
	fmt.Printf("name:  %s\n", cred.Name)
	fmt.Printf("plan:  %s (%d rpm / %d rpd)\n", cred.Plan, cred.RateLimitPerMinute, cred.RateLimitPerDay)
	if cred.ExpiresAt != nil {
		fmt.Printf("expires: %s\n", cred.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Printf("token: %s\n", cred.Token)
	fmt.Println("store this token now; it is not shown again")
}
