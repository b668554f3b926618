// Command bootstrap-cashier provisions a cashier account directly in the
// credential store. Cashiers cannot be created through the HTTP API.
//
//	CASHIER_PASSWORD=... bootstrap-cashier -name "Carla" -email carla@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
	"github.com/comanda/account-service/internal/core/service"
	mongorepo "github.com/comanda/account-service/internal/infrastructure/db/mongo"
	"github.com/comanda/account-service/internal/pkg/config"
	"github.com/comanda/account-service/pkg/logger"
)

// bootstrapConfig is the subset of the service configuration this command
// needs; session settings are not required here.
type bootstrapConfig struct {
	LogLevel   string `env:"LOG_LEVEL,        default=info"`
	BcryptCost int    `env:"BCRYPT_COST,      default=12"`
	Password   string `env:"CASHIER_PASSWORD, required"`

	Mongo config.MongoConfig
}

func main() {
	name := flag.String("name", "", "Cashier display name")
	email := flag.String("email", "", "Cashier email address")
	flag.Parse()

	if *name == "" || *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*name, *email); err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap-cashier: %v\n", err)
		os.Exit(1)
	}
}

func run(name, email string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var cfg bootstrapConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "bootstrap-cashier"})

	client, db, err := mongorepo.Connect(ctx, mongorepo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "bootstrap-cashier",
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	repo := mongorepo.NewUserRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	store := service.NewCredentialStore(repo, cfg.BcryptCost, logger.Component("credential_store"))
	user, err := store.Create(ctx, ports.NewUserInput{
		Name:     name,
		Email:    email,
		Password: cfg.Password,
		Role:     domain.RoleCashier,
	})
	if errors.Is(err, domain.ErrDuplicateEmail) {
		return fmt.Errorf("an account with email %s already exists", email)
	}
	if err != nil {
		return err
	}

	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("cashier provisioned")
	return nil
}
