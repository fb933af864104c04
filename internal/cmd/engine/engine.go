// Package engine parses engine command flags and runs a demonstration
// game against the configured store, exercising the full instruction set
// end to end.
package engine

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mbrekke/throwdown/internal/auth"
	"github.com/mbrekke/throwdown/internal/digest"
	"github.com/mbrekke/throwdown/internal/game/domain"
	"github.com/mbrekke/throwdown/internal/game/service"
	entrypoint "github.com/mbrekke/throwdown/internal/platform/cmd"
	"github.com/mbrekke/throwdown/internal/storage"
	storagebbolt "github.com/mbrekke/throwdown/internal/storage/bbolt"
	storagememory "github.com/mbrekke/throwdown/internal/storage/memory"
	storagesqlite "github.com/mbrekke/throwdown/internal/storage/sqlite"
	"github.com/mbrekke/throwdown/internal/telemetry"
)

// Config holds engine command configuration.
type Config struct {
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	StoragePath   string `env:"STORAGE_PATH"`
	EntryFee      uint64 `env:"DEMO_ENTRY_FEE" envDefault:"100"`
	Rounds        int    `env:"DEMO_ROUNDS" envDefault:"3"`
	BlakeHash     bool   `env:"HASH_BLAKE2B"`
	RequireGrants bool   `env:"REQUIRE_GRANTS"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.StorageDriver, "storage", cfg.StorageDriver, "Storage driver: memory, bbolt, or sqlite")
	fs.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "Database path for bbolt and sqlite drivers")
	fs.Uint64Var(&cfg.EntryFee, "entry-fee", cfg.EntryFee, "Demo game entry fee")
	fs.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "Demo game round count")
	fs.BoolVar(&cfg.BlakeHash, "blake2b", cfg.BlakeHash, "Use BLAKE2b for commitment digests instead of SHA-256")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// openStore selects a store implementation from config.
func openStore(cfg Config) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageDriver)) {
	case "", "memory":
		return storagememory.New(), nil
	case "bbolt":
		return storagebbolt.Open(cfg.StoragePath)
	case "sqlite":
		return storagesqlite.Open(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// buildEngine wires the engine's collaborators from config.
func buildEngine(cfg Config, store storage.Store) (*service.Engine, error) {
	hash := digest.SHA256
	if cfg.BlakeHash {
		hash = digest.BLAKE2b
	}

	var authorizer auth.Authorizer = auth.AllowAll{}
	if cfg.RequireGrants {
		grantCfg, err := auth.LoadGrantVerifierConfigFromEnv(nil)
		if err != nil {
			return nil, err
		}
		authorizer, err = auth.NewGrantVerifier(grantCfg)
		if err != nil {
			return nil, err
		}
	}

	return service.New(service.Config{
		Store: store,
		Auth:  authorizer,
		Hash:  hash,
		Audit: telemetry.NewEmitter(store),
	})
}

// Run starts the engine demo runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceEngine, func(ctx context.Context) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		engine, err := buildEngine(cfg, store)
		if err != nil {
			return err
		}
		return runDemoGame(ctx, engine, cfg)
	})
}

// runDemoGame plays one full game: three funded players, commit and
// reveal every round, then claims for every winner.
func runDemoGame(ctx context.Context, engine *service.Engine, cfg Config) error {
	players := []string{"alice", "bob", "carol"}
	for _, player := range players {
		if err := engine.Deposit(ctx, player, cfg.EntryFee*2); err != nil {
			return fmt.Errorf("fund %s: %w", player, err)
		}
	}

	game, err := engine.InitializeGame(ctx, service.InitializeGameRequest{
		Actor:       service.Actor{ID: players[0]},
		MinPlayers:  3,
		MaxPlayers:  3,
		TotalRounds: cfg.Rounds,
		EntryFee:    cfg.EntryFee,
		Timeout:     5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("initialize game: %w", err)
	}
	log.Printf("game %s created by %s, fee %d", game.ID, game.Host, game.EntryFee)

	for _, player := range players[1:] {
		if game, err = engine.JoinGame(ctx, game.ID, service.Actor{ID: player}); err != nil {
			return fmt.Errorf("join %s: %w", player, err)
		}
	}

	hash := digest.SHA256
	if cfg.BlakeHash {
		hash = digest.BLAKE2b
	}
	rotation := []domain.Choice{domain.ChoiceRock, domain.ChoicePaper, domain.ChoiceScissors}
	for game.Phase == domain.PhaseCommit {
		round := game.CurrentRound
		salts := make(map[string][domain.SaltSize]byte, len(players))
		for i, player := range players {
			var salt [domain.SaltSize]byte
			salt[0] = byte(round)
			salt[1] = byte(i + 1)
			salts[player] = salt
			choice := rotation[(i+round)%len(rotation)]
			commitment, err := domain.ComputeCommitment(hash, choice, salt)
			if err != nil {
				return fmt.Errorf("compute commitment: %w", err)
			}
			if game, err = engine.CommitChoice(ctx, game.ID, service.Actor{ID: player}, commitment); err != nil {
				return fmt.Errorf("commit %s: %w", player, err)
			}
		}
		for i, player := range players {
			choice := rotation[(i+round)%len(rotation)]
			if game, err = engine.RevealChoice(ctx, game.ID, service.Actor{ID: player}, choice, salts[player]); err != nil {
				return fmt.Errorf("reveal %s: %w", player, err)
			}
		}
		log.Printf("round %d resolved, phase now %s", round, game.Phase)
	}

	winners := game.Winners()
	for _, winner := range winners {
		if game, err = engine.ClaimWinnings(ctx, game.ID, service.Actor{ID: winner.ID}); err != nil {
			return fmt.Errorf("claim %s: %w", winner.ID, err)
		}
		log.Printf("%s claimed a winner share", winner.ID)
	}
	log.Printf("game %s finished after %d rounds, pot remaining %d", game.ID, game.TotalRounds, game.Pot)
	return nil
}
