package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/storage"
)

// Registration is the outcome of a reg command. The player is always the
// stored record; WrongPassword is set when the name exists and the
// password did not match.
type Registration struct {
	Player        model.Player
	Created       bool
	WrongPassword bool
}

// Service registers players and checks returning players' passwords
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	cost    int
}

// Config holds configuration for the auth service
type Config struct {
	// BcryptCost is the hashing cost; lowered in tests
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{BcryptCost: bcrypt.DefaultCost}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "auth")),
		cost:    cfg.BcryptCost,
	}
}

// Register creates the player under candidate if the name is new,
// otherwise logs in the existing player. The first registration of a
// name wins; later ones only verify the password.
func (s *Service) Register(ctx context.Context, name, password string, candidate model.PlayerID) (*Registration, error) {
	existing, err := s.storage.GetPlayerByName(ctx, name)
	if err == nil {
		return s.login(existing, password), nil
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, fmt.Errorf("lookup player %q: %w", name, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	player := &model.RegisteredPlayer{
		Player: model.Player{
			ID:        candidate,
			Name:      name,
			CreatedAt: s.clock.Now(),
		},
		PasswordHash: string(hash),
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		if !errors.Is(err, model.ErrNameTaken) {
			return nil, fmt.Errorf("save player %q: %w", name, err)
		}
		// Lost a race with a concurrent registration of the same name
		existing, err := s.storage.GetPlayerByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("lookup player %q: %w", name, err)
		}
		return s.login(existing, password), nil
	}

	s.logger.Info("registered player",
		slog.String("name", name),
		slog.Int("player_id", int(candidate)),
	)
	return &Registration{Player: player.Player, Created: true}, nil
}

func (s *Service) login(existing *model.RegisteredPlayer, password string) *Registration {
	reg := &Registration{Player: existing.Player}
	if err := bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)); err != nil {
		reg.WrongPassword = true
		s.logger.Info("wrong password",
			slog.String("name", existing.Name),
			slog.Int("player_id", int(existing.ID)),
		)
		return reg
	}
	s.logger.Info("logged in player",
		slog.String("name", existing.Name),
		slog.Int("player_id", int(existing.ID)),
	)
	return reg
}

// GetPlayer returns the stored player with the given id
func (s *Service) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	rp, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rp.Player, nil
}
