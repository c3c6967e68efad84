package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapterzero/bookstore/internal/infrastructure/token"
	"github.com/chapterzero/bookstore/internal/pkg/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Port:            "0",
		StoreDriver:     "sqlite",
		ShutdownTimeout: time.Second,
		Token:           config.TokenConfig{Secret: "s3cret", TTL: time.Hour},
		Password:        config.PasswordConfig{Algorithm: "bcrypt", BcryptCost: 4},
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), baseConfig(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestNew_RequiresSecret(t *testing.T) {
	cfg := baseConfig()
	cfg.Token.Secret = ""

	_, err := New(context.Background(), cfg, zerolog.Nop(), Options{})
	assert.ErrorIs(t, err, token.ErrEmptySecret)
}

func TestNew_RejectsUnknownHasher(t *testing.T) {
	cfg := baseConfig()
	cfg.Password.Algorithm = "md5"

	_, err := New(context.Background(), cfg, zerolog.Nop(), Options{})
	assert.Error(t, err)
}

func TestStore_CloseNil(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close(context.Background()))
}
