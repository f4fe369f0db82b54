package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshop/backend/internal/config"
	"myshop/backend/internal/logger"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{Env: "production", AuthSecret: "short"})
	assert.Error(t, err)

	err = validateSecurityConfig(config.Config{Env: "staging", AuthSecret: "0123456789abcdef0123456789abcdef", AllowedOrigin: "*"})
	assert.Error(t, err)
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{Env: "production", AuthSecret: "0123456789abcdef0123456789abcdef", AllowedOrigin: "https://till.example.com"})
	assert.NoError(t, err)
}

func TestValidateSecurityConfigRelaxedInDevelopment(t *testing.T) {
	assert.NoError(t, validateSecurityConfig(config.Config{Env: "development"}))
}

func TestOpenStoreDefaultsToMemory(t *testing.T) {
	docs, backend, closers, err := openStore(context.Background(), config.Config{})
	require.NoError(t, err)
	assert.Equal(t, "memory", backend)
	assert.NotNil(t, docs)
	assert.Empty(t, closers)
}

func TestOpenStoreMigratesSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	docs, backend, closers, err := openStore(context.Background(), config.Config{SQLitePath: path})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", backend)
	require.NotNil(t, docs)
	for _, closeFn := range closers {
		assert.NoError(t, closeFn())
	}
}

func TestOpenChallengeStoreFallsBackToMemory(t *testing.T) {
	challenges, closeFn := openChallengeStore(context.Background(), config.Config{}, logger.Nop())
	assert.NotNil(t, challenges)
	assert.Nil(t, closeFn)
}

func TestServeReturnsListenFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	server := &http.Server{Addr: taken.Addr().String(), Handler: http.NotFoundHandler()}
	err = serve(context.Background(), server, logger.Nop())
	assert.Error(t, err)
}

func TestServeStopsCleanlyWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	assert.NoError(t, serve(ctx, server, logger.Nop()))
}
