package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/tuneclash/tuneclash-backend/internal/auth"
	"github.com/tuneclash/tuneclash-backend/internal/database"
	"github.com/tuneclash/tuneclash-backend/internal/game"
	"github.com/tuneclash/tuneclash-backend/internal/metadata"
	"github.com/tuneclash/tuneclash-backend/internal/session"
)

// sessionTTL is how long a login stays valid without a refresh.
const sessionTTL = 24 * time.Hour

type Server struct {
	port int

	db       database.Service
	sessions *session.Store
	authProv auth.Provider
	gateway  *game.Gateway
	registry *game.Registry
}

func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	signingKey := os.Getenv("TUNECLASH_SESSION_KEY")
	if signingKey == "" {
		log.Println("[NewServer] TUNECLASH_SESSION_KEY not set, using an ephemeral key")
		signingKey = fmt.Sprintf("ephemeral-%d", time.Now().UnixNano())
	}

	sessions := session.NewStore([]byte(signingKey))
	registry := game.NewRegistry()
	provider := metadata.NewHTTPProvider(os.Getenv("TUNECLASH_METADATA_BASE_URL"))

	newServer := &Server{
		port: port,

		db:       database.New(),
		sessions: sessions,
		registry: registry,
		gateway:  game.NewGateway(registry, provider, sessions),
		authProv: auth.NewHTTPProvider(auth.Config{
			AuthorizeURL: os.Getenv("TUNECLASH_OAUTH_AUTHORIZE_URL"),
			TokenURL:     os.Getenv("TUNECLASH_OAUTH_TOKEN_URL"),
			ProfileURL:   os.Getenv("TUNECLASH_OAUTH_PROFILE_URL"),
			ClientID:     os.Getenv("TUNECLASH_OAUTH_CLIENT_ID"),
			ClientSecret: os.Getenv("TUNECLASH_OAUTH_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("TUNECLASH_OAUTH_REDIRECT_URL"),
		}),
	}

	// Expired sessions are collected in the background for the life of
	// the process.
	sessions.StartSweeper(context.Background(), 10*time.Minute)

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", newServer.port),
		Handler:      newServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
