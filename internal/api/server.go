// Package api exposes a sale over HTTP for local devnet use. Callers name
// themselves with a `from` field; there is no authentication.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Mohsinsiddi/battlepass/internal/config"
	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/store"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

// Server serves one sale and persists it after every committed write.
type Server struct {
	sale   *sale.Contract
	store  store.Store
	router *mux.Router
	logger log.Logger

	// saveMu orders snapshot+save pairs so an older snapshot never
	// overwrites a newer one.
	saveMu sync.Mutex
}

// New builds a Server. st may be nil, in which case state is kept only in
// memory.
func New(c *sale.Contract, st store.Store, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Root()
	}
	s := &Server{
		sale:   c,
		store:  st,
		router: mux.NewRouter(),
		logger: logger.With("component", "api"),
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/tokens/{id:[0-9]+}", s.handleToken).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts/{address}", s.handleAccount).Methods(http.MethodGet)

	s.router.HandleFunc("/mint", s.handleMint).Methods(http.MethodPost)
	s.router.HandleFunc("/whitelist-mint", s.handleWhitelistMint).Methods(http.MethodPost)
	s.router.HandleFunc("/refund", s.handleClaimRefund).Methods(http.MethodPost)

	admin := s.router.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/reserve", s.handleReserve).Methods(http.MethodPost)
	admin.HandleFunc("/price", s.handleSetPrice).Methods(http.MethodPost)
	admin.HandleFunc("/whitelist", s.handleWhitelistConfig).Methods(http.MethodPost)
	admin.HandleFunc("/public", s.handlePublicConfig).Methods(http.MethodPost)
	admin.HandleFunc("/base-uri", s.handleBaseURI).Methods(http.MethodPost)
	admin.HandleFunc("/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	admin.HandleFunc("/owner/transfer", s.handleTransferOwnership).Methods(http.MethodPost)
	admin.HandleFunc("/owner/renounce", s.handleRenounceOwnership).Methods(http.MethodPost)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request served", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Serving sale", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// persist saves the current state. The write it follows has already
// committed in memory.
func (s *Server) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, config.StoreTimeout)
	defer cancel()
	if err := s.store.Save(ctx, s.sale.Snapshot()); err != nil {
		s.logger.Error("Failed to persist sale state", "err", err)
		return fmt.Errorf("committed but not saved: %w", err)
	}
	return nil
}
