package httpapi

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"kfolx-backend-go/internal/config"
	"kfolx-backend-go/internal/ratelimit"
	"kfolx-backend-go/internal/services"
	"kfolx-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	Config  config.Config
	Store   store.Gateway
	Tokens  services.TokenService
	Ads     *services.AdService
	Users   *services.UserService
	Feed    *services.ListingHub
	Limiter *ratelimit.Limiter

	proxies proxySet
}

// NewServer wires the services over one gateway. A nil limiter disables rate
// limiting.
func NewServer(cfg config.Config, gateway store.Gateway, feed *services.ListingHub, limiter *ratelimit.Limiter) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	images := services.NewImageStore(services.NewResolver(cfg.PublicDir, cfg.UploadPrefix))
	return &Server{
		Config:  cfg,
		Store:   gateway,
		Tokens:  tokens,
		Ads:     services.NewAdService(gateway, images, feed),
		Users:   services.NewUserService(gateway, tokens, images),
		Feed:    feed,
		Limiter: limiter,
		proxies: parseProxies(cfg.TrustedProxies),
	}
}

func (s *Server) uploadsDir() string {
	return filepath.Join(s.Config.PublicDir, filepath.FromSlash(s.Config.UploadPrefix))
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/home", s.Home)
		api.Get("/categories", s.Categories)
		api.Get("/locations", s.Locations)

		api.Route("/auth", func(auth chi.Router) {
			auth.With(RateLimit(s.Limiter, s.proxies, "register")).Post("/register", s.Register)
			auth.With(RateLimit(s.Limiter, s.proxies, "login")).Post("/login", s.Login)
			auth.Post("/refresh", s.Refresh)
			auth.Post("/logout", s.Logout)
		})

		api.Route("/ads", func(ads chi.Router) {
			ads.Get("/", s.SearchAds)
			ads.Get("/{adId}", s.AdDetail)

			ads.Group(func(owned chi.Router) {
				owned.Use(WithAuth(s.Tokens))
				owned.Post("/", s.CreateAd)
				owned.Get("/{adId}/edit", s.EditAdForm)
				owned.Post("/{adId}", s.EditAd)
				owned.Put("/{adId}", s.EditAd)
				owned.Put("/{adId}/status", s.SetAdStatus)
				owned.Delete("/{adId}", s.DeleteAd)
			})
		})

		api.With(WithAuth(s.Tokens)).Get("/my/ads", s.MyAds)

		api.Route("/me", func(me chi.Router) {
			me.Use(WithAuth(s.Tokens))
			me.Get("/", s.Me)
			me.Put("/", s.UpdateProfile)
			me.Put("/password", s.ChangePassword)
			me.Post("/picture", s.UploadProfilePicture)
		})
	})

	r.Handle("/"+s.Config.UploadPrefix+"/*", s.uploadsHandler())
	r.Get("/ws/listings", s.ListingsSocket)
	r.Get("/healthz", s.Health)
	return r
}

// uploadsHandler serves stored files without directory listings.
func (s *Server) uploadsHandler() http.Handler {
	files := http.StripPrefix("/"+s.Config.UploadPrefix+"/", http.FileServer(http.Dir(s.uploadsDir())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		files.ServeHTTP(w, r)
	})
}
