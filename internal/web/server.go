// Package web serves the back office and the storefront as server-rendered
// pages.
package web

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/trgovina/internal/apiclient"
	"github.com/erazemk/trgovina/internal/auth"
	"github.com/erazemk/trgovina/internal/catalog"
	"github.com/erazemk/trgovina/internal/model"
	"github.com/erazemk/trgovina/internal/store"
	webembed "github.com/erazemk/trgovina/web"
)

// Options configures NewRouter.
type Options struct {
	DB        *sql.DB
	JWTSecret string
	API       *apiclient.Client
	Catalog   *catalog.Store
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	Logger        *slog.Logger
	// PasswordCost is the bcrypt cost for registrations; zero uses the default.
	PasswordCost int
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB            *sql.DB
	Templates     *Templates
	JWTSecret     string
	Auth          *auth.Service
	API           *apiclient.Client
	Catalog       *catalog.Store
	Carts         *Carts
	SecureCookies bool
	Logger        *slog.Logger
}

// NewRouter creates the page router with all routes registered.
func NewRouter(opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		DB:        opts.DB,
		Templates: templates,
		JWTSecret: opts.JWTSecret,
		Auth: &auth.Service{
			Users:  store.Users{DB: opts.DB},
			Secret: opts.JWTSecret,
			Cost:   opts.PasswordCost,
			Logger: logger,
		},
		API:           opts.API,
		Catalog:       opts.Catalog,
		Carts:         NewCarts(opts.API, opts.Catalog, logger),
		SecureCookies: opts.SecureCookies,
		Logger:        logger,
	}

	mux := http.NewServeMux()
	signedIn := CookieAuthMiddleware(opts.JWTSecret, opts.DB)
	admin := func(h http.HandlerFunc) http.Handler {
		return signedIn(RequireRole(model.RoleAdmin)(h))
	}
	customer := func(h http.HandlerFunc) http.Handler {
		return signedIn(RequireRole(model.RoleCustomer)(h))
	}

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)

	mux.Handle("GET /{$}", signedIn(http.HandlerFunc(s.Home)))

	mux.Handle("GET /admin/products", admin(s.AdminProductsPage))
	mux.Handle("GET /admin/products/new", admin(s.ProductNewPage))
	mux.Handle("POST /admin/products/new", admin(s.ProductCreateSubmit))
	mux.Handle("GET /admin/products/{id}", admin(s.ProductEditPage))
	mux.Handle("POST /admin/products/{id}", admin(s.ProductUpdateSubmit))
	mux.Handle("POST /admin/products/{id}/delete", admin(s.ProductDeleteSubmit))

	mux.Handle("GET /shop", customer(s.ShopPage))
	mux.Handle("GET /shop/products/{id}", customer(s.ProductDetailPage))

	mux.Handle("GET /cart", customer(s.CartPage))
	mux.Handle("POST /cart", customer(s.CartAddSubmit))
	mux.Handle("POST /cart/{id}", customer(s.CartUpdateSubmit))
	mux.Handle("POST /cart/{id}/delete", customer(s.CartRemoveSubmit))

	mux.Handle("GET /checkout", customer(s.CheckoutPage))
	mux.Handle("POST /checkout", customer(s.CheckoutSubmit))

	return LoggingMiddleware(logger)(mux), nil
}

// Home handles GET / by sending each role to its landing page.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/shop", http.StatusSeeOther)
}

// page builds the PageData common to signed-in pages.
func (s *Server) page(r *http.Request, title string) PageData {
	claims := GetWebClaims(r.Context())
	pd := PageData{Title: title, User: claims}
	if claims != nil {
		if rec := s.Carts.Peek(claims.UserID); rec != nil {
			pd.CartCount = cartCount(rec)
		}
	}
	return pd
}
