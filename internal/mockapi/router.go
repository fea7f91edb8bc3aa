package mockapi

import (
	"net/http"
)

// NewRouter creates the API router with all endpoints registered. Requests
// matching a rule in failures (may be nil) are answered with its status.
func NewRouter(store *Store, failures *Failures) http.Handler {
	mux := http.NewServeMux()

	productsHandler := &ProductsHandler{Store: store}
	cartHandler := &CartHandler{Store: store}

	mux.HandleFunc("GET /api/products", productsHandler.List)
	mux.HandleFunc("POST /api/products", productsHandler.Create)
	mux.HandleFunc("GET /api/products/{id}", productsHandler.Get)
	mux.HandleFunc("PUT /api/products/{id}", productsHandler.Update)
	mux.HandleFunc("DELETE /api/products/{id}", productsHandler.Delete)

	mux.HandleFunc("GET /api/cart", cartHandler.List)
	mux.HandleFunc("POST /api/cart", cartHandler.Add)
	mux.HandleFunc("PUT /api/cart/{id}", cartHandler.Update)
	mux.HandleFunc("DELETE /api/cart/{id}", cartHandler.Remove)

	mux.HandleFunc("POST /api/checkout", cartHandler.Checkout)

	if failures == nil {
		return mux
	}
	return failures.Middleware(mux)
}
