package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/config"
	"github.com/erazemk/trgovina/internal/mockapi"
	"github.com/erazemk/trgovina/internal/model"
)

const usage = `Usage: mockapi [flags]

Serves the product, cart and checkout API from memory.

Flags:
  -a, -addr <host:port>   listen address (env MOCKAPI_ADDR, default: :9090)
  -empty                  start without sample products
  -h, -help               show this help and exit
`

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	flags := flag.NewFlagSet("mockapi", flag.ContinueOnError)
	flags.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	defaultAddr := config.GetEnv("MOCKAPI_ADDR", ":9090")
	var addr string
	flags.StringVar(&addr, "addr", defaultAddr, "")
	flags.StringVar(&addr, "a", defaultAddr, "")
	empty := flags.Bool("empty", false, "")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", flags.Arg(0))
		flags.Usage()
		os.Exit(1)
	}

	store := mockapi.NewStore()
	if !*empty {
		store.Seed(sampleProducts()...)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mockapi.LoggingMiddleware(mockapi.NewRouter(store, nil)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("mock API started", "addr", addr, "products", len(store.ListProducts()))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func sampleProducts() []model.Product {
	p := func(barcode, desc, price string, qty int, category string) model.Product {
		return model.Product{
			Barcode:     barcode,
			Description: desc,
			Price:       decimal.RequireFromString(price),
			Quantity:    qty,
			Category:    category,
		}
	}
	return []model.Product{
		p("3830000000011", "Cotton shirt", "24.90", 12, "Apparel"),
		p("3830000000028", "Wool sweater", "59.00", 4, "Apparel"),
		p("3830000000035", "Ceramic mug", "8.50", 30, "Home"),
		p("3830000000042", "Dinner plate", "12.00", 0, "Home"),
		p("3830000000059", "Leather belt", "19.99", 7, "Accessories"),
		p("3830000000066", "Canvas tote", "14.50", 15, "Accessories"),
	}
}
