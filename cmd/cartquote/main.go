package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-cart/internal/cache"
	"github.com/noah-isme/toko-cart/internal/cart"
	"github.com/noah-isme/toko-cart/internal/catalog"
	"github.com/noah-isme/toko-cart/internal/common"
	"github.com/noah-isme/toko-cart/internal/config"
	"github.com/noah-isme/toko-cart/internal/discount"
	"github.com/noah-isme/toko-cart/internal/lock"
	"github.com/noah-isme/toko-cart/internal/obs"
	"github.com/noah-isme/toko-cart/internal/pricing"
	"github.com/noah-isme/toko-cart/internal/resilience"
	"github.com/noah-isme/toko-cart/internal/savedcart"
	"github.com/noah-isme/toko-cart/internal/settings"
)

func main() {
	var (
		sessionID    = flag.String("session", "", "cart session id to price")
		catalogFile  = flag.String("catalog", "", "JSON file with the product catalog")
		discountFile = flag.String("discounts", "", "JSON file with discount definitions; defaults to discounts stored in redis")
		addProduct   = flag.String("add", "", "product id to add before pricing")
		selectors    = flag.String("selectors", "", "comma separated variant selectors for -add")
		quantity     = flag.Int("qty", 1, "quantity for -add")
		removeIndex  = flag.Int("remove", -1, "cart position to remove before pricing")
		applyCode    = flag.String("code", "", "discount code to apply before pricing")
		unsetCode    = flag.String("unset-code", "", "discount code to remove before pricing")
		saveFor      = flag.String("save-for", "", "owner id to save the cart for")
		restoreFor   = flag.String("restore-for", "", "owner id whose saved cart replaces the session cart")
		clearCart    = flag.Bool("empty", false, "delete the session cart instead of pricing it")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)
	resilience.MustRegisterMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)

	if strings.TrimSpace(*sessionID) == "" {
		logger.Fatal().Err(cart.ErrSessionRequired).Msg("missing -session")
	}

	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
		ServiceName:   cfg.TracingServiceName,
		Endpoint:      cfg.TracingEndpoint,
		Exporter:      cfg.TracingExporter,
		SamplingRatio: cfg.TracingSampleRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	set, err := settings.FromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("load settings")
	}

	var products []catalog.Product
	if err := readJSON(*catalogFile, &products); err != nil {
		logger.Fatal().Err(err).Msg("read catalog")
	}
	source, err := catalog.NewMemory(products...)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalog")
	}
	cat := &catalog.Cached{
		Source: source,
		Cache:  cache.NewJSON(redisClient, cfg.CatalogCacheTTL),
		Logger: logger,
	}

	var registry discount.Registry = discount.Guarded{
		Registry: discount.RedisRegistry{Cache: cache.NewJSON(redisClient, 0)},
		Breaker:  resilience.NewBreaker("discount_registry", 5, 0.5, 30*time.Second).WithLogger(logger),
	}
	if *discountFile != "" {
		var defs []discount.Discount
		if err := readJSON(*discountFile, &defs); err != nil {
			logger.Fatal().Err(err).Msg("read discounts")
		}
		mem, err := discount.NewMemory(defs...)
		if err != nil {
			logger.Fatal().Err(err).Msg("load discounts")
		}
		registry = mem
	}

	sessions := &cart.Sessions{
		Repo:     cart.RedisRepository{Cache: cache.NewJSON(redisClient, cfg.CartTTL)},
		Locker:   lock.Locker{R: redisClient},
		LockTTL:  cfg.LockTTL,
		Catalog:  cat,
		Settings: set,
		Logger:   logger,
	}
	saved := &savedcart.Manager{
		Store:    savedcart.RedisStore{Cache: cache.NewJSON(redisClient, cfg.SavedCartTTL)},
		Settings: set,
		Logger:   logger,
	}

	if *clearCart {
		if err := sessions.Empty(ctx, *sessionID); err != nil {
			fail(logger, "empty cart", err)
		}
		logger.Info().Str("session_id", *sessionID).Msg("cart_emptied")
		return
	}

	var restored bool
	store, err := sessions.Mutate(ctx, *sessionID, func(ctx context.Context, s *cart.Store) error {
		restored = false
		if *restoreFor != "" {
			var err error
			restored, err = saved.Restore(ctx, *restoreFor, s)
			if err != nil {
				return err
			}
			logger.Info().Str("owner", *restoreFor).Bool("restored", restored).Msg("saved_cart_restore")
		}
		if *removeIndex >= 0 {
			if _, err := s.Remove(*removeIndex); err != nil {
				return err
			}
		}
		if *addProduct != "" {
			opts := cart.AddOptions{SelectorList: *selectors}
			if strings.Contains(*selectors, cart.SelectorDelimiter) {
				opts.Quantities = []int{*quantity}
			} else {
				opts.Quantity = *quantity
			}
			if _, err := s.Add(ctx, *addProduct, opts); err != nil {
				return err
			}
		}
		if *unsetCode != "" {
			s.UnsetDiscount(*unsetCode)
		}
		if *applyCode != "" {
			s.SetDiscount(*applyCode)
		}
		return nil
	})
	if err != nil {
		fail(logger, "update cart", err)
	}
	if restored {
		if err := saved.Discard(ctx, *restoreFor); err != nil {
			logger.Warn().Err(err).Str("owner", *restoreFor).Msg("discard saved cart")
		}
	}

	if *saveFor != "" {
		token, err := saved.Save(ctx, *saveFor, store.Contents())
		if err != nil {
			fail(logger, "save cart", err)
		}
		logger.Info().Str("owner", *saveFor).Str("token", token).Msg("cart_saved")
	}

	pipeline := &pricing.Pipeline{
		Catalog:   cat,
		Discounts: registry,
		Settings:  set,
		Places:    &cfg.CurrencyPlaces,
		Logger:    logger,
	}
	quote, err := pipeline.Quote(ctx, store)
	if err != nil {
		fail(logger, "price cart", err)
	}
	logQuote(logger, *sessionID, store, quote, cfg.CurrencyPlaces)
}

func logQuote(logger zerolog.Logger, sessionID string, store *cart.Store, q pricing.Quote, places int32) {
	lines := zerolog.Arr()
	for _, l := range q.Lines {
		lines.Dict(zerolog.Dict().
			Int("index", l.Index).
			Str("name", l.Name).
			Int("quantity", l.Quantity).
			Str("item_price", l.ItemPrice.StringFixed(places)).
			Str("subtotal", l.Subtotal.StringFixed(places)).
			Str("discount", l.Discount.StringFixed(places)).
			Str("tax", l.Tax.StringFixed(places)).
			Str("price", l.Price.StringFixed(places)).
			Str("fees", l.FeeTotal.StringFixed(places)))
	}
	logger.Info().
		Str("session_id", sessionID).
		Int("items", store.TotalQuantity()).
		Strs("discounts", store.Discounts()).
		Array("lines", lines).
		Str("subtotal", q.Summary.Subtotal.StringFixed(places)).
		Str("discount", q.Summary.Discount.StringFixed(places)).
		Str("tax", q.Summary.Tax.StringFixed(places)).
		Str("fees", q.Summary.Fees.StringFixed(places)).
		Str("total", q.Summary.Total.StringFixed(places)).
		Msg("cart_quote")
}

func fail(logger zerolog.Logger, msg string, err error) {
	appErr := common.FromCartError(err)
	logger.Fatal().Err(err).Str("code", appErr.Code).Msg(msg)
}

func readJSON(path string, dst any) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
