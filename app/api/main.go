package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/database/mongoclient"
	"github.com/vendue/goapi/base/database/redisclient"
	"github.com/vendue/goapi/base/log"
	"github.com/vendue/goapi/base/metrics"
	bValidator "github.com/vendue/goapi/base/validator"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/keys"
	"github.com/vendue/goapi/domain/settlement"
	mmiddleware "github.com/vendue/goapi/middleware"
	"github.com/vendue/goapi/service/cache"
	"github.com/vendue/goapi/service/cache/provider"
	cacheCompound "github.com/vendue/goapi/service/cache/provider/compound"
	cachePrimitive "github.com/vendue/goapi/service/cache/provider/primitive"
	cacheRedis "github.com/vendue/goapi/service/cache/provider/redis"
	"github.com/vendue/goapi/service/ledger"
	"github.com/vendue/goapi/service/query"
	"github.com/vendue/goapi/service/redis"
	collection_delivery "github.com/vendue/goapi/stores/collection/delivery/http"
	collection_repository "github.com/vendue/goapi/stores/collection/repository"
	collection_usecase "github.com/vendue/goapi/stores/collection/usecase"
	currency_delivery "github.com/vendue/goapi/stores/currency/delivery/http"
	currency_repository "github.com/vendue/goapi/stores/currency/repository"
	currency_usecase "github.com/vendue/goapi/stores/currency/usecase"
	listing_delivery "github.com/vendue/goapi/stores/listing/delivery/http"
	listing_repository "github.com/vendue/goapi/stores/listing/repository"
	listing_usecase "github.com/vendue/goapi/stores/listing/usecase"
	listing_worker "github.com/vendue/goapi/stores/listing/worker"
	settlement_usecase "github.com/vendue/goapi/stores/settlement/usecase"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient)

	// init redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), redisCachePool)

	listingCache := cache.New(cache.ServiceConfig{
		Ttl: viper.GetDuration("listing.cacheTtl"),
		Pfx: keys.PfxListing,
		Cache: cacheCompound.NewCompound([]provider.Provider{
			cachePrimitive.NewPrimitive("listing", viper.GetInt("listing.localCacheMb")),
			cacheRedis.NewRedis(redisCache),
		}),
	})

	// init the asset ledger the marketplace settles against
	marketAddress := domain.Address(viper.GetString("market.address")).ToLower()
	adminAddress := domain.Address(viper.GetString("market.admin")).ToLower()
	feeRecipient := domain.Address(viper.GetString("market.feeRecipient")).ToLower()
	assetLedger := ledger.New(marketAddress)
	seedLedger(assetLedger)

	// construct repository, usecase and delivery
	registry := listing_repository.NewRegistry()
	buyerWhitelist := listing_repository.NewBuyerWhitelist(viper.GetInt("listing.maxWhitelistBatch"))
	eventsRepo := listing_repository.NewActivity(q)
	currencyRepo := currency_repository.NewAllowlist()
	collectionRepo := collection_repository.NewWhitelist()

	currencyUC := currency_usecase.New(&currency_usecase.CurrencyUseCaseCfg{
		Repo:  currencyRepo,
		Admin: adminAddress,
	})
	collectionUC := collection_usecase.New(&collection_usecase.CollectionUseCaseCfg{
		Repo:  collectionRepo,
		Admin: adminAddress,
	})
	settlementUC := settlement_usecase.New(&settlement_usecase.SettlementUseCaseCfg{
		FeeRecipient: feeRecipient,
		Native:       assetLedger.Native(),
		Erc20:        assetLedger.Erc20(),
		Royalty:      assetLedger.Royalty(),
		Detector:     assetLedger.Detector(),
	})
	listingUC := listing_usecase.New(&listing_usecase.ListingUseCaseCfg{
		Registry:        registry,
		BuyerWhitelist:  buyerWhitelist,
		Collections:     collectionUC,
		Currencies:      currencyUC,
		Settlement:      settlementUC,
		Fees:            settlement.StaticFeeRate(viper.GetInt64("market.feeRate")),
		Erc721:          assetLedger.Erc721(),
		Erc1155:         assetLedger.Erc1155(),
		Detector:        assetLedger.Detector(),
		Market:          marketAddress,
		Events:          eventsRepo,
		Snapshots:       []domain.Snapshotter{assetLedger, registry, buyerWhitelist},
		DisplayDecimals: int32(viper.GetInt("listing.displayDecimals")),
	})

	listing_delivery.New(e, listingUC, eventsRepo, listingCache)
	currency_delivery.New(e, currencyUC)
	collection_delivery.New(e, collectionUC)

	// background sweep of listings whose preconditions no longer hold
	if interval := viper.GetDuration("sweeper.interval"); interval > 0 {
		sweeper := listing_worker.NewSweeper(&listing_worker.SweeperCfg{
			Listing:     listingUC,
			Interval:    interval,
			Concurrency: viper.GetInt("sweeper.concurrency"),
		})
		sweepCtx, stopSweep := ctx.WithCancel(context)
		defer stopSweep()
		go sweeper.Run(sweepCtx)
	}

	e.GET("/healthcheck", func(c echo.Context) error {
		return c.JSON(http.StatusOK, "ok")
	})

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	shutdownCtx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}

// seedLedger registers the token contracts the marketplace settles against,
// from the `assets` config section.
func seedLedger(l *ledger.Ledger) {
	assets := viper.Sub("assets")
	if assets == nil {
		return
	}
	for k := range assets.AllSettings() {
		addr := domain.Address(assets.GetString(fmt.Sprintf("%s.address", k))).ToLower()
		switch assets.GetString(fmt.Sprintf("%s.standard", k)) {
		case "erc721":
			l.RegisterErc721(addr)
		case "erc1155":
			l.RegisterErc1155(addr)
		case "erc20":
			l.RegisterErc20(addr, erc20ReturnMode(assets.GetString(fmt.Sprintf("%s.returnMode", k))))
		default:
			log.Log().WithField("asset", k).Warn("unknown asset standard, skipped")
			continue
		}
		if royalty := assets.GetInt64(fmt.Sprintf("%s.royaltyBps", k)); royalty > 0 {
			receiver := domain.Address(assets.GetString(fmt.Sprintf("%s.royaltyReceiver", k))).ToLower()
			l.SetRoyalty(addr, receiver, royalty)
		}
	}
}

func erc20ReturnMode(mode string) ledger.ReturnMode {
	switch mode {
	case "nothing":
		return ledger.ReturnNothing
	case "falseOnFailure":
		return ledger.ReturnFalseOnFailure
	default:
		return ledger.ReturnBool
	}
}
