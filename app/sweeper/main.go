package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"github.com/viney-shih/goroutines"

	"github.com/vendue/goapi/base/backoff"
	bCtx "github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/delivery"
	"github.com/vendue/goapi/base/log"
	"github.com/vendue/goapi/base/metrics"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/listing"
	"github.com/vendue/goapi/domain/token"
	"github.com/vendue/goapi/service/chain"
	"github.com/vendue/goapi/service/chain/contract"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/sweeper/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	context, cancel := bCtx.WithCancel(bCtx.Background())

	// health endpoint so the orchestrator can probe the worker
	startEchoServer()

	rpcUrls := map[int32]string{}
	for k, url := range viper.GetStringMapString("networks") {
		chainId, err := strconv.ParseInt(k, 10, 32)
		if err != nil {
			context.WithField("chainId", k).Panic("invalid chain id in networks config")
		}
		rpcUrls[int32(chainId)] = url
	}
	client, err := chain.NewClient(context, &chain.ClientCfg{RpcUrls: rpcUrls})
	if err != nil {
		context.WithField("err", err).Warn("some rpc endpoints unavailable")
	}
	inspector := contract.NewInspector(int32(viper.GetInt("chain.id")), client)

	p := &prober{
		apiBase: viper.GetString("api.baseUrl"),
		httpc:   &http.Client{Timeout: viper.GetDuration("api.timeout")},
		market:  domain.Address(viper.GetString("market.address")).ToLower(),
		erc721:  inspector.Erc721View(),
		erc1155: inspector.Erc1155View(),
		met:     metrics.New("sweeper"),
	}

	interval := viper.GetDuration("sweeper.interval")
	concurrency := viper.GetInt("sweeper.concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	go run(context, p, interval, concurrency)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	cancel()
}

func run(c bCtx.Ctx, p *prober, interval time.Duration, concurrency int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	retry := backoff.NewExponential(interval, 10*interval)

	for {
		select {
		case <-c.Done():
			return
		case <-ticker.C:
		}

		listings, err := p.fetchListings(c)
		if err != nil {
			c.WithField("err", err).Error("fetch listings failed")
			if err := retry.Backoff(c); err != nil {
				return
			}
			continue
		}
		retry.Reset()

		if len(listings) == 0 {
			continue
		}
		sweep(c, p, listings, concurrency)
	}
}

func sweep(c bCtx.Ctx, p *prober, listings []*listing.Listing, concurrency int) {
	defer p.met.BumpTime("sweep.time").End()

	b := goroutines.NewBatch(concurrency, goroutines.WithBatchSize(len(listings)))
	defer b.Close()
	for _, l := range listings {
		l := l
		b.Queue(func() (interface{}, error) {
			stale, err := p.isStale(c, l)
			if err != nil {
				return false, err
			}
			if !stale {
				return false, nil
			}
			return p.clean(c, l.ListingId)
		})
	}
	b.QueueComplete()

	cleaned := 0
	for ret := range b.Results() {
		if err := ret.Error(); err != nil {
			c.WithField("err", err).Warn("probe failed")
			p.met.BumpSum("probe.err", 1)
			continue
		}
		if ret.Value().(bool) {
			cleaned++
		}
	}
	if cleaned > 0 {
		p.met.BumpSum("cleaned", float64(cleaned))
		c.WithFields(log.Fields{
			"total":   len(listings),
			"cleaned": cleaned,
		}).Info("swept stale listings")
	}
}

// prober re-derives the purchase-time preconditions of active listings
// against the live chain and asks the api to drop the ones that fail. The
// api re-runs the check against its own state before deleting, so a stale
// probe can never remove a valid listing.
type prober struct {
	apiBase string
	httpc   *http.Client
	market  domain.Address
	erc721  token.Erc721
	erc1155 token.Erc1155
	met     metrics.Service
}

func (p *prober) fetchListings(c bCtx.Ctx) ([]*listing.Listing, error) {
	req, err := http.NewRequestWithContext(c, http.MethodGet, p.apiBase+"/listings", nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listings endpoint returned %d", resp.StatusCode)
	}

	body := struct {
		Data   []*listing.Listing          `json:"data"`
		Status delivery.JsonResponseStatus `json:"status"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

func (p *prober) isStale(c bCtx.Ctx, l *listing.Listing) (bool, error) {
	if l.Kind() == domain.TokenType721 {
		owner, err := p.erc721.OwnerOf(c, l.TokenAddress, l.TokenId)
		if err != nil {
			return false, err
		}
		if owner != l.Seller {
			return true, nil
		}
		approved, err := p.erc721.GetApproved(c, l.TokenAddress, l.TokenId)
		if err != nil {
			return false, err
		}
		if approved == p.market {
			return false, nil
		}
		operator, err := p.erc721.IsApprovedForAll(c, l.TokenAddress, l.Seller, p.market)
		if err != nil {
			return false, err
		}
		return !operator, nil
	}

	bal, err := p.erc1155.BalanceOf(c, l.TokenAddress, l.Seller, l.TokenId)
	if err != nil {
		return false, err
	}
	if bal < l.Erc1155Quantity {
		return true, nil
	}
	operator, err := p.erc1155.IsApprovedForAll(c, l.TokenAddress, l.Seller, p.market)
	if err != nil {
		return false, err
	}
	return !operator, nil
}

func (p *prober) clean(c bCtx.Ctx, id domain.ListingId) (bool, error) {
	url := fmt.Sprintf("%s/listing/%d/stale", p.apiBase, id)
	req, err := http.NewRequestWithContext(c, http.MethodDelete, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusConflict, http.StatusNotFound:
		// the api saw it as still valid, or it was purchased or cancelled
		// between our probe and this call
		return false, nil
	default:
		return false, fmt.Errorf("clean endpoint returned %d", resp.StatusCode)
	}
}

func startEchoServer() {
	e := echo.New()
	e.HideBanner = true
	e.GET("/healthcheck", func(c echo.Context) error {
		return c.JSON(http.StatusOK, "ok")
	})
	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("health server stopped")
		}
	}()
}
