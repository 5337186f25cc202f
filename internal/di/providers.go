package di

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/broadcast"
	"github.com/th3rrry/minees/internal/collector"
	"github.com/th3rrry/minees/internal/config"
	"github.com/th3rrry/minees/internal/generator"
	"github.com/th3rrry/minees/internal/logger"
	"github.com/th3rrry/minees/internal/market"
	"github.com/th3rrry/minees/internal/metrics"
	"github.com/th3rrry/minees/internal/model"
	"github.com/th3rrry/minees/internal/notifier"
	"github.com/th3rrry/minees/internal/recorder"
	"github.com/th3rrry/minees/internal/scheduler"
	"github.com/th3rrry/minees/internal/server"
)

// ProvideLogger builds the process logger.
func ProvideLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	log, closeFn, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, cfg.App.Name)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("logger: %w", err)
	}
	return log, func() { _ = closeFn() }, nil
}

func ProvideLocation(cfg *config.Config) *time.Location { return cfg.Location() }

func ProvideMetrics() *metrics.Recorder { return metrics.New() }

// ProvideRecorder opens the SQLite journal, falling back to a no-op
// recorder when it is not configured or cannot be opened.
func ProvideRecorder(cfg *config.Config, log zerolog.Logger) (recorder.Recorder, func()) {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder(), func() {}
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder(), func() {}
	}
	return rec, func() { _ = rec.Close() }
}

func ProvideJournal(rec recorder.Recorder, log zerolog.Logger) *recorder.Journal {
	return recorder.NewJournal(rec, log)
}

// ProvideHistoryCache uses Redis when enabled and reachable, the in-process
// TTL cache otherwise.
func ProvideHistoryCache(cfg *config.Config, log zerolog.Logger) (collector.BytesCache, func()) {
	if !cfg.Redis.Enabled {
		return collector.NewTTLCache(), func() {}
	}
	rc := collector.NewRedisCache(collector.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, using in-memory history cache")
		_ = rc.Close()
		return collector.NewTTLCache(), func() {}
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("history cache on redis")
	return rc, func() { _ = rc.Close() }
}

func httpClient(name string, pc config.ProviderConfig, proxy string, extra ...collector.ClientOption) *collector.HTTPClient {
	opts := []collector.ClientOption{collector.WithTimeout(pc.Timeout)}
	if proxy != "" {
		opts = append(opts, collector.WithProxy(proxy))
	}
	if pc.RateLimit > 0 {
		opts = append(opts, collector.WithRateLimit(pc.RateLimit, pc.Burst))
	}
	return collector.NewHTTPClient(name, append(opts, extra...)...)
}

// ProvideSources assembles the provider chains and attaches the journal and
// metrics as attempt observers.
func ProvideSources(cfg *config.Config, cache collector.BytesCache, journal *recorder.Journal, rec *metrics.Recorder, log zerolog.Logger) generator.Sources {
	if cfg.Collector.Mode == "mock" {
		log.Warn().Msg("collector in mock mode, signals use generated data")
		mock := &collector.Mock{Price: 100, Change24h: 0.8}
		return generator.Sources{CryptoQuotes: mock, CryptoHistory: mock, ForexQuotes: mock, ForexHistory: mock}
	}

	p, proxy := cfg.Providers, cfg.Collector.Proxy
	log = log.With().Str("component", "collector").Logger()

	var binanceOpts []collector.ClientOption
	if collector.UsableKey(p.Binance.APIKey) {
		binanceOpts = append(binanceOpts, collector.WithHeader("X-MBX-APIKEY", p.Binance.APIKey))
	}
	binanceClient := httpClient("binance", p.Binance, proxy, binanceOpts...)
	binance := collector.NewBinance(binanceClient, p.Binance.BaseURL)

	cryptoQuotes := collector.NewQuoteChain(log,
		binance,
		collector.NewCoinGecko(httpClient("coingecko", p.CoinGecko, proxy), p.CoinGecko.BaseURL, p.CoinGeckoIDs),
		collector.NewCoinCap(httpClient("coincap", p.CoinCap, proxy), p.CoinCap.BaseURL, p.CoinCapIDs),
	)
	cryptoHistory := collector.NewHistoryChain(log, binance)

	forexQuotes := collector.NewQuoteChain(log,
		collector.NewAlphaVantage(httpClient("alphavantage", p.AlphaVantage, proxy), p.AlphaVantage.BaseURL, p.AlphaVantage.APIKey),
	)
	erClient := httpClient("exchangerate", p.ExchangeRate.ProviderConfig, proxy)
	forexHistory := collector.NewHistoryChain(log,
		collector.NewYahoo(httpClient("yahoo", p.Yahoo, proxy), p.Yahoo.BaseURL),
		collector.NewExchangeRateHistory(erClient, p.ExchangeRate.HistoryURL, time.Now),
		collector.NewFixerSynthetic(httpClient("fixer", p.Fixer, proxy), p.Fixer.BaseURL, p.Fixer.APIKey, time.Now),
	)
	rates := collector.NewExchangeRateLatest(log, erClient, p.ExchangeRate.BaseURL, collector.NewKeyRing(p.ExchangeRate.Keys))

	for _, o := range []interface{ Observe(...collector.Observer) }{cryptoQuotes, cryptoHistory, forexQuotes, forexHistory, rates} {
		o.Observe(journal, rec)
	}

	ttl := cfg.Collector.HistoryCacheTTL
	return generator.Sources{
		CryptoQuotes:  cryptoQuotes,
		CryptoHistory: collector.NewCachedHistory(cryptoHistory, cache, ttl, log),
		ForexQuotes:   forexQuotes,
		ForexHistory:  collector.NewCachedHistory(forexHistory, cache, ttl, log),
		Rates:         rates,
	}
}

func ProvideStore() *generator.Store { return generator.NewStore() }

func ProvideGenerator(src generator.Sources, cfg *config.Config, loc *time.Location, log zerolog.Logger) *generator.Generator {
	return generator.New(src, generator.Options{
		HistoryLimit: cfg.Collector.HistoryLimit,
		Location:     loc,
	}, log)
}

func ProvideMarketBoard(loc *time.Location) *market.Board { return market.NewBoard(time.Now, loc) }

// ProvideHub creates the socket hub and exposes its client count as a gauge.
func ProvideHub(cfg *config.Config, store *generator.Store, rec *metrics.Recorder, log zerolog.Logger) *broadcast.Hub {
	hub := broadcast.NewHub(store, broadcast.HubConfig{ClientBuffer: cfg.Hub.ClientBuffer}, log)
	rec.GaugeFunc("ws_clients", "Connected socket clients.", func() float64 { return float64(hub.Clients()) })
	rec.GaugeFunc("ws_dropped_messages", "Messages dropped for slow socket clients.", func() float64 { return float64(hub.Dropped()) })
	return hub
}

// ProvideTelegram returns nil when Telegram is disabled.
func ProvideTelegram(cfg *config.Config, log zerolog.Logger) (*notifier.Telegram, error) {
	if !cfg.Telegram.Enabled {
		return nil, nil
	}
	tg, err := notifier.NewTelegram(notifier.TelegramConfig{
		BotToken:      cfg.Telegram.BotToken,
		ChatID:        cfg.Telegram.ChatID,
		ProxyURL:      cfg.Collector.Proxy,
		MinConfidence: cfg.Telegram.MinConfidence,
		SendNeutral:   cfg.Telegram.SendNeutral,
		MaxRetries:    cfg.Telegram.MaxRetries,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return tg, nil
}

// ProvideFanout publishes to the hub and every enabled sink.
func ProvideFanout(cfg *config.Config, hub *broadcast.Hub, tg *notifier.Telegram, log zerolog.Logger) (*broadcast.Fanout, func(), error) {
	fan := broadcast.NewFanout(log).Add("websocket", hub)
	cleanup := func() {}
	if tg != nil {
		fan.Add("telegram", tg)
	}
	if cfg.Kafka.Enabled {
		kp, err := broadcast.NewKafkaPublisher(broadcast.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			RequiredAcks: cfg.Kafka.RequiredAcks,
			Compression:  cfg.Kafka.Compression,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("kafka publisher: %w", err)
		}
		fan.Add("kafka", kp)
		cleanup = func() { _ = kp.Close() }
	}
	log.Info().Strs("sinks", fan.Sinks()).Msg("signal sinks ready")
	return fan, cleanup, nil
}

// Groups orders the instrument groups crypto, forex, otc.
func Groups(cfg *config.Config) []scheduler.Group {
	return []scheduler.Group{
		{Name: string(model.ClassCrypto), Interval: cfg.Intervals.Crypto, Instruments: cfg.Instruments.Crypto},
		{Name: string(model.ClassForex), Interval: cfg.Intervals.Forex, Instruments: cfg.Instruments.Forex},
		{Name: string(model.ClassOTC), Interval: cfg.Intervals.OTC, Instruments: cfg.Instruments.OTC},
	}
}

func ProvideScheduler(ctx context.Context, cfg *config.Config, gen *generator.Generator, store *generator.Store, fan *broadcast.Fanout, journal *recorder.Journal, rec *metrics.Recorder, log zerolog.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.NewScheduler(ctx, gen, store, fan, Groups(cfg), log)
	s.Observe(rec, journal)
	if err := s.RegisterAll(); err != nil {
		return nil, fmt.Errorf("register cron jobs: %w", err)
	}
	return s, nil
}

func ProvideHandler(store *generator.Store, board *market.Board, journal *recorder.Journal, hub *broadcast.Hub) *server.Handler {
	return server.NewHandler(store, board, journal, hub)
}

func ProvideServer(cfg *config.Config, h *server.Handler, rec *metrics.Recorder, log zerolog.Logger) *server.Server {
	return server.New(server.Config{
		Host:            cfg.HTTP.Host,
		Port:            cfg.HTTP.Port,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		CORS:            cfg.HTTP.CORS,
	}, h, rec.Handler(), []echo.MiddlewareFunc{rec.Middleware()}, log)
}

func ProvideCommands(store *generator.Store, board *market.Board) *notifier.Commands {
	return notifier.NewCommands(store, board)
}
