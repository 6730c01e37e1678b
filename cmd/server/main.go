package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucas/tileworld/internal/api"
	"github.com/lucas/tileworld/internal/auth"
	"github.com/lucas/tileworld/internal/config"
	"github.com/lucas/tileworld/internal/db"
	"github.com/lucas/tileworld/internal/session"
	"github.com/lucas/tileworld/internal/world"
	"github.com/lucas/tileworld/internal/worldlog"
	"github.com/lucas/tileworld/internal/ws"
)

var log = worldlog.New("main")

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	devMode := flag.Bool("dev", false, "enable development mode")
	noDB := flag.Bool("no-db", false, "run without a database (in-memory only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warnf("failed to load config from %s, using defaults: %v", *configPath, err)
		cfg = config.Default()
	}
	if *devMode {
		cfg.Dev.Enabled = true
		log.Infof("development mode enabled")
	}
	if *noDB {
		cfg.Dev.NoDB = true
	}

	var postgres *db.Postgres
	var redis *db.Redis
	if cfg.Dev.NoDB {
		log.Infof("running without a database (in-memory mode)")
	} else {
		postgres, err = db.NewPostgres(cfg.Database.GameDatabaseURL)
		if err != nil {
			log.Warnf("failed to connect to postgres: %v", err)
			postgres = &db.Postgres{}
		}
		redis, err = db.NewRedis(cfg.Database.RedisURL)
		if err != nil {
			log.Warnf("failed to connect to redis: %v", err)
		}
	}
	defer postgres.Close()
	defer redis.Close()

	writer := db.NewWriter(postgres, 5*time.Second, 512)
	writerCtx, stopWriter := context.WithCancel(context.Background())
	go writer.Run(writerCtx)

	var verifier auth.Verifier
	if cfg.Auth.TrustOnly {
		verifier = auth.NewTrustingVerifier()
	} else {
		verifier = auth.NewSigningVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	}

	chunks := world.NewChunkStore(
		cfg.World.TerrainDir,
		!cfg.World.StrictTerrain,
		time.Duration(cfg.World.ZoneWarmToColdSecs)*time.Second,
		time.Duration(cfg.World.ChunkCleanupSecs)*time.Second,
		log,
	)
	items := world.DefaultItemRegistry()
	drops := world.DefaultDropTableRegistry()
	npcTypes := world.DefaultNpcTypeRegistry()

	hub := ws.NewHub()
	go hub.Run()

	engine := world.NewEngine(world.EngineConfig{
		TickDuration:         cfg.World.TickDuration,
		VisionRadiusChunks:   cfg.World.VisionRadiusChunks,
		SpawnX:               cfg.World.SpawnX,
		SpawnY:               cfg.World.SpawnY,
		StrictTerrain:        cfg.World.StrictTerrain,
		ZoneWarmToColdSecs:   cfg.World.ZoneWarmToColdSecs,
		ChunkCleanupSecs:     cfg.World.ChunkCleanupSecs,
		CooldownSweepSecs:    cfg.World.CooldownSweepSecs,
		PlayerAttackCooldown: int64(cfg.World.Combat.PlayerAttackCooldownTicks),
		PlayerRespawnTicks:   int64(cfg.World.Combat.PlayerRespawnTicks),
		RegenTicks:           cfg.World.Combat.SkillRegenTicks,
	}, chunks, items, drops, npcTypes, log, hub)

	sessions := session.NewRegistry(
		time.Duration(cfg.World.Session.AuthDeadlineSecs)*time.Second,
		time.Duration(cfg.World.Session.SoftDisconnectSecs)*time.Second,
		time.Duration(cfg.World.Session.IdleTimeoutSecs)*time.Second,
	)

	state := api.NewEngineState(engine, postgres, cfg.World.SpawnX, cfg.World.SpawnY)
	wsHandler := ws.NewHandler(hub, sessions, verifier, state, engine)
	router := api.NewRouter(wsHandler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	tickCtx, stopTick := context.WithCancel(context.Background())
	go runTickLoop(tickCtx, engine, cfg.World.TickDuration)
	go runSessionSweep(tickCtx, sessions, engine, writer)

	go func() {
		log.Infof("server starting on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("server failed: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("shutting down")
	stopTick()
	stopWriter()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}
	log.Infof("server exited")
}

// runTickLoop drives the simulation at a fixed cadence. Ticks never
// overlap: a slow tick simply delays the next one rather than running
// concurrently with it.
func runTickLoop(ctx context.Context, engine *world.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			engine.Tick(now)
		}
	}
}

func runSessionSweep(ctx context.Context, sessions *session.Registry, engine *world.Engine, writer *db.Writer) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, accountID := range sessions.Sweep(now) {
				if p, ok := engine.GetPlayer(accountID); ok {
					writer.Enqueue(playerToRow(p))
					engine.RemovePlayer(accountID)
				}
			}
		}
	}
}

func playerToRow(p *world.Player) db.CharacterRow {
	snap := p.Snapshot()
	return db.CharacterRow{
		AccountID:  snap.AccountID,
		Username:   snap.Username,
		PosX:       snap.Pos.X,
		PosY:       snap.Pos.Y,
		Hitpoints:  snap.HP,
		Inventory:  p.Inventory.Slots,
		Quantities: p.Inventory.Quantities,
		Equipped:   snap.Equipped,
	}
}
