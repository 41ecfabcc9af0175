package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/config"
	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
	"github.com/cory-johannsen/mudcore/internal/game/npc"
	"github.com/cory-johannsen/mudcore/internal/game/ruleset"
	"github.com/cory-johannsen/mudcore/internal/game/trigger"
	"github.com/cory-johannsen/mudcore/internal/game/world"
	"github.com/cory-johannsen/mudcore/internal/gameserver"
	"github.com/cory-johannsen/mudcore/internal/messaging"
	"github.com/cory-johannsen/mudcore/internal/scripting"
	"github.com/cory-johannsen/mudcore/internal/server"
	"github.com/cory-johannsen/mudcore/internal/storage/postgres"
)

// App is everything main needs to run the process.
type App struct {
	Lifecycle *server.Lifecycle
	Engine    *combat.Engine
	World     *world.Manager
}

// exists reports whether dir is set and present on disk.
func exists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

func provideRNG(cfg config.CombatConfig, logger *zap.Logger) dice.RNG {
	src := dice.NewCryptoSource()
	if cfg.Seed != 0 {
		src = dice.NewSeededSource(cfg.Seed)
		logger.Info("using seeded dice", zap.Uint64("seed", cfg.Seed))
	}
	return dice.NewLoggedRoller(src, logger)
}

func provideRules(cfg config.CombatConfig, content config.ContentConfig, logger *zap.Logger) (*ruleset.Rules, error) {
	rules := ruleset.Default()
	if cfg.RulesFile != "" {
		loaded, err := ruleset.Load(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("loading rules: %w", err)
		}
		rules = loaded
	}
	if exists(content.Classes) {
		classes, err := ruleset.LoadClasses(content.Classes)
		if err != nil {
			return nil, fmt.Errorf("loading classes: %w", err)
		}
		rules = rules.WithClasses(classes)
	}
	logger.Info("ruleset loaded",
		zap.String("version", rules.Version),
		zap.Int("classes", len(rules.Classes)),
	)
	return rules, nil
}

func provideAttacks(cfg config.CombatConfig) (*combat.AttackTable, error) {
	if cfg.AttacksFile == "" {
		return combat.DefaultAttackTable(), nil
	}
	return combat.LoadAttackTable(cfg.AttacksFile)
}

func provideWorld(content config.ContentConfig, logger *zap.Logger) (*world.Manager, error) {
	start := time.Now()
	zones, err := world.LoadZonesFromDir(content.Zones)
	if err != nil {
		return nil, fmt.Errorf("loading zones: %w", err)
	}
	mgr, err := world.NewManager(zones)
	if err != nil {
		return nil, fmt.Errorf("creating world manager: %w", err)
	}
	if err := mgr.ValidateExits(); err != nil {
		return nil, err
	}
	logger.Info("world loaded",
		zap.Int("zones", mgr.ZoneCount()),
		zap.Int("rooms", mgr.RoomCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return mgr, nil
}

func provideItems(content config.ContentConfig) (*inventory.Registry, error) {
	if !exists(content.Items) {
		return inventory.NewRegistry(), nil
	}
	return inventory.NewRegistryFromDir(content.Items)
}

func provideAffects(content config.ContentConfig) (*affect.Registry, error) {
	if !exists(content.Affects) {
		return affect.NewRegistry(), nil
	}
	return affect.LoadDirectory(content.Affects)
}

// natsLink is the bus connection and, in embedded mode, the server behind it.
type natsLink struct {
	Conn   *nats.Conn
	Server *messaging.Server
}

func provideNATS(cfg config.MessagingConfig, logger *zap.Logger) (*natsLink, func(), error) {
	link := &natsLink{}
	url := cfg.URL
	if cfg.Embedded {
		srv, err := messaging.NewServer(logger,
			messaging.WithHost(cfg.Host),
			messaging.WithPort(cfg.Port),
		)
		if err != nil {
			return nil, nil, err
		}
		if err := srv.Listen(); err != nil {
			return nil, nil, err
		}
		link.Server = srv
		url = srv.ClientURL()
	}
	conn, err := nats.Connect(url,
		nats.Name("combatd"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		if link.Server != nil {
			link.Server.Stop()
		}
		return nil, nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	link.Conn = conn
	cleanup := func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
		if link.Server != nil {
			link.Server.Stop()
		}
	}
	return link, cleanup, nil
}

func provideBus(link *natsLink, cfg config.MessagingConfig, logger *zap.Logger) *messaging.Bus {
	return messaging.NewBus(link.Conn, cfg.Prefix, logger)
}

func provideScripts(content config.ContentConfig, rng dice.RNG, worldMgr *world.Manager, logger *zap.Logger) (*scripting.Manager, func(), error) {
	mgr := scripting.NewManager(rng, logger)
	if exists(content.Scripts) {
		if err := mgr.LoadGlobal(content.Scripts, content.ScriptInstructionLimit); err != nil {
			mgr.Close()
			return nil, nil, fmt.Errorf("loading global scripts: %w", err)
		}
	}
	if err := trigger.LoadZoneScripts(mgr, worldMgr.AllZones()); err != nil {
		mgr.Close()
		return nil, nil, fmt.Errorf("loading zone scripts: %w", err)
	}
	return mgr, mgr.Close, nil
}

func provideTriggers(scripts *scripting.Manager, worldMgr *world.Manager, bus *messaging.Bus, logger *zap.Logger) *trigger.LuaTriggers {
	return trigger.NewLuaTriggers(scripts, worldMgr, bus, logger)
}

func provideEngine(
	cfg config.CombatConfig,
	rules *ruleset.Rules,
	rng dice.RNG,
	worldMgr *world.Manager,
	attacks *combat.AttackTable,
	affects *affect.Registry,
	bus *messaging.Bus,
	triggers *trigger.LuaTriggers,
	logger *zap.Logger,
) (*combat.Engine, error) {
	return combat.NewEngine(combat.Config{
		Rules:         rules,
		RNG:           rng,
		Rooms:         worldMgr,
		Attacks:       attacks,
		Messenger:     bus,
		Triggers:      triggers,
		Affects:       affects,
		Logger:        logger,
		PulsesPerTick: cfg.PulsesPerTick,
	})
}

func provideNPCs(
	content config.ContentConfig,
	engine *combat.Engine,
	rng dice.RNG,
	attacks *combat.AttackTable,
	items *inventory.Registry,
	logger *zap.Logger,
) (*npc.Manager, error) {
	var templates []*npc.Template
	if exists(content.NPCs) {
		var err error
		if templates, err = npc.LoadTemplates(content.NPCs); err != nil {
			return nil, fmt.Errorf("loading npc templates: %w", err)
		}
	}
	logger.Info("npc templates loaded", zap.Int("count", len(templates)))
	return npc.NewManager(templates, engine, rng, attacks, items, logger)
}

// provideRespawn hooks respawns into engine deaths and fills every room.
func provideRespawn(worldMgr *world.Manager, npcs *npc.Manager, engine *combat.Engine, logger *zap.Logger) (*npc.RespawnManager, error) {
	spawns, err := npc.SpawnsFromZones(worldMgr.AllZones())
	if err != nil {
		return nil, err
	}
	for room, cfgs := range spawns {
		for _, c := range cfgs {
			if _, ok := npcs.Template(c.TemplateID); !ok {
				return nil, fmt.Errorf("room %q spawns unknown npc template %q", room, c.TemplateID)
			}
		}
	}
	respawn := npc.NewRespawnManager(spawns, npcs, logger)
	engine.OnDeath(respawn.OnDeath)
	respawn.PopulateAll()
	logger.Info("initial npc population complete", zap.Int("npcs", npcs.Len()))
	return respawn, nil
}

func providePulse(cfg config.CombatConfig, engine *combat.Engine, respawn *npc.RespawnManager, logger *zap.Logger) *gameserver.PulseLoop {
	loop := gameserver.NewPulseLoop(engine, cfg.PulseInterval, logger)
	loop.OnTick(respawn.Tick)
	return loop
}

// persistence is the database side of the process; zero when disabled.
type persistence struct {
	Pool      *postgres.Pool
	Autosaver *gameserver.Autosaver
}

func providePersistence(ctx context.Context, cfg config.PersistenceConfig, db config.DatabaseConfig, engine *combat.Engine, logger *zap.Logger) (*persistence, func(), error) {
	if !cfg.Enabled {
		return &persistence{}, func() {}, nil
	}
	start := time.Now()
	pool, err := postgres.NewPool(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", db.Host),
		zap.String("database", db.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
	saver := gameserver.NewAutosaver(
		engine,
		postgres.NewCombatantRepository(pool.DB()),
		postgres.NewKillRepository(pool.DB()),
		cfg.AutosaveInterval,
		logger,
	)
	return &persistence{Pool: pool, Autosaver: saver}, pool.Close, nil
}

// provideApp orders services so shutdown stops the pulse first and the
// bus last.
func provideApp(
	logger *zap.Logger,
	link *natsLink,
	persist *persistence,
	pulse *gameserver.PulseLoop,
	engine *combat.Engine,
	worldMgr *world.Manager,
) *App {
	lc := server.NewLifecycle(logger)
	if link.Server != nil {
		lc.Add("nats", link.Server)
	}
	if persist.Autosaver != nil {
		lc.Add("autosave", persist.Autosaver)
	}
	lc.Add("pulse", pulse)
	return &App{Lifecycle: lc, Engine: engine, World: worldMgr}
}
