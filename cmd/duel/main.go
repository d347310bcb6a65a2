// Package main provides the duel binary: it spawns two combatants from the
// roster, resolves a battle between them and prints a narrated transcript.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/duel/internal/config"
	"github.com/cory-johannsen/duel/internal/game/combat"
	"github.com/cory-johannsen/duel/internal/game/dice"
	"github.com/cory-johannsen/duel/internal/game/narrative"
	"github.com/cory-johannsen/duel/internal/game/roster"
	"github.com/cory-johannsen/duel/internal/gameserver"
	"github.com/cory-johannsen/duel/internal/observability"
	"github.com/cory-johannsen/duel/internal/scripting"
	"github.com/cory-johannsen/duel/internal/storage/cache"
	"github.com/cory-johannsen/duel/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses built-in defaults")
	rosterDir := flag.String("roster", "content/roster", "path to combatant template YAML directory")
	attackerID := flag.String("attacker", "knight", "template ID of the combatant who strikes first")
	defenderID := flag.String("defender", "goblin", "template ID of the defending combatant")
	seed := flag.Uint64("seed", 0, "dice seed for a replayable battle; 0 draws from crypto/rand")
	maxTurns := flag.Int("max-turns", 0, "turn limit; 0 uses combat.max_turns")
	mode := flag.String("mode", "", "alternating or simultaneous; empty uses combat.mode")
	persist := flag.Bool("persist", false, "store both combatants and record the battle in PostgreSQL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if *maxTurns > 0 {
		cfg.Combat.MaxTurns = *maxTurns
	}
	if *mode != "" {
		cfg.Combat.Mode = *mode
	}

	logger, err := observability.NewLogger("duel", cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	battleMode, err := combat.ParseMode(cfg.Combat.Mode)
	if err != nil {
		logger.Fatal("parsing combat mode", zap.Error(err))
	}

	templates, err := roster.LoadTemplates(*rosterDir)
	if err != nil {
		logger.Fatal("loading roster", zap.Error(err))
	}
	rst, err := roster.New(templates)
	if err != nil {
		logger.Fatal("building roster", zap.Error(err))
	}
	attacker, defender, err := spawnPair(rst, *attackerID, *defenderID)
	if err != nil {
		logger.Fatal("spawning combatants", zap.Error(err))
	}

	scriptMgr := scripting.NewManager(logger)
	defer scriptMgr.Close()
	if cfg.Scripting.ScriptDir != "" {
		if err := scriptMgr.Load(cfg.Scripting.ScriptDir, cfg.Scripting.InstructionLimit); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
	}
	narrator := narrative.New(scriptMgr, logger)

	var seedPtr *uint64
	if *seed != 0 {
		seedPtr = seed
	}

	settings := gameserver.BattleSettings{
		Calculator: combat.Calculator{Variance: cfg.Combat.Variance},
		Mode:       battleMode,
		MaxTurns:   cfg.Combat.MaxTurns,
	}

	logger.Info("duel starting",
		zap.String("attacker", attacker.ID),
		zap.String("defender", defender.ID),
		zap.Stringer("mode", battleMode),
		zap.Int("max_turns", settings.MaxTurns),
		zap.Bool("persist", *persist),
		zap.Duration("startup", time.Since(start)),
	)

	var lines []string
	if *persist {
		lines, err = fightPersisted(ctx, cfg, logger, narrator, settings, attacker, defender, seedPtr)
	} else {
		lines, err = fightInMemory(logger, narrator, settings, attacker, defender, seedPtr)
	}
	for _, line := range lines {
		fmt.Fprintln(os.Stdout, line)
	}
	if seedPtr != nil {
		fmt.Fprintf(os.Stdout, "seed: %d\n", *seedPtr)
	}
	if err != nil && !errors.Is(err, combat.ErrTurnLimitExceeded) {
		logger.Fatal("duel failed", zap.Error(err))
	}
}

func spawnPair(rst *roster.Roster, attackerID, defenderID string) (*combat.Combatant, *combat.Combatant, error) {
	at, ok := rst.Get(attackerID)
	if !ok {
		return nil, nil, fmt.Errorf("unknown attacker template %q (have %v)", attackerID, rst.IDs())
	}
	dt, ok := rst.Get(defenderID)
	if !ok {
		return nil, nil, fmt.Errorf("unknown defender template %q (have %v)", defenderID, rst.IDs())
	}
	return at.Spawn(), dt.Spawn(), nil
}

func fightInMemory(logger *zap.Logger, narrator *narrative.Narrator, settings gameserver.BattleSettings, attacker, defender *combat.Combatant, seed *uint64) ([]string, error) {
	state, err := combat.NewBattle(attacker, defender, settings.Mode)
	if err != nil {
		return nil, err
	}

	var src dice.Ranged = dice.NewCryptoSource()
	if seed != nil {
		src = dice.NewSeededSource(*seed)
	}
	blog := observability.BattleLogger(logger, "local", attacker.ID, defender.ID)

	names := map[string]string{attacker.ID: attacker.Name, defender.ID: defender.Name}
	var lines []string
	resolver := combat.NewResolver(settings.Calculator,
		combat.WithLogger(blog),
		combat.WithTurnHook(func(_ *combat.BattleState, r combat.DamageResult) {
			lines = append(lines, narrator.Describe(r, names))
		}),
	)
	err = resolver.RunToCompletion(state, []*combat.Combatant{attacker, defender}, dice.NewLoggedRoller(src, blog), settings.MaxTurns)
	if err != nil && !errors.Is(err, combat.ErrTurnLimitExceeded) {
		return lines, err
	}
	return append(lines, narrator.DescribeOutcome(state, names)), err
}

func fightPersisted(ctx context.Context, cfg config.Config, logger *zap.Logger, narrator *narrative.Narrator, settings gameserver.BattleSettings, attacker, defender *combat.Combatant, seed *uint64) ([]string, error) {
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	combatants := postgres.NewCombatantRepository(pool.DB())
	for _, c := range []*combat.Combatant{attacker, defender} {
		if err := combatants.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("storing combatant %q: %w", c.ID, err)
		}
	}

	var cc gameserver.CombatantCache
	if cfg.Redis.Enabled() {
		rc, err := cache.Dial(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		cc = rc
	}

	handler := gameserver.NewBattleHandler(
		combat.NewEngine(),
		combatants,
		postgres.NewBattleRepository(pool.DB()),
		cc,
		narrator,
		settings,
		logger,
	)
	res, err := handler.Fight(ctx, gameserver.FightRequest{
		AttackerID: attacker.ID,
		DefenderID: defender.ID,
		Seed:       seed,
	})
	if res == nil {
		return nil, err
	}
	logger.Info("battle recorded", zap.String("battle_id", res.BattleID))
	return res.Lines, err
}
