// Package config loads the world server's YAML configuration, with secrets
// pulled from the environment and safe defaults for local/dev runs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	World    WorldConfig    `yaml:"world"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Dev      DevConfig      `yaml:"dev"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// WorldConfig centralizes the tunables named throughout the design.
type WorldConfig struct {
	Name                string        `yaml:"name"`
	TickDuration        time.Duration `yaml:"tick_duration"`
	VisionRadiusChunks  int           `yaml:"vision_radius_chunks"`
	MaxPlayers          int           `yaml:"max_players"`
	TerrainDir          string        `yaml:"terrain_dir"`
	SpawnX              int           `yaml:"spawn_x"`
	SpawnY              int           `yaml:"spawn_y"`
	StrictTerrain       bool          `yaml:"strict_terrain"` // false = missing chunk data treated as walkable
	GroundItemDespawnTk int           `yaml:"ground_item_despawn_ticks"`
	ZoneWarmToColdSecs  int           `yaml:"zone_warm_to_cold_seconds"`
	ChunkCleanupSecs    int           `yaml:"chunk_cleanup_interval_seconds"`
	CooldownSweepSecs   int           `yaml:"cooldown_sweep_interval_seconds"`
	Combat              CombatConfig  `yaml:"combat"`
	Session             SessionConfig `yaml:"session"`
}

type CombatConfig struct {
	PlayerAttackCooldownTicks int `yaml:"player_attack_cooldown_ticks"`
	DefaultNpcAttackCooldown  int `yaml:"default_npc_attack_cooldown_ticks"`
	PlayerRespawnTicks        int `yaml:"player_respawn_ticks"`
	SkillRegenTicks           int `yaml:"skill_regen_ticks"`
}

type SessionConfig struct {
	AuthDeadlineSecs    int `yaml:"auth_deadline_seconds"`
	SoftDisconnectSecs  int `yaml:"soft_disconnect_seconds"`
	IdleTimeoutSecs     int `yaml:"idle_timeout_seconds"`
	StaleSessionSecs    int `yaml:"stale_session_seconds"`
	KillDropReserveTick int `yaml:"kill_drop_reserve_ticks"`
}

type AuthConfig struct {
	JWTSecret  string `yaml:"-"` // from JWT_SECRET env
	TrustOnly  bool   `yaml:"trust_only"` // do not re-verify signature, trust upstream-verified claims
	Issuer     string `yaml:"issuer"`
}

type DatabaseConfig struct {
	AuthDatabaseURL string `yaml:"-"` // from AUTH_DATABASE_URL env
	GameDatabaseURL string `yaml:"-"` // from GAME_DATABASE_URL env
	RedisURL        string `yaml:"redis_url"`
}

type DevConfig struct {
	Enabled bool `yaml:"enabled"`
	NoDB    bool `yaml:"no_db"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Database.AuthDatabaseURL = os.Getenv("AUTH_DATABASE_URL")
	cfg.Database.GameDatabaseURL = os.Getenv("GAME_DATABASE_URL")
	if name := os.Getenv("WORLD_NAME"); name != "" {
		cfg.World.Name = name
	}
	if port := os.Getenv("PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			cfg.Server.Port = p
		}
	}
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		World: WorldConfig{
			Name:                "default",
			TickDuration:        500 * time.Millisecond,
			VisionRadiusChunks:  1,
			MaxPlayers:          200,
			TerrainDir:          "terrain",
			SpawnX:              50,
			SpawnY:              23,
			StrictTerrain:       false,
			GroundItemDespawnTk: 180,
			ZoneWarmToColdSecs:  30,
			ChunkCleanupSecs:    30,
			CooldownSweepSecs:   5,
			Combat: CombatConfig{
				PlayerAttackCooldownTicks: 3,
				DefaultNpcAttackCooldown:  4,
				PlayerRespawnTicks:        4,
				SkillRegenTicks:           10,
			},
			Session: SessionConfig{
				AuthDeadlineSecs:    5,
				SoftDisconnectSecs:  30,
				IdleTimeoutSecs:     120,
				StaleSessionSecs:    30,
				KillDropReserveTick: 20,
			},
		},
		Auth: AuthConfig{
			TrustOnly: false,
			Issuer:    "tileworld-auth",
		},
		Database: DatabaseConfig{
			RedisURL: "redis://localhost:6379",
		},
		Dev: DevConfig{
			Enabled: false,
			NoDB:    false,
		},
	}
}
