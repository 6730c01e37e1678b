package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lucas/tileworld/internal/worldlog"
)

var log = worldlog.New("db")

// Postgres owns the durable store: accounts, characters (position +
// skills + inventory), and the append-only event log used for
// after-the-fact audit of kills/drops. The tick goroutine never talks to
// this directly — see Writer for the batching boundary that decouples it.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(connString string) (*Postgres, error) {
	if connString == "" {
		return &Postgres{}, nil
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	log.Infof("connected to postgres")
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

func (p *Postgres) IsConnected() bool { return p.pool != nil }

// CharacterRow is the durable shape of one player's persisted state,
// loaded on login and rewritten by the background Writer.
type CharacterRow struct {
	AccountID   int
	Username    string
	PosX, PosY  int
	Attack      int
	Strength    int
	Defense     int
	Hitpoints   int
	Inventory   [30]int
	Quantities  [30]int
	Equipped    [9]int
}

var ErrNotConnected = errors.New("db: not connected")

// LoadCharacter fetches a player's last persisted state, or pgx.ErrNoRows
// if this account has never logged in before (the caller then creates a
// fresh character at the default spawn).
func (p *Postgres) LoadCharacter(ctx context.Context, accountID int) (*CharacterRow, error) {
	if p.pool == nil {
		return nil, ErrNotConnected
	}
	row := p.pool.QueryRow(ctx, `
		SELECT account_id, username, pos_x, pos_y, attack, strength, defense, hitpoints,
		       inventory, quantities, equipped
		FROM characters WHERE account_id = $1`, accountID)

	var c CharacterRow
	var inv, qty, eq []int
	if err := row.Scan(&c.AccountID, &c.Username, &c.PosX, &c.PosY,
		&c.Attack, &c.Strength, &c.Defense, &c.Hitpoints, &inv, &qty, &eq); err != nil {
		return nil, err
	}
	copy(c.Inventory[:], inv)
	copy(c.Quantities[:], qty)
	copy(c.Equipped[:], eq)
	return &c, nil
}

// UpsertCharacter writes a full character snapshot, inserting a row for a
// new account and updating an existing one. Its caller is the background
// Writer's periodic flush; login does not write a row.
func (p *Postgres) UpsertCharacter(ctx context.Context, c CharacterRow) error {
	if p.pool == nil {
		return ErrNotConnected
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO characters (account_id, username, pos_x, pos_y, attack, strength, defense, hitpoints, inventory, quantities, equipped)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (account_id) DO UPDATE SET
			pos_x = EXCLUDED.pos_x, pos_y = EXCLUDED.pos_y,
			attack = EXCLUDED.attack, strength = EXCLUDED.strength,
			defense = EXCLUDED.defense, hitpoints = EXCLUDED.hitpoints,
			inventory = EXCLUDED.inventory, quantities = EXCLUDED.quantities,
			equipped = EXCLUDED.equipped`,
		c.AccountID, c.Username, c.PosX, c.PosY, c.Attack, c.Strength, c.Defense, c.Hitpoints,
		c.Inventory[:], c.Quantities[:], c.Equipped[:])
	return err
}

// GameEvent is one row in the append-only audit log (kills, drops, logins).
type GameEvent struct {
	Tick      int64
	Kind      string
	AccountID int
	Detail    string
}

func (p *Postgres) AppendEvent(ctx context.Context, e GameEvent) error {
	if p.pool == nil {
		return ErrNotConnected
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO game_events (tick, kind, account_id, detail) VALUES ($1, $2, $3, $4)`,
		e.Tick, e.Kind, e.AccountID, e.Detail)
	return err
}

func (p *Postgres) EventsSince(ctx context.Context, fromTick int64, limit int) ([]GameEvent, error) {
	if p.pool == nil {
		return nil, ErrNotConnected
	}
	rows, err := p.pool.Query(ctx,
		`SELECT tick, kind, account_id, detail FROM game_events WHERE tick >= $1 ORDER BY tick ASC LIMIT $2`,
		fromTick, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		if err := rows.Scan(&e.Tick, &e.Kind, &e.AccountID, &e.Detail); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// IsNoRows reports whether err is pgx's not-found sentinel, so callers
// (session login) can distinguish "never played before" from a real error.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
