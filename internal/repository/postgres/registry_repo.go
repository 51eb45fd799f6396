package postgres

import (
	"context"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository"
)

// registryLockKey identifies the transaction-scoped advisory lock that
// serializes registry writers across processes.
const registryLockKey int64 = 0x5e_c0_7e_a1

const (
	qLock          = `SELECT pg_advisory_xact_lock($1)`
	qSelAccounts   = `SELECT username, password_hash FROM accounts`
	qSelRecords    = `SELECT username, ciphertext FROM records ORDER BY username, pos`
	qDelRecords    = `DELETE FROM records`
	qDelAccounts   = `DELETE FROM accounts`
	qInsertAccount = `INSERT INTO accounts (username, password_hash) VALUES ($1, $2)`
	qInsertRecord  = `INSERT INTO records (username, pos, ciphertext) VALUES ($1, $2, $3)`
)

var _ repository.RegistryStore = (*RegistryRepo)(nil)

// RegistryRepo implements repository.RegistryStore on two tables: accounts and
// records keyed by (username, pos). Every write replaces both tables inside one
// transaction.
type RegistryRepo struct {
	db  *DB
	log *zap.Logger
}

// NewRegistryRepo constructs a registry repository.
func NewRegistryRepo(db *DB, log *zap.Logger) *RegistryRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistryRepo{db: db, log: log.With(zap.String("store", "postgres"))}
}

// snapshotOpts makes both SELECTs of Load see the same committed state.
var snapshotOpts = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// Load reads both tables from one snapshot and assembles the registry.
func (r *RegistryRepo) Load(ctx context.Context) (*model.Registry, error) {
	tx, err := r.db.Pool.BeginTx(ctx, snapshotOpts)
	if err != nil {
		return nil, errs.Persistence("postgres begin", err)
	}
	reg, err := load(ctx, tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.log.Warn("rollback failed", zap.Error(rbErr))
		}
		return nil, errs.Persistence("postgres load", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Persistence("postgres commit", err)
	}
	return reg, nil
}

// Save replaces the persisted registry with reg.
func (r *RegistryRepo) Save(ctx context.Context, reg *model.Registry) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := rewrite(ctx, tx, reg); err != nil {
			return errs.Persistence("postgres save", err)
		}
		return nil
	})
}

// Update loads, applies fn and rewrites the registry while holding the
// advisory lock.
func (r *RegistryRepo) Update(ctx context.Context, fn func(reg *model.Registry) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		reg, err := load(ctx, tx)
		if err != nil {
			return errs.Persistence("postgres load", err)
		}
		if err := fn(reg); err != nil {
			return err
		}
		if err := rewrite(ctx, tx, reg); err != nil {
			return errs.Persistence("postgres save", err)
		}
		return nil
	})
}

// inTx runs body in a transaction that first takes the registry advisory lock.
// The lock is released on commit or rollback.
func (r *RegistryRepo) inTx(ctx context.Context, body func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errs.Persistence("postgres begin", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.log.Warn("rollback failed", zap.Error(rbErr))
			}
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = errs.Persistence("postgres commit", e)
		}
	}()

	if _, err = tx.Exec(ctx, qLock, registryLockKey); err != nil {
		return errs.Persistence("postgres lock", err)
	}
	return body(tx)
}

func load(ctx context.Context, q querier) (*model.Registry, error) {
	reg := model.NewRegistry()

	rows, err := q.Query(ctx, qSelAccounts)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name, hash string
		if err := rows.Scan(&name, &hash); err != nil {
			rows.Close()
			return nil, err
		}
		reg.Put(&model.Account{Username: name, PasswordHash: hash, Records: []model.Ciphertext{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.Query(ctx, qSelRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name, tok string
		if err := rows.Scan(&name, &tok); err != nil {
			return nil, err
		}
		if a := reg.Get(name); a != nil {
			a.Records = append(a.Records, model.Ciphertext(tok))
		}
	}
	return reg, rows.Err()
}

// rewrite replaces both tables with reg. Accounts are written in username
// order so the statement sequence is deterministic.
func rewrite(ctx context.Context, tx pgx.Tx, reg *model.Registry) error {
	if _, err := tx.Exec(ctx, qDelRecords); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, qDelAccounts); err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(reg.Accounts)) {
		a := reg.Accounts[name]
		if _, err := tx.Exec(ctx, qInsertAccount, name, a.PasswordHash); err != nil {
			return err
		}
		for pos, c := range a.Records {
			if _, err := tx.Exec(ctx, qInsertRecord, name, pos, string(c)); err != nil {
				return err
			}
		}
	}
	return nil
}
