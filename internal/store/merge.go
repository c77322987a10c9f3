package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/pitchside/pkg/dedupe"
	"github.com/pitchside/pitchside/pkg/identity"
)

// The merge surface. Reference counts and repoints follow resolver
// semantics: a bare integer resolves to the external record first, so
// references to an internal record only belong to it while no external
// record shadows its local integer.

// CountRefs implements dedupe.MergeStore outside a transaction.
func (s *Store) CountRefs(ctx context.Context, kind string, id identity.CanonicalID) (int, error) {
	return countRefs(ctx, s.db, kind, id)
}

// InMergeTx implements dedupe.MergeStore.
func (s *Store) InMergeTx(ctx context.Context, fn func(dedupe.TxOps) error) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&mergeTx{tx: tx})
	})
}

// mergeTx implements dedupe.TxOps over one open transaction.
type mergeTx struct {
	tx *sqlx.Tx
}

func (m *mergeTx) CountRefs(ctx context.Context, kind string, id identity.CanonicalID) (int, error) {
	return countRefs(ctx, m.tx, kind, id)
}

func (m *mergeTx) Repoint(ctx context.Context, kind string, from, to identity.CanonicalID) (int64, error) {
	col, err := refColumn(kind)
	if err != nil {
		return 0, err
	}
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var res sql.Result
	if from.Namespace == identity.Internal {
		// References shadowed by an external record with the same integer
		// do not belong to the internal loser and must stay put.
		query := fmt.Sprintf(`
			UPDATE reports SET %[1]s = ?
			WHERE %[1]s = ?
			  AND NOT EXISTS (SELECT 1 FROM %[2]s WHERE provider_id = ?)`, col, table)
		res, err = m.tx.ExecContext(ctx, query, to.Local, from.Local, from.Local)
	} else {
		query := fmt.Sprintf("UPDATE reports SET %[1]s = ? WHERE %[1]s = ?", col)
		res, err = m.tx.ExecContext(ctx, query, to.Local, from.Local)
	}
	if err != nil {
		return 0, fmt.Errorf("repoint %s refs %s -> %s: %w", kind, from, to, err)
	}
	return res.RowsAffected()
}

func (m *mergeTx) DeleteEntity(ctx context.Context, kind string, id identity.CanonicalID) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	col := "provider_id"
	if id.Namespace == identity.Internal {
		col = "internal_id"
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, col)
	if _, err := m.tx.ExecContext(ctx, query, id.Local); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	return nil
}

func (m *mergeTx) HasExternal(ctx context.Context, kind string, local int64) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	var n int
	query := fmt.Sprintf("SELECT count(*) FROM %s WHERE provider_id = ?", table)
	if err := sqlx.GetContext(ctx, m.tx, &n, query, local); err != nil {
		return false, fmt.Errorf("external shadow check %s %d: %w", kind, local, err)
	}
	return n > 0, nil
}

// countRefs counts report references resolving to id, through either the
// pooled handle or an open transaction.
func countRefs(ctx context.Context, q sqlx.QueryerContext, kind string, id identity.CanonicalID) (int, error) {
	col, err := refColumn(kind)
	if err != nil {
		return 0, err
	}
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var (
		n     int
		query string
		args  []interface{}
	)
	if id.Namespace == identity.Internal {
		query = fmt.Sprintf(`
			SELECT count(*) FROM reports
			WHERE %s = ?
			  AND NOT EXISTS (SELECT 1 FROM %s WHERE provider_id = ?)`, col, table)
		args = []interface{}{id.Local, id.Local}
	} else {
		query = fmt.Sprintf("SELECT count(*) FROM reports WHERE %s = ?", col)
		args = []interface{}{id.Local}
	}
	if err := sqlx.GetContext(ctx, q, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s refs for %s: %w", kind, id, err)
	}
	return n, nil
}
