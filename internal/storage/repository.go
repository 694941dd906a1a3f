package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertSnapshotSQL = `INSERT INTO metric_snapshots (
        taken_at,
        has_metrics,
        total_value,
        total_pnl,
        total_pnl_pct,
        pending_rewards,
        weighted_apy,
        average_risk,
        position_count,
        protocol_count,
        top_profit,
        status,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
    )
    ON CONFLICT (taken_at) DO UPDATE
    SET
        has_metrics     = EXCLUDED.has_metrics,
        total_value     = EXCLUDED.total_value,
        total_pnl       = EXCLUDED.total_pnl,
        total_pnl_pct   = EXCLUDED.total_pnl_pct,
        pending_rewards = EXCLUDED.pending_rewards,
        weighted_apy    = EXCLUDED.weighted_apy,
        average_risk    = EXCLUDED.average_risk,
        position_count  = EXCLUDED.position_count,
        protocol_count  = EXCLUDED.protocol_count,
        top_profit      = EXCLUDED.top_profit,
        status          = EXCLUDED.status,
        error           = EXCLUDED.error;`

	snapshotColumnsSQL = `taken_at,
        has_metrics,
        total_value,
        total_pnl,
        total_pnl_pct,
        pending_rewards,
        weighted_apy,
        average_risk,
        position_count,
        protocol_count,
        top_profit,
        status,
        error,
        created_at`

	listSnapshotsBetweenSQL = `SELECT ` + snapshotColumnsSQL + `
    FROM metric_snapshots
    WHERE taken_at >= $1
      AND taken_at < $2
    ORDER BY taken_at;`

	listRecentSnapshotsSQL = `SELECT ` + snapshotColumnsSQL + `
    FROM metric_snapshots
    ORDER BY taken_at DESC
    LIMIT $1;`

	countSnapshotsSQL = `SELECT COUNT(*) FROM metric_snapshots;`

	deleteSnapshotsBeforeSQL = `DELETE FROM metric_snapshots WHERE taken_at < $1;`

	insertAlertSQL = `INSERT INTO alerts (
        taken_at,
        opportunity_id,
        pair,
        spread,
        profit_usd,
        threshold_usd,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (taken_at, opportunity_id) DO UPDATE
    SET pair          = EXCLUDED.pair,
        spread        = EXCLUDED.spread,
        profit_usd    = EXCLUDED.profit_usd,
        threshold_usd = EXCLUDED.threshold_usd,
        channels      = EXCLUDED.channels
    RETURNING id, taken_at, opportunity_id, pair, spread, profit_usd, threshold_usd, channels, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        taken_at,
        opportunity_id,
        pair,
        spread,
        profit_usd,
        threshold_usd,
        channels,
        created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM alerts WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// SnapshotStore defines operations for metric snapshot persistence.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, snapshot MetricSnapshot) error
	ListSnapshotsBetween(ctx context.Context, from, to time.Time) ([]MetricSnapshot, error)
	ListRecentSnapshots(ctx context.Context, limit int) ([]MetricSnapshot, error)
	CountSnapshots(ctx context.Context) (int64, error)
	DeleteSnapshotsBefore(ctx context.Context, olderThan time.Time) error
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers for multi-instance guards.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to metric snapshots and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertSnapshot persists or updates a metric snapshot.
func (s *Store) UpsertSnapshot(ctx context.Context, snapshot MetricSnapshot) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var errMsg interface{}
	if snapshot.Error != nil {
		errMsg = *snapshot.Error
	}

	_, execErr := pool.Exec(ctx, upsertSnapshotSQL,
		snapshot.TakenAt,
		snapshot.HasMetrics,
		snapshot.TotalValue.String(),
		snapshot.TotalPnL.String(),
		snapshot.TotalPnLPct.String(),
		snapshot.PendingRewards.String(),
		snapshot.WeightedAPY.String(),
		snapshot.AverageRisk,
		snapshot.PositionCount,
		snapshot.ProtocolCount,
		snapshot.TopProfit.String(),
		snapshot.Status,
		errMsg,
	)
	if execErr != nil {
		return fmt.Errorf("upsert metric snapshot: %w", execErr)
	}
	return nil
}

// ListSnapshotsBetween lists snapshots within a time window.
func (s *Store) ListSnapshotsBetween(ctx context.Context, from, to time.Time) ([]MetricSnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSnapshotsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list snapshots between: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows, 0)
}

// ListRecentSnapshots lists the most recent snapshots ordered by descending taken_at.
func (s *Store) ListRecentSnapshots(ctx context.Context, limit int) ([]MetricSnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSnapshotsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent snapshots: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows, limit)
}

// CountSnapshots counts stored snapshots.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSnapshotsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count snapshots: %w", scanErr)
	}
	return count, nil
}

// DeleteSnapshotsBefore deletes historical snapshots.
func (s *Store) DeleteSnapshotsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteSnapshotsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete snapshots before: %w", execErr)
	}
	return nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.TakenAt,
		alert.OpportunityID,
		alert.Pair,
		alert.Spread,
		alert.ProfitUSD.String(),
		alert.ThresholdUSD.String(),
		alert.Channels,
	)

	rec, scanErr := scanAlert(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore deletes historical alerts.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

func collectSnapshots(rows pgx.Rows, sizeHint int) ([]MetricSnapshot, error) {
	snapshots := make([]MetricSnapshot, 0, sizeHint)
	for rows.Next() {
		snapshot, scanErr := scanSnapshot(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		snapshots = append(snapshots, snapshot)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}

func scanSnapshot(rows pgx.Rows) (MetricSnapshot, error) {
	var (
		takenAt       time.Time
		hasMetrics    bool
		totalValue    string
		totalPnL      string
		totalPnLPct   string
		rewards       string
		weightedAPY   string
		averageRisk   float64
		positionCount int
		protocolCount int
		topProfit     string
		status        string
		errMsg        sql.NullString
		createdAt     time.Time
	)

	if err := rows.Scan(
		&takenAt,
		&hasMetrics,
		&totalValue,
		&totalPnL,
		&totalPnLPct,
		&rewards,
		&weightedAPY,
		&averageRisk,
		&positionCount,
		&protocolCount,
		&topProfit,
		&status,
		&errMsg,
		&createdAt,
	); err != nil {
		return MetricSnapshot{}, err
	}

	snapshot := MetricSnapshot{
		TakenAt:       takenAt,
		HasMetrics:    hasMetrics,
		AverageRisk:   averageRisk,
		PositionCount: positionCount,
		ProtocolCount: protocolCount,
		Status:        status,
		CreatedAt:     createdAt,
	}

	for _, field := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"total_value", totalValue, &snapshot.TotalValue},
		{"total_pnl", totalPnL, &snapshot.TotalPnL},
		{"total_pnl_pct", totalPnLPct, &snapshot.TotalPnLPct},
		{"pending_rewards", rewards, &snapshot.PendingRewards},
		{"weighted_apy", weightedAPY, &snapshot.WeightedAPY},
		{"top_profit", topProfit, &snapshot.TopProfit},
	} {
		parsed, err := decimal.NewFromString(field.raw)
		if err != nil {
			return MetricSnapshot{}, fmt.Errorf("parse %s: %w", field.name, err)
		}
		*field.dst = parsed
	}

	if errMsg.Valid {
		msg := errMsg.String
		snapshot.Error = &msg
	}

	return snapshot, nil
}

func scanAlert(row pgx.Row) (AlertRecord, error) {
	var rec AlertRecord
	var profitStr, thresholdStr string
	if err := row.Scan(
		&rec.ID,
		&rec.TakenAt,
		&rec.OpportunityID,
		&rec.Pair,
		&rec.Spread,
		&profitStr,
		&thresholdStr,
		&rec.Channels,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	var convErr error
	rec.ProfitUSD, convErr = decimal.NewFromString(profitStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse profit: %w", convErr)
	}
	rec.ThresholdUSD, convErr = decimal.NewFromString(thresholdStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse threshold: %w", convErr)
	}

	return rec, nil
}
