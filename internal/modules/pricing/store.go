// README: Pricing snapshot loader backed by PostgreSQL.
package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"charter/internal/types"
)

type Store struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewStore(db *pgxpool.Pool, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// LoadSnapshot reads every pricing table into one immutable snapshot.
// Malformed condition_config payloads are logged as warnings and replaced by
// their documented fallbacks; they never fail the load.
func (s *Store) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{ContractorRates: make(map[types.ID][]ContractorRate)}

	rows, err := s.db.Query(ctx, `
        SELECT customer_id, service_name, COALESCE(vehicle_type_id, ''), price_cents
        FROM customer_service_rates`)
	if err != nil {
		return nil, fmt.Errorf("load customer rates: %w", err)
	}
	for rows.Next() {
		var r CustomerRate
		var price int64
		if err := rows.Scan(&r.CustomerID, &r.ServiceName, &r.VehicleTypeID, &price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan customer rate: %w", err)
		}
		r.Price = types.Money(price)
		snap.CustomerRates = append(snap.CustomerRates, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load customer rates: %w", err)
	}

	rows, err = s.db.Query(ctx, `
        SELECT service_id, vehicle_type_id, price_cents
        FROM service_vehicle_rates`)
	if err != nil {
		return nil, fmt.Errorf("load service matrix: %w", err)
	}
	for rows.Next() {
		var r MatrixRate
		var price int64
		if err := rows.Scan(&r.ServiceID, &r.VehicleTypeID, &price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan matrix rate: %w", err)
		}
		r.Price = types.Money(price)
		snap.Matrix = append(snap.Matrix, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load service matrix: %w", err)
	}

	rows, err = s.db.Query(ctx, `
        SELECT id, name, condition_type, COALESCE(condition_config, ''), is_per_occurrence
        FROM services
        WHERE is_ancillary`)
	if err != nil {
		return nil, fmt.Errorf("load ancillary services: %w", err)
	}
	for rows.Next() {
		var a AncillaryService
		var kind, raw string
		if err := rows.Scan(&a.ID, &a.Name, &kind, &raw, &a.PerOccurrence); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ancillary service: %w", err)
		}
		cond, err := ParseCondition(ConditionKind(kind), raw)
		if err != nil {
			s.log.Warn("ancillary condition fallback",
				zap.String("service", a.Name),
				zap.String("condition_type", kind),
				zap.Error(err))
		}
		a.Condition = cond
		snap.Ancillaries = append(snap.Ancillaries, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load ancillary services: %w", err)
	}

	rows, err = s.db.Query(ctx, `
        SELECT contractor_id, service_id, vehicle_type_id, cost_cents
        FROM contractor_rates`)
	if err != nil {
		return nil, fmt.Errorf("load contractor rates: %w", err)
	}
	for rows.Next() {
		var contractorID types.ID
		var r ContractorRate
		var cost int64
		if err := rows.Scan(&contractorID, &r.ServiceID, &r.VehicleTypeID, &cost); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan contractor rate: %w", err)
		}
		r.Cost = types.Money(cost)
		snap.ContractorRates[contractorID] = append(snap.ContractorRates[contractorID], r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load contractor rates: %w", err)
	}

	return snap, nil
}
