// README: Saved bookings backed by PostgreSQL.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"charter/internal/types"
)

// Archive writes finished drafts to the bookings table and reads them back
// for copy-editing. Listing, filtering, and updates live elsewhere.
type Archive struct {
	db *pgxpool.Pool
}

func NewArchive(db *pgxpool.Pool) *Archive {
	return &Archive{db: db}
}

func (a *Archive) Save(ctx context.Context, d *Draft) (types.ID, error) {
	id := types.ID(uuid.NewString())
	pickupStops, err := json.Marshal(d.PickupStops)
	if err != nil {
		return "", fmt.Errorf("marshal pickup stops: %w", err)
	}
	dropoffStops, err := json.Marshal(d.DropoffStops)
	if err != nil {
		return "", fmt.Errorf("marshal dropoff stops: %w", err)
	}
	extras, err := json.Marshal(d.ExtraServices)
	if err != nil {
		return "", fmt.Errorf("marshal extra services: %w", err)
	}

	_, err = a.db.Exec(ctx, `
        INSERT INTO bookings (
            id, customer_id, service_id, service_name, vehicle_type_id, contractor_id,
            pickup_date, pickup_time,
            pickup_stops, dropoff_stops, extra_services,
            base_price, midnight_surcharge, additional_discount,
            job_cost, cash_to_collect, final_price, created_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6,
            $7, $8,
            $9, $10, $11,
            $12, $13, $14,
            $15, $16, $17, $18
        )`,
		string(id),
		string(d.CustomerID),
		string(d.ServiceID),
		d.ServiceName,
		string(d.VehicleTypeID),
		string(d.ContractorID),
		d.PickupDate,
		d.PickupTime,
		pickupStops,
		dropoffStops,
		extras,
		int64(d.BasePrice),
		int64(d.MidnightSurcharge),
		int64(d.AdditionalDiscount),
		int64(d.JobCost),
		int64(d.CashToCollect),
		int64(d.FinalPrice),
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert booking: %w", err)
	}
	return id, nil
}

func (a *Archive) Load(ctx context.Context, id types.ID) (*Draft, error) {
	row := a.db.QueryRow(ctx, `
        SELECT customer_id, service_id, service_name, vehicle_type_id, contractor_id,
               pickup_date, pickup_time,
               pickup_stops, dropoff_stops, extra_services,
               base_price, midnight_surcharge, additional_discount,
               job_cost, cash_to_collect, final_price
        FROM bookings
        WHERE id = $1`, string(id),
	)

	var d Draft
	var pickupStops, dropoffStops, extras []byte
	var base, midnight, discount, jobCost, cash, final int64
	err := row.Scan(
		&d.CustomerID, &d.ServiceID, &d.ServiceName, &d.VehicleTypeID, &d.ContractorID,
		&d.PickupDate, &d.PickupTime,
		&pickupStops, &dropoffStops, &extras,
		&base, &midnight, &discount,
		&jobCost, &cash, &final,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if err := json.Unmarshal(pickupStops, &d.PickupStops); err != nil {
		return nil, fmt.Errorf("unmarshal pickup stops: %w", err)
	}
	if err := json.Unmarshal(dropoffStops, &d.DropoffStops); err != nil {
		return nil, fmt.Errorf("unmarshal dropoff stops: %w", err)
	}
	if len(extras) > 0 {
		if err := json.Unmarshal(extras, &d.ExtraServices); err != nil {
			return nil, fmt.Errorf("unmarshal extra services: %w", err)
		}
	}
	d.BasePrice = types.Money(base)
	d.MidnightSurcharge = types.Money(midnight)
	d.AdditionalDiscount = types.Money(discount)
	d.JobCost = types.Money(jobCost)
	d.CashToCollect = types.Money(cash)
	d.FinalPrice = types.Money(final)
	return &d, nil
}
