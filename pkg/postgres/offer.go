package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/db"
)

const offerColumns = `id, parent_booking_id, recipient_index, recipient_name, status, eligible_staff_ids,
	assigned_staff_id, scheduled_at, duration_minutes, earnings, location_info,
	is_group_booking, total_group_size, escalation_level, last_escalated_at,
	opened_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (*model.JobOffer, error) {
	var o model.JobOffer
	err := row.Scan(
		&o.ID, &o.ParentBookingID, &o.RecipientIndex, &o.RecipientName, &o.Status, &o.EligibleStaffIDs,
		&o.AssignedStaffID, &o.ScheduledAt, &o.DurationMinutes, &o.Earnings, &o.LocationInfo,
		&o.IsGroupBooking, &o.TotalGroupSize, &o.EscalationLevel, &o.LastEscalatedAt,
		&o.OpenedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOffer inserts a new offer. Missing id, status and opened_at are
// filled with a fresh UUID, Open, and the current time.
func (d *DB) CreateOffer(ctx context.Context, offer *model.JobOffer) error {
	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	if offer.Status == "" {
		offer.Status = model.StatusOpen
	}
	if offer.OpenedAt.IsZero() {
		offer.OpenedAt = time.Now().UTC()
	}

	err := d.pool.QueryRow(ctx, `
		INSERT INTO job_offers (id, parent_booking_id, recipient_index, recipient_name, status, eligible_staff_ids,
			scheduled_at, duration_minutes, earnings, location_info, is_group_booking,
			total_group_size, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, offer.ID, offer.ParentBookingID, offer.RecipientIndex, offer.RecipientName, offer.Status, offer.EligibleStaffIDs,
		offer.ScheduledAt, offer.DurationMinutes, offer.Earnings, offer.LocationInfo,
		offer.IsGroupBooking, offer.TotalGroupSize, offer.OpenedAt,
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert job offer: %w", err)
	}
	return nil
}

// GetOffer fetches one offer by id.
func (d *DB) GetOffer(ctx context.Context, id string) (*model.JobOffer, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM job_offers WHERE id = $1`, id)
	offer, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query job offer: %w", err)
	}
	return offer, nil
}

// ListOpenOffers returns every offer currently in Open state, oldest first.
func (d *DB) ListOpenOffers(ctx context.Context) ([]model.JobOffer, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+offerColumns+` FROM job_offers WHERE status = $1 ORDER BY opened_at`, model.StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to query open offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

// ListByBooking returns all child offers sharing a parent booking id, in
// recipient order.
func (d *DB) ListByBooking(ctx context.Context, bookingID string) ([]model.JobOffer, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+offerColumns+` FROM job_offers WHERE parent_booking_id = $1 ORDER BY recipient_index, created_at`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func collectOffers(rows pgx.Rows) ([]model.JobOffer, error) {
	var offers []model.JobOffer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job offer: %w", err)
		}
		offers = append(offers, *offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job offers: %w", err)
	}
	return offers, nil
}

// AssignStaff awards an Open offer to staffID. The WHERE clause carries the
// whole precondition so two concurrent accepts resolve with one winner.
func (d *DB) AssignStaff(ctx context.Context, offerID, staffID string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE job_offers
		SET status = $3, assigned_staff_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = $4 AND $2 = ANY(eligible_staff_ids)
	`, offerID, staffID, model.StatusAssigned, model.StatusOpen)
	if err != nil {
		return fmt.Errorf("failed to assign staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return d.conflictOrNotFound(ctx, offerID)
	}
	return nil
}

// TransitionStatus moves an offer between states, checking the expected
// from-state in the same statement. A holder exists only while the offer is
// Assigned or InProgress, so any transition out of those states clears it.
func (d *DB) TransitionStatus(ctx context.Context, offerID string, from, to model.OfferStatus) error {
	query := `UPDATE job_offers SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	if to != model.StatusAssigned && to != model.StatusInProgress {
		query = `UPDATE job_offers SET status = $3, assigned_staff_id = NULL, updated_at = NOW() WHERE id = $1 AND status = $2`
	}
	tag, err := d.pool.Exec(ctx, query, offerID, from, to)
	if err != nil {
		return fmt.Errorf("failed to transition status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return d.conflictOrNotFound(ctx, offerID)
	}
	return nil
}

// CancelAndReplace closes an Assigned offer, appends the cancellation event,
// and opens the replacement offer excluding the canceller, in one
// transaction. The cancelled offer is never reopened in place.
func (d *DB) CancelAndReplace(ctx context.Context, ev model.CancellationEvent) (string, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		bookingID     string
		recipientIdx  int
		recipientName string
		eligible      []string
		scheduledAt   time.Time
		duration      int
		earnings      float64
		location      string
		isGroup       bool
		groupSize     int
	)
	err = tx.QueryRow(ctx, `
		UPDATE job_offers
		SET status = $3, assigned_staff_id = NULL, updated_at = NOW()
		WHERE id = $1 AND status = $4 AND assigned_staff_id = $2
		RETURNING parent_booking_id, recipient_index, recipient_name, eligible_staff_ids, scheduled_at,
			duration_minutes, earnings, location_info, is_group_booking, total_group_size
	`, ev.JobOfferID, ev.StaffID, model.StatusCancelled, model.StatusAssigned).Scan(
		&bookingID, &recipientIdx, &recipientName, &eligible, &scheduledAt,
		&duration, &earnings, &location, &isGroup, &groupSize,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", d.conflictOrNotFound(ctx, ev.JobOfferID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to cancel job offer: %w", err)
	}

	remaining := make([]string, 0, len(eligible))
	for _, id := range eligible {
		if id != ev.StaffID {
			remaining = append(remaining, id)
		}
	}

	newID := uuid.New().String()
	_, err = tx.Exec(ctx, `
		INSERT INTO job_offers (id, parent_booking_id, recipient_index, recipient_name, status, eligible_staff_ids,
			scheduled_at, duration_minutes, earnings, location_info, is_group_booking,
			total_group_size, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
	`, newID, bookingID, recipientIdx, recipientName, model.StatusOpen, remaining,
		scheduledAt, duration, earnings, location, isGroup, groupSize)
	if err != nil {
		return "", fmt.Errorf("failed to create replacement offer: %w", err)
	}

	eventID := ev.ID
	if eventID == "" {
		eventID = uuid.New().String()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO cancellation_events (id, job_offer_id, staff_id, reason_code, notes)
		VALUES ($1, $2, $3, $4, $5)
	`, eventID, ev.JobOfferID, ev.StaffID, ev.ReasonCode, ev.Notes)
	if err != nil {
		return "", fmt.Errorf("failed to record cancellation event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return newID, nil
}

// CancelBooking cancels every non-terminal child of a booking without
// creating replacements and returns the children that had a holder.
func (d *DB) CancelBooking(ctx context.Context, bookingID string) ([]model.JobOffer, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT `+offerColumns+`
		FROM job_offers
		WHERE parent_booking_id = $1 AND status IN ($2, $3, $4)
		FOR UPDATE
	`, bookingID, model.StatusOpen, model.StatusAssigned, model.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking offers: %w", err)
	}
	children, err := collectOffers(rows)
	if err != nil {
		return nil, err
	}

	var held []model.JobOffer
	ids := make([]string, 0, len(children))
	for _, child := range children {
		ids = append(ids, child.ID)
		if child.AssignedStaffID != nil {
			held = append(held, child)
		}
	}

	if len(ids) > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE job_offers
			SET status = $2, assigned_staff_id = NULL, updated_at = NOW()
			WHERE id = ANY($1)
		`, ids, model.StatusCancelled)
		if err != nil {
			return nil, fmt.Errorf("failed to cancel booking offers: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit booking cancellation: %w", err)
	}
	return held, nil
}

// BumpEscalation advances the escalation level. Levels only move forward and
// only while the offer is still Open, so a stale or duplicate pass fails.
func (d *DB) BumpEscalation(ctx context.Context, offerID string, newLevel int, at time.Time) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE job_offers
		SET escalation_level = $2, last_escalated_at = $3, updated_at = NOW()
		WHERE id = $1 AND escalation_level < $2 AND status = $4
	`, offerID, newLevel, at, model.StatusOpen)
	if err != nil {
		return fmt.Errorf("failed to bump escalation level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return d.conflictOrNotFound(ctx, offerID)
	}
	return nil
}

// conflictOrNotFound distinguishes a missing offer from a failed state
// precondition after a conditional UPDATE touched zero rows.
func (d *DB) conflictOrNotFound(ctx context.Context, offerID string) error {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM job_offers WHERE id = $1)`, offerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check job offer existence: %w", err)
	}
	if !exists {
		return db.ErrOfferNotFound
	}
	return db.ErrStateConflict
}
