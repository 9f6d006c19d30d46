// Copyright 2025 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bizledger/admin-service/internal/db"
	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

const profileColumns = "uid, email, display_name, role, status, business_id, is_owner, created_by, created_at, last_login, metadata"

func scanProfile(row sq.RowScanner) (*types.UserProfile, error) {
	var p types.UserProfile
	var businessID, createdBy sql.NullString
	var lastLogin sql.NullTime
	var metadata []byte

	err := row.Scan(
		&p.UID, &p.Email, &p.DisplayName, &p.Role, &p.Status,
		&businessID, &p.IsOwner, &createdBy, &p.CreatedAt, &lastLogin, &metadata,
	)
	if err != nil {
		return nil, err
	}

	p.BusinessID = businessID.String
	p.CreatedBy = createdBy.String
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLogin = &t
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode profile metadata: %w", err)
		}
	}

	return &p, nil
}

// nullable maps the empty string to SQL NULL so absent tenant ids stay
// distinguishable from empty ones.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Storage) GetUserProfile(ctx context.Context, uid string) (*types.UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserProfile")
	defer span.End()

	row := s.db.Statement(ctx).
		Select(profileColumns).
		From("user_profiles").
		Where(sq.Eq{"uid": uid}).
		QueryRowContext(ctx)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return profile, nil
}

func (s *Storage) CreateUserProfile(ctx context.Context, profile *types.UserProfile) (*types.UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateUserProfile")
	defer span.End()

	metadata, err := json.Marshal(profile.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile metadata: %w", err)
	}

	row := s.db.Statement(ctx).
		Insert("user_profiles").
		Columns("uid", "email", "display_name", "role", "status", "business_id", "is_owner", "created_by", "metadata").
		Values(profile.UID, profile.Email, profile.DisplayName, profile.Role, profile.Status,
			nullable(profile.BusinessID), profile.IsOwner, nullable(profile.CreatedBy), metadata).
		Suffix("RETURNING " + profileColumns).
		QueryRowContext(ctx)

	created, err := scanProfile(row)
	if err != nil {
		return nil, WrapDuplicateKeyError(fmt.Errorf("failed to insert user profile: %w", err), "user profile already exists")
	}

	return created, nil
}

func (s *Storage) DeleteUserProfile(ctx context.Context, uid string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteUserProfile")
	defer span.End()

	result, err := s.db.Statement(ctx).
		Delete("user_profiles").
		Where(sq.Eq{"uid": uid}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user profile: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) UpdateUserRole(ctx context.Context, uid string, role types.Role, businessID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateUserRole")
	defer span.End()

	update := s.db.Statement(ctx).
		Update("user_profiles").
		Set("role", role).
		Where(sq.Eq{"uid": uid})

	if businessID != "" {
		// one-time backfill for profiles predating the tenant model
		update = update.Set("business_id", businessID)
	}

	result, err := update.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) UpdateLastLogin(ctx context.Context, uid string, at time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateLastLogin")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Update("user_profiles").
		Set("last_login", at).
		Where(sq.Eq{"uid": uid}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

func (s *Storage) ListProfilesByBusiness(ctx context.Context, businessID string) ([]*types.UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListProfilesByBusiness")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(profileColumns).
		From("user_profiles").
		Where(sq.Eq{"business_id": businessID}).
		OrderBy("created_at ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*types.UserProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile rows: %w", err)
	}

	return profiles, nil
}

func (s *Storage) CreateBusiness(ctx context.Context, business *types.Business) (*types.Business, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateBusiness")
	defer span.End()

	// The login bootstrap supplies its own id (the founding user's uid) so
	// the profile's business_id reference holds; otherwise generate one.
	id := business.ID
	if id == "" {
		generated, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate business ID: %w", err)
		}
		id = generated.String()
	}

	var created types.Business
	err := s.db.Statement(ctx).
		Insert("businesses").
		Columns("id", "name", "owner_id", "status", "currency", "invoice_prefix").
		Values(id, business.Name, business.OwnerID, business.Status, business.Currency, business.InvoicePrefix).
		Suffix("RETURNING id, name, owner_id, status, currency, invoice_prefix, created_at").
		QueryRowContext(ctx).
		Scan(&created.ID, &created.Name, &created.OwnerID, &created.Status, &created.Currency, &created.InvoicePrefix, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert business: %w", err)
	}

	return &created, nil
}

func (s *Storage) GetBusinessByID(ctx context.Context, id string) (*types.Business, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetBusinessByID")
	defer span.End()

	var b types.Business
	err := s.db.Statement(ctx).
		Select("id", "name", "owner_id", "status", "currency", "invoice_prefix", "created_at").
		From("businesses").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&b.ID, &b.Name, &b.OwnerID, &b.Status, &b.Currency, &b.InvoicePrefix, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	return &b, nil
}

// AppendAuditEntry inserts an audit record. There is deliberately no update
// or delete counterpart.
func (s *Storage) AppendAuditEntry(ctx context.Context, entry *types.AuditEntry) error {
	ctx, span := s.tracer.Start(ctx, "storage.AppendAuditEntry")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Insert("audit_log").
		Columns("id", "action", "actor_uid", "actor_email", "target_uid", "target_email",
			"details", "ip_address", "user_agent", "timestamp", "success", "error_message").
		Values(entry.ID, entry.Action, entry.ActorUID, entry.ActorEmail, entry.TargetUID, entry.TargetEmail,
			entry.Details, entry.IPAddress, entry.UserAgent, entry.Timestamp, entry.Success, entry.ErrorMessage).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}
