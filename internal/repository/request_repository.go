package repository

import (
	"context"
	"errors"

	"openbook-server/internal/domain/request"
	ob_errors "openbook-server/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresRequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &PostgresRequestRepository{db: db}
}

func (r *PostgresRequestRepository) Create(ctx context.Context, req *request.ConnectionRequest) error {
	res := r.db.WithContext(ctx).Create(req)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ob_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (request.ConnectionRequest, error) {
	var req request.ConnectionRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return request.ConnectionRequest{}, ob_errors.ErrNotFound
		}
		return request.ConnectionRequest{}, err
	}
	return req, nil
}

// FindBetween looks for a request of the given kind in either direction
// between the two users. The duplicate invariant is per unordered pair.
func (r *PostgresRequestRepository) FindBetween(ctx context.Context, userA, userB uuid.UUID, kind request.Kind) (request.ConnectionRequest, error) {
	var req request.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("kind = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
			kind, userA, userB, userB, userA).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return request.ConnectionRequest{}, ob_errors.ErrNotFound
		}
		return request.ConnectionRequest{}, err
	}
	return req, nil
}

func (r *PostgresRequestRepository) FindPending(ctx context.Context, senderID, receiverID uuid.UUID, kind request.Kind) (request.ConnectionRequest, error) {
	var req request.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND kind = ? AND status = ?",
			senderID, receiverID, kind, request.StatusPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return request.ConnectionRequest{}, ob_errors.ErrNotFound
		}
		return request.ConnectionRequest{}, err
	}
	return req, nil
}

func (r *PostgresRequestRepository) Update(ctx context.Context, req request.ConnectionRequest) error {
	res := r.db.WithContext(ctx).Save(&req)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ob_errors.ErrNotFound
	}
	return nil
}

// DeletePending only matches the exact direction and pending state, so a
// cancel cannot delete an accepted or declined record.
func (r *PostgresRequestRepository) DeletePending(ctx context.Context, senderID, receiverID uuid.UUID, kind request.Kind) error {
	res := r.db.WithContext(ctx).
		Delete(&request.ConnectionRequest{},
			"sender_id = ? AND receiver_id = ? AND kind = ? AND status = ?",
			senderID, receiverID, kind, request.StatusPending)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ob_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresRequestRepository) DeleteAccepted(ctx context.Context, userA, userB uuid.UUID, kind request.Kind) error {
	return r.db.WithContext(ctx).
		Delete(&request.ConnectionRequest{},
			"kind = ? AND status = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
			kind, request.StatusAccepted, userA, userB, userB, userA).Error
}

func (r *PostgresRequestRepository) ListReceivedPending(ctx context.Context, receiverID uuid.UUID, kind request.Kind) ([]request.ConnectionRequest, error) {
	var requests []request.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND kind = ? AND status = ?", receiverID, kind, request.StatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *PostgresRequestRepository) ListSent(ctx context.Context, senderID uuid.UUID, kind request.Kind) ([]request.ConnectionRequest, error) {
	var requests []request.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND kind = ?", senderID, kind).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *PostgresRequestRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&request.ConnectionRequest{}, "sender_id = ? OR receiver_id = ?", userID, userID).Error
}
