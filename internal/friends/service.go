package friends

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListLimit caps each of the two slices returned by ListForCode. Clients poll
// these slices; there is no push mechanism.
const ListLimit = 50

var (
	errMissingDatabase = errors.New("friends: database handle is required")

	// ErrMissingFields indicates that fromCode, fromName, or toCode was absent.
	ErrMissingFields = errors.New("friends: missing fromCode, fromName, or toCode")
	// ErrSelfRequest indicates a request whose sender and recipient are the same code.
	ErrSelfRequest = errors.New("friends: cannot request self")
	// ErrMissingCode indicates a listing was attempted without a code.
	ErrMissingCode = errors.New("friends: missing code")
	// ErrInvalidStatus indicates a resolution status outside accepted/declined.
	ErrInvalidStatus = errors.New("friends: invalid status")
	// ErrRequestNotFound indicates that no request exists with the given id.
	ErrRequestNotFound = errors.New("friends: request not found")
	// ErrNotAuthorized indicates the responder is not the request's recipient.
	ErrNotAuthorized = errors.New("friends: not authorized")
	// ErrAlreadyResolved indicates the request was already accepted or declined.
	ErrAlreadyResolved = errors.New("friends: request already resolved")

	noOpLogger = zap.NewNop()
)

// ServiceConfig describes the dependencies required by the friend request service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service stores, lists, and resolves friend requests.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the friend request service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:     cfg.Database,
		clock:  clock,
		logger: logger,
	}, nil
}

// Create validates the request and inserts a pending row. When a pending
// request for the same (fromCode, toCode) pair already exists, the existing
// row is returned with duplicate set to true and no second row is created.
func (s *Service) Create(ctx context.Context, request CreateRequest) (FriendRequest, bool, error) {
	if s.db == nil {
		return FriendRequest{}, false, errMissingDatabase
	}
	if request.FromCode == "" || request.FromName == "" || request.ToCode == "" {
		return FriendRequest{}, false, ErrMissingFields
	}
	if request.FromCode == request.ToCode {
		return FriendRequest{}, false, ErrSelfRequest
	}

	var existing FriendRequest
	err := s.db.WithContext(ctx).
		Where("from_code = ? AND to_code = ? AND status = ?", request.FromCode, request.ToCode, StatusPending).
		Take(&existing).Error
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logError("friends.create", "duplicate_lookup_failed", err, zap.String("from_code", request.FromCode))
		return FriendRequest{}, false, err
	}

	created := FriendRequest{
		FromCode:  request.FromCode,
		FromName:  request.FromName,
		ToCode:    request.ToCode,
		Status:    StatusPending,
		CreatedAt: s.clock().UnixMilli(),
	}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		s.logError("friends.create", "insert_failed", err, zap.String("from_code", request.FromCode))
		return FriendRequest{}, false, err
	}

	return created, false, nil
}

// ListForCode returns the two slices an identity polls for: pending requests
// addressed to it, and requests it sent that were since accepted. Both are
// newest first and capped at ListLimit rows.
func (s *Service) ListForCode(ctx context.Context, code string) (incoming []FriendRequest, accepted []FriendRequest, err error) {
	if s.db == nil {
		return nil, nil, errMissingDatabase
	}
	if code == "" {
		return nil, nil, ErrMissingCode
	}

	if err := s.db.WithContext(ctx).
		Where("to_code = ? AND status = ?", code, StatusPending).
		Order("created_at DESC").
		Limit(ListLimit).
		Find(&incoming).Error; err != nil {
		s.logError("friends.list", "incoming_query_failed", err, zap.String("code", code))
		return nil, nil, err
	}

	if err := s.db.WithContext(ctx).
		Where("from_code = ? AND status = ?", code, StatusAccepted).
		Order("created_at DESC").
		Limit(ListLimit).
		Find(&accepted).Error; err != nil {
		s.logError("friends.list", "accepted_query_failed", err, zap.String("code", code))
		return nil, nil, err
	}

	return incoming, accepted, nil
}

// Resolve applies a terminal decision to a pending request. A non-empty
// responderCode must match the stored recipient; an empty responderCode skips
// the check, which mirrors the upstream contract (see DESIGN.md). Requests
// that already carry a terminal status are not re-resolvable.
func (s *Service) Resolve(ctx context.Context, id int64, status Status, responderCode string) (FriendRequest, error) {
	if s.db == nil {
		return FriendRequest{}, errMissingDatabase
	}
	if !status.Resolution() {
		return FriendRequest{}, ErrInvalidStatus
	}

	var stored FriendRequest
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return FriendRequest{}, ErrRequestNotFound
	}
	if err != nil {
		s.logError("friends.resolve", "lookup_failed", err, zap.Int64("request_id", id))
		return FriendRequest{}, err
	}

	if responderCode != "" && stored.ToCode != responderCode {
		return FriendRequest{}, ErrNotAuthorized
	}
	if stored.Status != StatusPending {
		return FriendRequest{}, ErrAlreadyResolved
	}

	if err := s.db.WithContext(ctx).
		Model(&FriendRequest{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		s.logError("friends.resolve", "update_failed", err, zap.Int64("request_id", id))
		return FriendRequest{}, err
	}

	stored.Status = status
	return stored, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("friend request service error", attrs...)
}
