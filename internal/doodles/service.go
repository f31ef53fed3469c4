package doodles

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InboxLimit caps the number of rows returned by Inbox. The inbox is a fixed
// "latest N" view; there is no pagination cursor.
const InboxLimit = 24

var (
	errMissingDatabase = errors.New("doodles: database handle is required")

	// ErrMissingFields indicates that toCode or dataUrl was absent or empty.
	ErrMissingFields = errors.New("doodles: missing toCode or dataUrl")
	// ErrMissingCode indicates that an inbox lookup was attempted without a code.
	ErrMissingCode = errors.New("doodles: missing code")

	noOpLogger = zap.NewNop()
)

// ServiceConfig describes the dependencies required by the doodle service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service stores and lists doodles.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the doodle service.
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

// Create validates the request, stamps the server-side creation time in
// integer milliseconds, and inserts one row. The assigned id is returned on
// the stored doodle.
func (s *Service) Create(ctx context.Context, request CreateRequest) (Doodle, error) {
	if s.db == nil {
		return Doodle{}, errMissingDatabase
	}
	if request.ToCode == "" || request.DataURL == "" {
		return Doodle{}, ErrMissingFields
	}

	doodle := Doodle{
		ToCode:    request.ToCode,
		FromCode:  request.FromCode,
		FromName:  request.FromName,
		DataURL:   request.DataURL,
		CreatedAt: s.clock().UnixMilli(),
	}

	if err := s.db.WithContext(ctx).Create(&doodle).Error; err != nil {
		s.logError("doodles.create", "insert_failed", err, zap.String("to_code", request.ToCode))
		return Doodle{}, err
	}

	return doodle, nil
}

// Inbox returns up to InboxLimit doodles addressed to the provided code,
// newest first. Ties on created_at break by surrogate key descending, i.e.
// by insertion order.
func (s *Service) Inbox(ctx context.Context, code string) ([]Doodle, error) {
	if s.db == nil {
		return nil, errMissingDatabase
	}
	if code == "" {
		return nil, ErrMissingCode
	}

	var items []Doodle
	if err := s.db.WithContext(ctx).
		Where("to_code = ?", code).
		Order("created_at DESC, id DESC").
		Limit(InboxLimit).
		Find(&items).Error; err != nil {
		s.logError("doodles.inbox", "query_failed", err, zap.String("to_code", code))
		return nil, err
	}

	return items, nil
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
	s.logger.Error("doodle service error", attrs...)
}
