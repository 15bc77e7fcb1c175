package workshop

import (
	"context"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/i18n"
	"github.com/Fahmy112/Al-Rayan-Service/internal/inventory"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"

	"go.uber.org/zap"
)

const (
	EventRequestCreated = "request.created"
	EventRequestUpdated = "request.updated"
	EventRequestDeleted = "request.deleted"
	EventSpareCreated   = "spare.created"
	EventSpareUpdated   = "spare.updated"
	EventSpareDeleted   = "spare.deleted"
)

const DefaultLowStockThreshold = 5

// Publisher receives change events after a successful write.
type Publisher interface {
	Publish(eventType string, payload any)
}

type Options struct {
	LowStockThreshold int
	ShopName          string
	Location          *time.Location
	Now               func() time.Time
}

type Service struct {
	store      store.Store
	reconciler *inventory.Reconciler
	publisher  Publisher
	translator *i18n.Translator
	logger     *zap.Logger
	threshold  int
	shopName   string
	location   *time.Location
	now        func() time.Time
}

func New(st store.Store, translator *i18n.Translator, publisher Publisher, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = DefaultLowStockThreshold
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:      st,
		reconciler: inventory.NewReconciler(st, logger),
		publisher:  publisher,
		translator: translator,
		logger:     logger,
		threshold:  opts.LowStockThreshold,
		shopName:   opts.ShopName,
		location:   opts.Location,
		now:        opts.Now,
	}
}

func (s *Service) LowStockThreshold() int {
	return s.threshold
}

func (s *Service) Translator() *i18n.Translator {
	return s.translator
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) publish(eventType string, payload any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(eventType, payload)
}

// reconcile applies stock deltas and logs what could not be applied. Stock
// problems never fail the write that caused them.
func (s *Service) reconcile(ctx context.Context, requestID string, deltas map[inventory.PartKey]int) inventory.Result {
	if len(deltas) == 0 {
		return inventory.Result{}
	}
	result, err := s.reconciler.Apply(ctx, deltas)
	if err != nil {
		s.logger.Warn("inventory reconcile incomplete", zap.String("request_id", requestID), zap.Error(err))
	}
	if len(result.Missing) > 0 {
		s.logger.Info("request references unknown parts", zap.String("request_id", requestID), zap.Strings("parts", result.Missing))
	}
	return result
}
