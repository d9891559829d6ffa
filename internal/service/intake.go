package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/database"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/repository"
)

// StockService handles warehouse intake and stock queries.
type StockService struct {
	stock *repository.StockRepository
	log   *logrus.Logger
}

// NewStockService creates a stock service.
func NewStockService(db *database.DB, log *logrus.Logger) *StockService {
	return &StockService{
		stock: repository.NewStockRepository(db.DB),
		log:   log,
	}
}

// ReceiveLot registers a delivered purchase lot and returns the stored item.
func (s *StockService) ReceiveLot(ctx context.Context, profile, grade string, lengthMm, quantity int, costPerMeter decimal.Decimal) (model.StockItem, error) {
	if profile == "" || grade == "" {
		return model.StockItem{}, errors.New("profile and grade are required")
	}
	if lengthMm <= 0 || quantity <= 0 {
		return model.StockItem{}, errors.New("length and quantity must be positive")
	}

	item := model.NewLot(profile, grade, lengthMm, quantity, costPerMeter)
	if err := s.stock.Create(ctx, nil, item); err != nil {
		return model.StockItem{}, err
	}

	s.log.WithFields(logrus.Fields{
		"lot":     item.ID,
		"profile": profile,
		"grade":   grade,
		"length":  lengthMm,
		"qty":     quantity,
	}).Info("received purchase lot")
	return item, nil
}

// List returns stock items matching the filter.
func (s *StockService) List(ctx context.Context, filter repository.StockFilter) ([]model.StockItem, error) {
	return s.stock.List(ctx, filter)
}

// ScrapRemnant writes off an available remnant. The row stays in the ledger
// with SCRAP status so past usage records keep their reference.
func (s *StockService) ScrapRemnant(ctx context.Context, id string) error {
	if err := s.stock.MarkScrap(ctx, id); err != nil {
		return err
	}
	s.log.WithField("remnant", id).Info("remnant scrapped")
	return nil
}
