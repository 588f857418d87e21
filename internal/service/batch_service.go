package service

import (
	"context"
	"strings"
	"time"
	"trading-signals/config"
	"trading-signals/internal/apperrors"
	"trading-signals/internal/dto"
	"trading-signals/internal/model"
	"trading-signals/internal/repository"
	"trading-signals/pkg/logger"
	"trading-signals/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// BatchService owns batch definitions and membership. Any edit that changes
// which trades a batch covers, or its capital baseline, rebuilds the batch's
// log inside the same transaction before returning.
type BatchService interface {
	Create(ctx context.Context, req dto.CreateBatchRequest) (*model.Batch, error)
	Update(ctx context.Context, id uint, req dto.UpdateBatchRequest) (*model.Batch, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*model.Batch, error)
	List(ctx context.Context) ([]model.Batch, error)
	ReplaceSymbols(ctx context.Context, id uint, symbols []string) (*model.Batch, error)
	AddSymbol(ctx context.Context, id uint, symbol string) (*model.Batch, error)
	RemoveSymbol(ctx context.Context, id uint, symbol string) (*model.Batch, error)
	Rebuild(ctx context.Context, id uint) error
	RebuildAll(ctx context.Context) error
}

type batchService struct {
	cfg       *config.Config
	log       *logger.Logger
	batchRepo repository.BatchRepository
	logEngine BatchLogEngine
	uow       repository.UnitOfWork
}

func NewBatchService(
	cfg *config.Config,
	log *logger.Logger,
	batchRepo repository.BatchRepository,
	logEngine BatchLogEngine,
	uow repository.UnitOfWork,
) BatchService {
	return &batchService{
		cfg:       cfg,
		log:       log,
		batchRepo: batchRepo,
		logEngine: logEngine,
		uow:       uow,
	}
}

func (s *batchService) Create(ctx context.Context, req dto.CreateBatchRequest) (*model.Batch, error) {
	capital := s.cfg.Batch.DefaultCapital
	if req.Capital != nil {
		capital = *req.Capital
	}

	startTime, err := parseStartTime(req.StartTime)
	if err != nil {
		return nil, err
	}

	batch := &model.Batch{
		Name:      req.Name,
		Capital:   capital,
		StartTime: startTime,
	}
	for _, symbol := range normalizeSymbols(req.Symbols) {
		batch.Symbols = append(batch.Symbols, model.BatchSymbol{Symbol: symbol})
	}

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		if err := s.batchRepo.Create(ctx, batch, opts...); err != nil {
			return apperrors.NewStorageError("create batch", err)
		}
		return s.logEngine.Rebuild(ctx, batch, opts...)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Created batch",
		logger.UintField("batch_id", batch.ID),
		logger.StringField("name", batch.Name),
	)
	return batch, nil
}

func (s *batchService) Update(ctx context.Context, id uint, req dto.UpdateBatchRequest) (*model.Batch, error) {
	var batch *model.Batch

	err := s.uow.Run(func(opts ...utils.DBOption) error {
		var err error
		batch, err = s.mustFind(ctx, id, opts...)
		if err != nil {
			return err
		}

		needsRebuild := false
		if req.Name != nil {
			batch.Name = *req.Name
		}
		if req.Capital != nil {
			batch.Capital = *req.Capital
			needsRebuild = true
		}
		if req.StartTime != nil {
			startTime, err := parseStartTime(req.StartTime)
			if err != nil {
				return err
			}
			batch.StartTime = startTime
			needsRebuild = true
		}

		if err := s.batchRepo.Update(ctx, batch, opts...); err != nil {
			return apperrors.NewStorageError("update batch", err)
		}
		if !needsRebuild {
			return nil
		}
		return s.logEngine.Rebuild(ctx, batch, opts...)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *batchService) Delete(ctx context.Context, id uint) error {
	return s.uow.Run(func(opts ...utils.DBOption) error {
		if _, err := s.mustFind(ctx, id, opts...); err != nil {
			return err
		}
		if err := s.batchRepo.Delete(ctx, id, opts...); err != nil {
			return apperrors.NewStorageError("delete batch", err)
		}
		return nil
	})
}

func (s *batchService) Get(ctx context.Context, id uint) (*model.Batch, error) {
	return s.mustFind(ctx, id)
}

func (s *batchService) List(ctx context.Context) ([]model.Batch, error) {
	batches, err := s.batchRepo.List(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("list batches", err)
	}
	return batches, nil
}

func (s *batchService) ReplaceSymbols(ctx context.Context, id uint, symbols []string) (*model.Batch, error) {
	return s.mutateSymbols(ctx, id, func(opts ...utils.DBOption) error {
		return s.batchRepo.ReplaceSymbols(ctx, id, normalizeSymbols(symbols), opts...)
	})
}

func (s *batchService) AddSymbol(ctx context.Context, id uint, symbol string) (*model.Batch, error) {
	normalized := normalizeSymbols([]string{symbol})
	if len(normalized) == 0 {
		return nil, apperrors.NewValidationError("symbol is required")
	}
	return s.mutateSymbols(ctx, id, func(opts ...utils.DBOption) error {
		return s.batchRepo.AddSymbol(ctx, id, normalized[0], opts...)
	})
}

func (s *batchService) RemoveSymbol(ctx context.Context, id uint, symbol string) (*model.Batch, error) {
	normalized := normalizeSymbols([]string{symbol})
	if len(normalized) == 0 {
		return nil, apperrors.NewValidationError("symbol is required")
	}
	return s.mutateSymbols(ctx, id, func(opts ...utils.DBOption) error {
		return s.batchRepo.RemoveSymbol(ctx, id, normalized[0], opts...)
	})
}

// mutateSymbols wraps a membership edit with the lookup before it and the
// rebuild after it, all in one transaction.
func (s *batchService) mutateSymbols(ctx context.Context, id uint, mutate func(opts ...utils.DBOption) error) (*model.Batch, error) {
	var batch *model.Batch

	err := s.uow.Run(func(opts ...utils.DBOption) error {
		if _, err := s.mustFind(ctx, id, opts...); err != nil {
			return err
		}
		if err := mutate(opts...); err != nil {
			return apperrors.NewStorageError("update batch symbols", err)
		}

		// Reload so the rebuild sees the membership as just written.
		var err error
		batch, err = s.mustFind(ctx, id, opts...)
		if err != nil {
			return err
		}
		return s.logEngine.Rebuild(ctx, batch, opts...)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *batchService) Rebuild(ctx context.Context, id uint) error {
	return s.uow.Run(func(opts ...utils.DBOption) error {
		batch, err := s.mustFind(ctx, id, opts...)
		if err != nil {
			return err
		}
		return s.logEngine.Rebuild(ctx, batch, opts...)
	})
}

// RebuildAll replays every batch, each in its own transaction. Batches are
// independent, so they rebuild concurrently.
func (s *batchService) RebuildAll(ctx context.Context) error {
	batches, err := s.List(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range batches {
		batch := batches[i]
		g.Go(func() error {
			return s.uow.Run(func(opts ...utils.DBOption) error {
				return s.logEngine.Rebuild(gctx, &batch, opts...)
			})
		})
	}
	return g.Wait()
}

func (s *batchService) mustFind(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Batch, error) {
	batch, err := s.batchRepo.FindByID(ctx, id, opts...)
	if err != nil {
		return nil, apperrors.NewStorageError("find batch", err)
	}
	if batch == nil {
		return nil, apperrors.NewNotFoundError("batch", id)
	}
	return batch, nil
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(s))
		if symbol == "" {
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		normalized = append(normalized, symbol)
	}
	return normalized
}

func parseStartTime(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(*value)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.NewValidationError("start_time is not ISO-8601")
	}
	return &ts, nil
}
