package service

import (
	"context"
	"time"
	"trading-signals/config"
	"trading-signals/internal/apperrors"
	"trading-signals/internal/dto"
	"trading-signals/internal/model"
	"trading-signals/internal/parser"
	"trading-signals/internal/repository"
	"trading-signals/pkg/logger"
	"trading-signals/pkg/utils"

	"gorm.io/datatypes"
)

// SignalService matches canonical signals against the trade ledger. An entry
// opens a trade; an exit closes the symbol's open trade, fixes its PnL and
// extends the log of every batch that covers it. The whole step runs in one
// transaction.
type SignalService interface {
	Process(ctx context.Context, sig *parser.Signal) (*dto.SignalResult, error)
}

type signalService struct {
	cfg       *config.Config
	log       *logger.Logger
	tradeRepo repository.TradeRepository
	batchRepo repository.BatchRepository
	logEngine BatchLogEngine
	uow       repository.UnitOfWork
	now       func() time.Time
}

func NewSignalService(
	cfg *config.Config,
	log *logger.Logger,
	tradeRepo repository.TradeRepository,
	batchRepo repository.BatchRepository,
	logEngine BatchLogEngine,
	uow repository.UnitOfWork,
) SignalService {
	return &signalService{
		cfg:       cfg,
		log:       log,
		tradeRepo: tradeRepo,
		batchRepo: batchRepo,
		logEngine: logEngine,
		uow:       uow,
		now:       time.Now,
	}
}

func (s *signalService) Process(ctx context.Context, sig *parser.Signal) (*dto.SignalResult, error) {
	var result *dto.SignalResult

	err := s.uow.Run(func(opts ...utils.DBOption) error {
		// The row lock serializes two near-simultaneous signals for the same
		// symbol: the second matcher waits and sees the first one's outcome.
		open, err := s.tradeRepo.GetOpenBySymbol(ctx, sig.Symbol, append(opts, utils.WithLockForUpdate())...)
		if err != nil {
			return apperrors.NewStorageError("find open trade", err)
		}

		// An open trade is closed by anything that is not an explicit entry.
		// A signal declaring kind "entry" always opens a new trade; an "exit"
		// with nothing open still opens one, since there is nothing to close.
		if open != nil && sig.Kind != dto.SignalKindEntry {
			trade, err := s.closeTrade(ctx, open, sig, opts...)
			if err != nil {
				return err
			}
			if err := s.updateBatchLogs(ctx, trade, opts...); err != nil {
				return err
			}
			result = &dto.SignalResult{Action: dto.ActionExit, Trade: trade}
			return nil
		}

		trade, err := s.openTrade(ctx, sig, opts...)
		if err != nil {
			return err
		}
		result = &dto.SignalResult{Action: dto.ActionEntry, Trade: trade}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Processed signal",
		logger.StringField("symbol", sig.Symbol),
		logger.StringField("action", result.Action),
		logger.UintField("trade_id", result.Trade.ID),
	)
	return result, nil
}

func (s *signalService) openTrade(ctx context.Context, sig *parser.Signal, opts ...utils.DBOption) (*model.Trade, error) {
	direction := sig.Direction
	if direction == "" {
		direction = model.DirectionBullish
	}
	entryTime := s.now()
	if sig.Timestamp != nil {
		entryTime = *sig.Timestamp
	}

	trade := &model.Trade{
		Symbol:       sig.Symbol,
		Timeframe:    sig.Timeframe,
		Direction:    direction,
		Status:       model.TradeStatusOpen,
		EntryPrice:   sig.Price,
		EntryTime:    entryTime,
		EntryPayload: datatypes.JSON(sig.Payload),
	}
	if err := s.tradeRepo.Create(ctx, trade, opts...); err != nil {
		return nil, apperrors.NewStorageError("create trade", err)
	}
	return trade, nil
}

func (s *signalService) closeTrade(ctx context.Context, open *model.Trade, sig *parser.Signal, opts ...utils.DBOption) (*model.Trade, error) {
	exitTime := s.now()
	if sig.Timestamp != nil {
		exitTime = *sig.Timestamp
	}

	// PnL is measured against the open trade's stored direction, not whatever
	// the closing signal declares.
	pnl := PnlPercent(open.Direction, open.EntryPrice, sig.Price)

	open.Status = model.TradeStatusClosed
	open.ExitPrice = utils.ToPointer(sig.Price)
	open.ExitTime = &exitTime
	open.PnlPercent = &pnl
	open.ExitPayload = datatypes.JSON(sig.Payload)

	if err := s.tradeRepo.Update(ctx, open, opts...); err != nil {
		return nil, apperrors.NewStorageError("close trade", err)
	}
	return open, nil
}

func (s *signalService) updateBatchLogs(ctx context.Context, trade *model.Trade, opts ...utils.DBOption) error {
	batches, err := s.batchRepo.FindBySymbol(ctx, trade.Symbol, opts...)
	if err != nil {
		return apperrors.NewStorageError("find batches for symbol", err)
	}

	for i := range batches {
		if !batches[i].Covers(trade.Symbol, trade.EntryTime) {
			continue
		}
		if err := s.logEngine.Append(ctx, &batches[i], trade, opts...); err != nil {
			return err
		}
	}
	return nil
}

// PnlPercent computes the realized percentage move for a trade, rounded to 4
// decimal places. A bearish trade profits when price falls.
func PnlPercent(direction string, entryPrice, exitPrice float64) float64 {
	if entryPrice == 0 {
		return 0
	}
	var pnl float64
	if direction == model.DirectionBearish {
		pnl = (entryPrice - exitPrice) / entryPrice * 100
	} else {
		pnl = (exitPrice - entryPrice) / entryPrice * 100
	}
	return utils.RoundPercent(pnl)
}
