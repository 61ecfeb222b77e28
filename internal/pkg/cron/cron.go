// Package cron runs the background subscription expiry sweep. Expiry is
// already enforced lazily on every read; the sweep only keeps the database
// honest for reporting queries that never go through the service layer.
package cron

import (
	"time"

	"go.uber.org/zap"
)

// Sweeper is anything that can expire overdue subscriptions in bulk.
type Sweeper interface {
	ExpireOverdue() (int64, error)
}

type Service struct {
	sweeper  Sweeper
	interval time.Duration
	stopChan chan struct{}
	logger   *zap.Logger
}

func NewService(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		sweeper:  sweeper,
		interval: interval,
		stopChan: make(chan struct{}),
		logger:   logger,
	}
}

func (s *Service) Start() {
	go s.run()
	s.logger.Info("cron service started", zap.Duration("interval", s.interval))
}

func (s *Service) Stop() {
	close(s.stopChan)
	s.logger.Info("cron service stopped")
}

func (s *Service) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if err := s.RunNow(); err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// RunNow executes one sweep immediately; the sweeper binary and tests use it
// directly.
func (s *Service) RunNow() error {
	_, err := s.sweeper.ExpireOverdue()
	return err
}
