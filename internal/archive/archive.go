package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/engine"
)

type MatchResult struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	WinnerName string         `gorm:"size:64"`
	EndedBy    string         `gorm:"size:32"`
	FinishedAt time.Time      `gorm:"index"`
	Players    []PlayerResult `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
}

type PlayerResult struct {
	ID                uint      `gorm:"primaryKey"`
	MatchID           uuid.UUID `gorm:"type:uuid;index"`
	Seat              int
	Name              string `gorm:"size:64"`
	Total             int
	Penalty           int
	CheatedCategories int
	Winner            bool
}

// Store writes finished matches. It is never read back into a live match.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.AutoMigrate(&MatchResult{}, &PlayerResult{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, final engine.State) error {
	result := NewMatchResult(final, time.Now().UTC())
	if err := s.db.WithContext(ctx).Create(&result).Error; err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func NewMatchResult(final engine.State, finishedAt time.Time) MatchResult {
	id := uuid.New()
	out := MatchResult{
		ID:         id,
		WinnerName: final.WinnerName,
		EndedBy:    string(final.EndedBy),
		FinishedAt: finishedAt,
		Players:    make([]PlayerResult, 0, len(final.Players)),
	}
	for i, p := range final.Players {
		cheated := 0
		for _, c := range p.Cheated {
			if c {
				cheated++
			}
		}
		out.Players = append(out.Players, PlayerResult{
			MatchID:           id,
			Seat:              i + 1,
			Name:              p.Name,
			Total:             p.Total,
			Penalty:           p.Penalty,
			CheatedCategories: cheated,
			Winner:            p.ID == final.WinnerID,
		})
	}
	return out
}
