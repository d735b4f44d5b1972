package quest

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("quest not found")
	ErrDuplicateDate = errors.New("a quest for this date already exists")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ForDate 返回指定日期的任务
func (r *Repository) ForDate(ctx context.Context, date string) (*DailyQuest, error) {
	var q DailyQuest
	err := r.db.WithContext(ctx).Where("quest_date = ?", date).Take(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取 %s 的每日任务: %w", date, err)
	}
	return &q, nil
}

// Create 写入新任务，同一日期已有任务时返回 ErrDuplicateDate
func (r *Repository) Create(ctx context.Context, q *DailyQuest) error {
	err := r.db.WithContext(ctx).Create(q).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateDate, q.Date)
	}
	if err != nil {
		return fmt.Errorf("无法创建每日任务: %w", err)
	}
	return nil
}

// Summaries 返回最近limit天的任务摘要，日期新的在前
func (r *Repository) Summaries(ctx context.Context, limit int) ([]string, error) {
	summaries := []string{}
	err := r.db.WithContext(ctx).Model(&DailyQuest{}).
		Order("quest_date DESC").
		Limit(limit).
		Pluck("quest_summary", &summaries).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取任务摘要: %w", err)
	}
	return summaries, nil
}
