// Package report is the content store accessor: dated report records keyed
// by (type, date), with application-level upsert semantics.
package report

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/starboard-analytics/news-core/internal/models"
)

// ErrNotFound is returned when no report matches a lookup.
var ErrNotFound = errors.New("report not found")

// Service reads and writes report rows.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Upsert writes the report for (reportType, date). An existing row keeps its
// id and created timestamp; content and source are overwritten. The
// uniqueness of (type, date) is enforced here, not by the database.
func (s *Service) Upsert(ctx context.Context, reportType, date, content, source string) (*models.ReportModel, error) {
	var existing models.ReportModel
	err := s.db.WithContext(ctx).
		Where("type = ? AND date = ?", reportType, date).
		First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{"content": content, "source": source}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update report: %w", err)
		}
		existing.Content = content
		existing.Source = source
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := models.ReportModel{
			Type:    reportType,
			Date:    date,
			Content: content,
			Source:  source,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, fmt.Errorf("insert report: %w", err)
		}
		return &row, nil
	default:
		return nil, fmt.Errorf("lookup report: %w", err)
	}
}

// ByTypeAndDate returns the report for (reportType, date), or ErrNotFound.
func (s *Service) ByTypeAndDate(ctx context.Context, reportType, date string) (*models.ReportModel, error) {
	var row models.ReportModel
	err := s.db.WithContext(ctx).
		Where("type = ? AND date = ?", reportType, date).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Latest returns the most recent report of the given type, or ErrNotFound.
func (s *Service) Latest(ctx context.Context, reportType string) (*models.ReportModel, error) {
	var row models.ReportModel
	err := s.db.WithContext(ctx).
		Where("type = ?", reportType).
		Order("date DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Exists reports whether a report row exists for (reportType, date).
func (s *Service) Exists(ctx context.Context, reportType, date string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ReportModel{}).
		Where("type = ? AND date = ?", reportType, date).
		Count(&count).Error
	return count > 0, err
}
