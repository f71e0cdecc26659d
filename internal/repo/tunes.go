package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/toptunez/internal/models"
)

var sortColumns = map[string]string{
	"album":     "album",
	"artist":    "artist",
	"createdAt": "created_at",
	"score":     "score",
	"title":     "title",
}

// TuneQuery narrows a listing. A non-nil IDs restricts results to those ids.
type TuneQuery struct {
	Filter string
	IDs    []uuid.UUID
	Sort   string
	Offset int
	Limit  int
}

func (q TuneQuery) exact() bool {
	return q.Filter != "" || q.IDs != nil
}

func SortColumn(field string) (string, bool) {
	col, ok := sortColumns[field]
	return col, ok
}

func orderBy(spec string) (clause.OrderBy, error) {
	field, desc := strings.TrimPrefix(spec, "-"), strings.HasPrefix(spec, "-")
	col, ok := SortColumn(field)
	if !ok {
		return clause.OrderBy{}, fmt.Errorf("%q: %w", spec, ErrUnknownSort)
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: col}, Desc: desc},
		{Column: clause.Column{Name: "id"}, Desc: desc},
	}}, nil
}

func preloadVotes(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func (r *GormRepo) scoped(ctx context.Context, q TuneQuery) *gorm.DB {
	tx := r.DB.WithContext(ctx).Model(&models.Tune{})
	if q.IDs != nil {
		tx = tx.Where("id IN ?", q.IDs)
	}
	if q.Filter == "" {
		return tx
	}
	if r.isPostgres() {
		return tx.Where("search_vector @@ websearch_to_tsquery('simple', ?)", q.Filter)
	}
	like := "%" + strings.ToLower(q.Filter) + "%"
	return tx.Where("LOWER(title) LIKE ? OR LOWER(artist) LIKE ? OR LOWER(album) LIKE ?", like, like, like)
}

func (r *GormRepo) ListTunes(ctx context.Context, q TuneQuery) ([]models.Tune, error) {
	tunes := make([]models.Tune, 0, q.Limit)
	if q.IDs != nil && len(q.IDs) == 0 {
		return tunes, nil
	}

	order, err := orderBy(q.Sort)
	if err != nil {
		return nil, err
	}

	if err := r.scoped(ctx, q).
		Preload("Votes", preloadVotes).
		Clauses(order).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&tunes).Error; err != nil {
		return nil, err
	}
	return tunes, nil
}

// CountTunes counts exactly when the query is narrowed and falls back to the
// planner estimate for the whole table on PostgreSQL.
func (r *GormRepo) CountTunes(ctx context.Context, q TuneQuery) (int64, error) {
	if q.IDs != nil && len(q.IDs) == 0 {
		return 0, nil
	}

	if !q.exact() && r.isPostgres() {
		var estimate float64
		err := r.DB.WithContext(ctx).
			Raw("SELECT reltuples FROM pg_class WHERE oid = 'tunes'::regclass").
			Scan(&estimate).Error
		if err == nil && estimate > 0 {
			return int64(estimate), nil
		}
	}

	var total int64
	if err := r.scoped(ctx, q).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormRepo) GetTune(ctx context.Context, id uuid.UUID) (*models.Tune, error) {
	var tune models.Tune
	if err := r.DB.WithContext(ctx).
		Preload("Votes", preloadVotes).
		Where("id = ?", id).
		First(&tune).Error; err != nil {
		return nil, err
	}
	return &tune, nil
}

func (r *GormRepo) CreateTune(ctx context.Context, tune *models.Tune) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(tune).Error
}

// ApplyVote moves the score and records the vote in one transaction.
// It returns gorm.ErrRecordNotFound when the tune does not exist.
func (r *GormRepo) ApplyVote(ctx context.Context, tuneID uuid.UUID, vote *models.Vote) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Tune{}).
			Where("id = ?", tuneID).
			Update("score", gorm.Expr("score + ?", vote.Offset))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		vote.TuneID = tuneID
		return tx.Create(vote).Error
	})
}

func (r *GormRepo) DeleteAllTunes(ctx context.Context) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Tune{}).Error
	})
}
