package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

const batchSize = 500

type entryRow struct {
	FundCode  string    `gorm:"primaryKey;column:fund_code;type:char(6)"`
	Name      string    `gorm:"type:varchar(128)"`
	AddedAt   time.Time `gorm:"column:added_at"`
	SortOrder int       `gorm:"column:sort_order;index"`
	Category  string    `gorm:"type:varchar(64)"`
	TypeLabel string    `gorm:"column:type_label;type:varchar(64)"`
	TypeCode  string    `gorm:"column:type_code;type:varchar(8)"`
	Shares    float64
	Cost      float64
	Amount    float64
}

func (entryRow) TableName() string { return "watchlist" }

type navRow struct {
	FundCode    string  `gorm:"primaryKey;column:fund_code;type:char(6)"`
	Date        string  `gorm:"primaryKey;type:varchar(10)"`
	Nav         float64 `gorm:"type:decimal(20,4)"`
	AccNav      float64 `gorm:"column:acc_nav;type:decimal(20,4)"`
	DailyGrowth float64 `gorm:"column:daily_growth;type:decimal(20,4)"`
}

func (navRow) TableName() string { return "nav_history" }

type indexRow struct {
	Key           string `gorm:"primaryKey;column:index_key;type:varchar(32)"`
	Code          string `gorm:"type:varchar(32)"`
	Name          string `gorm:"type:varchar(64)"`
	Price         float64
	PrevClose     float64 `gorm:"column:prev_close"`
	Change        float64
	ChangePercent float64 `gorm:"column:change_percent"`
	UpdateTime    string  `gorm:"column:update_time;type:varchar(32)"`
	SavedAt       time.Time
}

func (indexRow) TableName() string { return "indices" }

// SQL is a gorm-backed Store.
type SQL struct {
	db *gorm.DB
}

// Open connects with driver ("sqlite", "mysql" or "postgres") and migrates the
// schema.
func Open(driver, dsn string) (*SQL, error) {
	var dial gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		dial = sqlite.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	case "postgres", "postgresql":
		dial = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	if strings.Contains(dsn, ":memory:") {
		// each pooled connection would see its own empty database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err := db.AutoMigrate(&entryRow{}, &navRow{}, &indexRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQL{db: db}, nil
}

func toEntry(r entryRow) types.WatchlistEntry {
	return types.WatchlistEntry{
		FundCode: r.FundCode, Name: r.Name, AddedAt: r.AddedAt, SortOrder: r.SortOrder,
		Category: r.Category, TypeLabel: r.TypeLabel, TypeCode: r.TypeCode,
		Shares: r.Shares, Cost: r.Cost, Amount: r.Amount,
	}
}

func fromEntry(e types.WatchlistEntry) entryRow {
	return entryRow{
		FundCode: e.FundCode, Name: e.Name, AddedAt: e.AddedAt, SortOrder: e.SortOrder,
		Category: e.Category, TypeLabel: e.TypeLabel, TypeCode: e.TypeCode,
		Shares: e.Shares, Cost: e.Cost, Amount: e.Amount,
	}
}

func fromNav(p types.NavPoint) navRow {
	return navRow{FundCode: p.FundCode, Date: p.Date, Nav: p.Nav, AccNav: p.AccNav, DailyGrowth: p.DailyGrowthPct}
}

func (s *SQL) Watchlist(ctx context.Context) ([]types.WatchlistEntry, error) {
	var rows []entryRow
	if err := s.db.WithContext(ctx).Order("sort_order asc, added_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.WatchlistEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, toEntry(r))
	}
	return out, nil
}

func (s *SQL) GetEntry(ctx context.Context, code string) (types.WatchlistEntry, error) {
	var r entryRow
	err := s.db.WithContext(ctx).Where("fund_code = ?", code).Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.WatchlistEntry{}, fmt.Errorf("%s: %w", code, ErrNotFound)
	}
	if err != nil {
		return types.WatchlistEntry{}, err
	}
	return toEntry(r), nil
}

func (s *SQL) UpsertEntry(ctx context.Context, e types.WatchlistEntry) error {
	if err := Validate(e); err != nil {
		return err
	}
	row := fromEntry(e)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fund_code"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (s *SQL) DeleteEntry(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Where("fund_code = ?", code).Delete(&entryRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", code, ErrNotFound)
	}
	return nil
}

var navConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "fund_code"}, {Name: "date"}},
	UpdateAll: true,
}

func (s *SQL) UpsertNav(ctx context.Context, p types.NavPoint) error {
	if err := Validate(p); err != nil {
		return err
	}
	row := fromNav(p)
	return s.db.WithContext(ctx).Clauses(navConflict).Create(&row).Error
}

func (s *SQL) BulkUpsertNav(ctx context.Context, pts []types.NavPoint) error {
	ok, bad := validPoints(pts)
	if len(bad) > 0 {
		logging.L().Warn("skipping invalid nav points", zap.Int("count", len(bad)), zap.Error(bad[0]))
	}
	if len(ok) == 0 {
		return nil
	}
	// one row per key within a batch, last wins
	seen := make(map[string]int, len(ok))
	rows := make([]navRow, 0, len(ok))
	for _, p := range ok {
		k := p.FundCode + "|" + p.Date
		if i, dup := seen[k]; dup {
			rows[i] = fromNav(p)
			continue
		}
		seen[k] = len(rows)
		rows = append(rows, fromNav(p))
	}
	return s.db.WithContext(ctx).Clauses(navConflict).CreateInBatches(rows, batchSize).Error
}

func (s *SQL) NavRange(ctx context.Context, code, from, to string) ([]types.NavPoint, error) {
	q := s.db.WithContext(ctx).Where("fund_code = ?", code)
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if to != "" {
		q = q.Where("date <= ?", to)
	}
	var rows []navRow
	if err := q.Order("date asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.NavPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.NavPoint{
			FundCode: r.FundCode, Date: r.Date, Nav: r.Nav, AccNav: r.AccNav, DailyGrowthPct: r.DailyGrowth,
		})
	}
	return out, nil
}

func (s *SQL) DeleteNav(ctx context.Context, code string) error {
	return s.db.WithContext(ctx).Where("fund_code = ?", code).Delete(&navRow{}).Error
}

func (s *SQL) SaveIndices(ctx context.Context, qs []types.Quote) error {
	if len(qs) == 0 {
		return nil
	}
	now := time.Now()
	seen := make(map[string]int, len(qs))
	rows := make([]indexRow, 0, len(qs))
	for _, q := range qs {
		r := indexRow{
			Key: q.Key(), Code: q.CanonicalCode, Name: q.Name,
			Price: q.Price, PrevClose: q.PrevClose, Change: q.Change, ChangePercent: q.ChangePercent,
			UpdateTime: q.UpdateTime, SavedAt: now,
		}
		if i, dup := seen[r.Key]; dup {
			rows[i] = r
			continue
		}
		seen[r.Key] = len(rows)
		rows = append(rows, r)
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "index_key"}},
		UpdateAll: true,
	}).Create(&rows).Error
}

func (s *SQL) Indices(ctx context.Context) ([]types.Quote, error) {
	var rows []indexRow
	if err := s.db.WithContext(ctx).Order("index_key asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.Quote, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Quote{
			Identifier: r.Key, CanonicalCode: r.Code, Name: r.Name,
			Price: r.Price, PrevClose: r.PrevClose, Change: r.Change, ChangePercent: r.ChangePercent,
			UpdateTime: r.UpdateTime,
		})
	}
	return out, nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
