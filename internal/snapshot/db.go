package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/metadata"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
	"github.com/SlpAus/hotelier-ranking-backend/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 200

// hotelRow 是酒店表的行结构，不含派生的排名字段。
type hotelRow struct {
	ID          int64    `gorm:"primaryKey;autoIncrement:false"`
	Name        string   `gorm:"uniqueIndex;not null"`
	Address     string
	City        string   `gorm:"index;not null"`
	Type        string
	Phone       string
	Description string
	Features    []string `gorm:"serializer:json"`
	Rate        float64
	Location    float64
	Cleanliness float64
	Service     float64
	Value       float64
}

func (hotelRow) TableName() string { return "hotels" }

type reviewRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	Author      string `gorm:"index;not null"`
	Hotel       string `gorm:"index;not null"`
	Rate        float64
	Location    float64
	Cleanliness float64
	Service     float64
	Value       float64
	Date        time.Time
	Upvotes     []string `gorm:"serializer:json"`
}

func (reviewRow) TableName() string { return "reviews" }

type userRow struct {
	ID        int64   `gorm:"primaryKey;autoIncrement:false"`
	Username  string  `gorm:"uniqueIndex;not null"`
	Password  string  `gorm:"not null"`
	ReviewIDs []int64 `gorm:"serializer:json"`
}

func (userRow) TableName() string { return "users" }

// DBStore 通过gorm把快照写入关系数据库。评论与用户只增不删，因此每次导出都是按主键的整行覆盖写。
type DBStore struct {
	db *gorm.DB
}

// NewDBStore 创建数据库后端，并迁移所需的表。
func NewDBStore(db *gorm.DB) (*DBStore, error) {
	if err := db.AutoMigrate(&hotelRow{}, &reviewRow{}, &userRow{}); err != nil {
		return nil, fmt.Errorf("无法迁移快照表: %w", err)
	}
	if err := metadata.PrimeDB(db); err != nil {
		return nil, err
	}
	return &DBStore{db: db}, nil
}

// Export 在一个事务内写入全部行，并记录快照元数据。
func (d *DBStore) Export(ctx context.Context, snap store.Snapshot) (string, error) {
	hotels, reviews := toHotelRows(snap.Hotels)
	users := toUserRows(snap.Users)
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(hotels) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(hotels, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("写入酒店失败: %w", err)
			}
		}
		if len(reviews) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(reviews, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("写入评论失败: %w", err)
			}
		}
		if len(users) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(users, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("写入用户失败: %w", err)
			}
		}
		return metadata.RecordSnapshot(tx, metadata.SnapshotRecord{
			At:       time.Now(),
			Artifact: "db",
			Reviews:  countReviews(snap),
		})
	})
	if err != nil {
		return "", err
	}
	return "db", nil
}

// LoadLatest 读出全部行。酒店按ID排序，与目录生成顺序一致。
func (d *DBStore) LoadLatest(ctx context.Context) (store.Snapshot, bool, error) {
	db := d.db.WithContext(ctx)

	var hotels []hotelRow
	if err := db.Order("id").Find(&hotels).Error; err != nil {
		return store.Snapshot{}, false, fmt.Errorf("读取酒店失败: %w", err)
	}
	var reviews []reviewRow
	if err := db.Order("id").Find(&reviews).Error; err != nil {
		return store.Snapshot{}, false, fmt.Errorf("读取评论失败: %w", err)
	}
	var users []userRow
	if err := db.Order("id").Find(&users).Error; err != nil {
		return store.Snapshot{}, false, fmt.Errorf("读取用户失败: %w", err)
	}

	snap := store.Snapshot{
		Hotels: fromHotelRows(hotels, reviews),
		Users:  fromUserRows(users),
	}
	return snap, len(hotels) > 0, nil
}

func toHotelRows(snaps []hotel.Snapshot) ([]hotelRow, []reviewRow) {
	hotels := make([]hotelRow, 0, len(snaps))
	var reviews []reviewRow
	for _, s := range snaps {
		h := s.Hotel
		hotels = append(hotels, hotelRow{
			ID:          h.ID,
			Name:        h.Name,
			Address:     h.Address,
			City:        h.City,
			Type:        h.Type,
			Phone:       h.Phone,
			Description: h.Description,
			Features:    h.Features,
			Rate:        h.Rate,
			Location:    h.Ratings.Location,
			Cleanliness: h.Ratings.Cleanliness,
			Service:     h.Ratings.Service,
			Value:       h.Ratings.Value,
		})
		for _, r := range s.Reviews {
			reviews = append(reviews, reviewRow{
				ID:          r.ID,
				Author:      r.Author,
				Hotel:       r.Hotel,
				Rate:        r.Rate,
				Location:    r.Ratings[0],
				Cleanliness: r.Ratings[1],
				Service:     r.Ratings[2],
				Value:       r.Ratings[3],
				Date:        r.Date,
				Upvotes:     r.Upvotes,
			})
		}
	}
	return hotels, reviews
}

func fromHotelRows(rows []hotelRow, reviews []reviewRow) []hotel.Snapshot {
	byHotel := make(map[string][]review.Review)
	for _, r := range reviews {
		byHotel[r.Hotel] = append(byHotel[r.Hotel], review.Review{
			ID:      r.ID,
			Author:  r.Author,
			Hotel:   r.Hotel,
			Rate:    r.Rate,
			Ratings: review.Scores{r.Location, r.Cleanliness, r.Service, r.Value},
			Date:    r.Date,
			Upvotes: r.Upvotes,
		})
	}

	out := make([]hotel.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, hotel.Snapshot{
			Hotel: hotel.Hotel{
				ID:          row.ID,
				Name:        row.Name,
				Address:     row.Address,
				City:        row.City,
				Type:        row.Type,
				Phone:       row.Phone,
				Description: row.Description,
				Features:    row.Features,
				Rate:        row.Rate,
				Ratings: hotel.Ratings{
					Location:    row.Location,
					Cleanliness: row.Cleanliness,
					Service:     row.Service,
					Value:       row.Value,
				},
			},
			Reviews: byHotel[row.Name],
		})
	}
	return out
}

func toUserRows(users []user.User) []userRow {
	out := make([]userRow, 0, len(users))
	for _, u := range users {
		out = append(out, userRow{ID: u.ID, Username: u.Username, Password: u.Password, ReviewIDs: u.ReviewIDs})
	}
	return out
}

func fromUserRows(rows []userRow) []user.User {
	out := make([]user.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, user.User{ID: r.ID, Username: r.Username, Password: r.Password, ReviewIDs: r.ReviewIDs})
	}
	return out
}
