package profilecache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// StoredProfile is the last profile created on this device.
type StoredProfile struct {
	ID                  uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayName         string    `gorm:"not null" json:"display_name"`
	LocalImageReference string    `gorm:"type:text" json:"local_image_reference"`
	RemoteImageURL      string    `gorm:"type:text" json:"remote_image_url"`
	CreatedAt           time.Time `gorm:"not null;index" json:"created_at"`
}

func (StoredProfile) TableName() string { return "profiles" }

// Store is append-then-read-latest: there is no update or delete.
type Store interface {
	InsertLatest(ctx context.Context, p *StoredProfile) error
	// GetLatest returns nil, nil when nothing has been stored yet.
	GetLatest(ctx context.Context) (*StoredProfile, error)
}

type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&StoredProfile{}); err != nil {
		return nil, fmt.Errorf("migrate profiles: %w", err)
	}
	return &GormStore{db: db, now: time.Now}, nil
}

func (s *GormStore) InsertLatest(ctx context.Context, p *StoredProfile) error {
	p.ID = 0
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *GormStore) GetLatest(ctx context.Context) (*StoredProfile, error) {
	var p StoredProfile
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest profile: %w", err)
	}
	return &p, nil
}

// MemoryStore keeps profiles for the lifetime of the process.
type MemoryStore struct {
	mu       sync.Mutex
	profiles []StoredProfile
	nextID   uint
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) InsertLatest(_ context.Context, p *StoredProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.profiles = append(s.profiles, *p)
	return nil
}

func (s *MemoryStore) GetLatest(_ context.Context) (*StoredProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.profiles) == 0 {
		return nil, nil
	}
	sorted := make([]StoredProfile, len(s.profiles))
	copy(sorted, s.profiles)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	latest := sorted[0]
	return &latest, nil
}
