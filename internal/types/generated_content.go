package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratedContent is one persisted generation result. Rows double as the
// content cache: lookups match on (user, source, kind) plus an exact params
// key, filtered by row age.
type GeneratedContent struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_generated_content_lookup" json:"user_id"`
	SourceID  string         `gorm:"column:source_id;not null;index:idx_generated_content_lookup" json:"source_id"`
	Kind      string         `gorm:"column:kind;not null;index:idx_generated_content_lookup" json:"kind"`
	ParamsKey string         `gorm:"column:params_key;not null" json:"params_key"`
	Params    datatypes.JSON `gorm:"type:jsonb;column:params" json:"params"`
	Payload   datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload"`
	Model     string         `gorm:"column:model" json:"model"`
	ItemCount int            `gorm:"column:item_count;not null" json:"item_count"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GeneratedContent) TableName() string {
	return "generated_content"
}

// GenerationRun records one orchestrated pipeline invocation for auditing:
// how the source was segmented, which chunks ran, and what came back.
type GenerationRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	SourceID       string         `gorm:"column:source_id;not null" json:"source_id"`
	Kind           string         `gorm:"column:kind;not null" json:"kind"`
	ChunkCount     int            `gorm:"column:chunk_count;not null" json:"chunk_count"`
	UnitsPlanned   int            `gorm:"column:units_planned;not null" json:"units_planned"`
	UnitsSucceeded int            `gorm:"column:units_succeeded;not null" json:"units_succeeded"`
	ItemsRequested int            `gorm:"column:items_requested;not null" json:"items_requested"`
	ItemsReturned  int            `gorm:"column:items_returned;not null" json:"items_returned"`
	CacheHit       bool           `gorm:"column:cache_hit;not null" json:"cache_hit"`
	Detail         datatypes.JSON `gorm:"type:jsonb;column:detail" json:"detail"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GenerationRun) TableName() string {
	return "generation_run"
}
