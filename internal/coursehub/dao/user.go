package dao

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	Email     string `json:"email" gorm:"uniqueIndex"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	IsSuperuser bool `json:"is_superuser"`
	IsActive    bool `json:"is_active" gorm:"default:true"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsNil() {
		u.ID = GenUUID()
	}
	return nil
}

// Course - курс автора, описание курса хранится в документе.
type Course struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Title       string    `json:"title"`
	CreatedById uuid.UUID `json:"created_by" gorm:"type:uuid;index"`
	Author      *User     `json:"author_detail,omitempty" gorm:"foreignKey:CreatedById"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Course) TableName() string { return "courses" }

// Event - мероприятие, редактировать его описание может только ведущий.
type Event struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Title     string    `json:"title"`
	HostId    uuid.UUID `json:"host" gorm:"type:uuid;index"`
	Host      *User     `json:"host_detail,omitempty" gorm:"foreignKey:HostId"`
	StartsAt  time.Time `json:"starts_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Event) TableName() string { return "events" }

type EmailTemplate struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	CreatedById uuid.UUID `json:"created_by" gorm:"type:uuid;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (EmailTemplate) TableName() string { return "email_templates" }
