package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection names, shared by the cache, the API and the database tables.
const (
	CollectionSubjects     = "subjects"
	CollectionPublications = "publications"
	CollectionResources    = "resources"
)

// Item is a record of a collection. The id is unique within its collection.
type Item interface {
	ItemID() string
}

// Preparer is implemented by items that fill server-side fields before insert.
type Preparer interface {
	Prepare(now time.Time)
}

// Subject is a school subject, listed by its explicit position.
type Subject struct {
	ID    string   `json:"id" gorm:"primaryKey"`
	Name  string   `json:"name" validate:"required,max=120" gorm:"not null"`
	Grade string   `json:"grade,omitempty" validate:"max=60"`
	Icon  string   `json:"icon,omitempty"`
	Color string   `json:"color,omitempty"`
	Tags  []string `json:"tags,omitempty" validate:"max=10,dive,max=30" gorm:"type:text;serializer:json"`
	Order int      `json:"order" validate:"min=0" gorm:"column:position;index"`
}

func (Subject) TableName() string { return CollectionSubjects }

func (s Subject) ItemID() string { return s.ID }

func (s *Subject) Prepare(_ time.Time) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Icon == "" {
		s.Icon = "📚"
	}
	if s.Color == "" {
		s.Color = "bg-blue-600"
	}
}

// Publication is a news post, listed most recent first.
type Publication struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" validate:"required,max=200" gorm:"not null"`
	Content   string    `json:"content" validate:"required" gorm:"type:text;not null"`
	ImageURL  string    `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Author    string    `json:"author,omitempty" validate:"max=120"`
	Likes     int       `json:"likes" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

func (Publication) TableName() string { return CollectionPublications }

func (p Publication) ItemID() string { return p.ID }

func (p *Publication) Prepare(now time.Time) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Author == "" {
		p.Author = "Colegio"
	}
	p.Likes = 0
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.CreatedAt = p.CreatedAt.UTC()
}

// BeforeSave stores timestamps in UTC; sqlite compares them as text.
func (p *Publication) BeforeSave(*gorm.DB) error {
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

// Resource is a learning resource attached to a subject, listed most recent first.
type Resource struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	SubjectID   string    `json:"subjectId" validate:"required" gorm:"index;not null"`
	Title       string    `json:"title" validate:"required,max=200" gorm:"not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	URL         string    `json:"url" validate:"required,url" gorm:"not null"`
	Kind        string    `json:"kind" validate:"omitempty,oneof=document video link image"`
	Downloads   int       `json:"downloads" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
}

func (Resource) TableName() string { return CollectionResources }

func (r Resource) ItemID() string { return r.ID }

func (r *Resource) Prepare(now time.Time) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Kind == "" {
		r.Kind = "link"
	}
	r.Downloads = 0
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.CreatedAt = r.CreatedAt.UTC()
}

func (r *Resource) BeforeSave(*gorm.DB) error {
	r.CreatedAt = r.CreatedAt.UTC()
	return nil
}

// FilterResourcesBySubject keeps the resources of one subject, preserving order.
func FilterResourcesBySubject(resources []Resource, subjectID string) []Resource {
	out := make([]Resource, 0, len(resources))
	for _, r := range resources {
		if r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	return out
}
