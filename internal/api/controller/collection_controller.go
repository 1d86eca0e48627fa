package controller

import (
	"errors"
	"time"

	"github.com/bassista/go_school/internal/cache"
	"github.com/bassista/go_school/internal/repository"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

var errInvalidLimit = errors.New("limit must be a non-negative integer")

// NewSubjectController serves the subjects collection in position order.
func NewSubjectController(store cache.CollectionStore[repository.Subject]) *CrudController[repository.Subject] {
	return &CrudController[repository.Subject]{
		Name:      repository.CollectionSubjects,
		Store:     store,
		Validator: NewStructValidator[repository.Subject](),
	}
}

// PublicationView is a publication as shown on the news page.
type PublicationView struct {
	repository.Publication
	PublishedAgo string `json:"publishedAgo"`
}

// NewPublicationController serves the publications collection, most recent first,
// each with a relative publication date. POST /publications/:id/like counts a like.
func NewPublicationController(store cache.CountedCollectionStore[repository.Publication]) *CrudController[repository.Publication] {
	cc := &CrudController[repository.Publication]{
		Name:          repository.CollectionPublications,
		Store:         store,
		Validator:     NewStructValidator[repository.Publication](),
		Counter:       store,
		CounterAction: "like",
	}
	cc.Present = func(items []repository.Publication) any {
		now := cc.clock()
		views := make([]PublicationView, len(items))
		for i, p := range items {
			views[i] = PublicationView{Publication: p, PublishedAgo: publishedAgo(p.CreatedAt, now)}
		}
		return views
	}
	return cc
}

// NewResourceController serves the resources collection; ?subject_id= narrows it to one subject.
// POST /resources/:id/download counts a download.
func NewResourceController(store cache.CountedCollectionStore[repository.Resource]) *CrudController[repository.Resource] {
	return &CrudController[repository.Resource]{
		Name:          repository.CollectionResources,
		Store:         store,
		Validator:     NewStructValidator[repository.Resource](),
		Counter:       store,
		CounterAction: "download",
		Filter: func(c *gin.Context) func([]repository.Resource) []repository.Resource {
			subjectID := c.Query("subject_id")
			if subjectID == "" {
				return nil
			}
			return func(items []repository.Resource) []repository.Resource {
				return repository.FilterResourcesBySubject(items, subjectID)
			}
		},
	}
}

func publishedAgo(createdAt, now time.Time) string {
	if createdAt.IsZero() {
		return ""
	}
	return humanize.RelTime(createdAt, now, "ago", "from now")
}
