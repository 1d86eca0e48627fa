package controller

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/bassista/go_school/internal/cache"
	"github.com/bassista/go_school/internal/logger"
	"github.com/bassista/go_school/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CrudValidator defines the interface for validating a resource.
type CrudValidator[T any] interface {
	Validate(item T) error
}

// StructValidator validates items with their `validate` struct tags.
type StructValidator[T any] struct {
	validator *validator.Validate
}

func NewStructValidator[T any]() *StructValidator[T] {
	return &StructValidator[T]{validator: validator.New()}
}

func (v *StructValidator[T]) Validate(item T) error {
	return v.validator.Struct(item)
}

// CrudController provides generic list/create/delete handlers for a cached collection.
type CrudController[T repository.Item] struct {
	Name      string
	Store     cache.CollectionStore[T]
	Validator CrudValidator[T]

	// Filter, when it returns non-nil for the request, narrows the whole collection
	// before the limit is applied.
	Filter func(c *gin.Context) func([]T) []T
	// Present converts the items before they are written; nil writes them as is.
	Present func(items []T) any

	// Counter, with CounterAction, serves POST /<collection>/:id/<CounterAction>.
	Counter       cache.Counter
	CounterAction string

	now func() time.Time
}

// RegisterCrudRoutes registers the collection endpoints on the given router group.
// guards run before create and delete; reads and the counter stay public.
func (cc *CrudController[T]) RegisterCrudRoutes(rg *gin.RouterGroup, resource string, guards ...gin.HandlerFunc) {
	rg.GET("/"+resource, cc.GetAll)
	rg.POST("/"+resource, slices.Concat(guards, []gin.HandlerFunc{cc.Create})...)
	rg.DELETE("/"+resource+"/:id", slices.Concat(guards, []gin.HandlerFunc{cc.Delete})...)
	if cc.Counter != nil && cc.CounterAction != "" {
		rg.POST("/"+resource+"/:id/"+cc.CounterAction, cc.Increment)
	}
}

// GetAll handles GET /<collection>?limit=N&refresh=true.
// It always answers 200; an unreachable backend yields an empty or stale list.
func (cc *CrudController[T]) GetAll(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	refresh, err := queryBool(c, "refresh")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid refresh parameter"})
		return
	}
	logger.WithCollection("crud-controller", cc.Name).Debugf("GET limit=%d refresh=%t", limit, refresh)

	var items []T
	if narrow := cc.narrowing(c); narrow != nil {
		items = narrow(cc.Store.Get(c.Request.Context(), 0, refresh))
		if limit > 0 && limit < len(items) {
			items = items[:limit]
		}
	} else {
		items = cc.Store.Get(c.Request.Context(), limit, refresh)
	}

	if cc.Present != nil {
		c.JSON(http.StatusOK, cc.Present(items))
		return
	}
	c.JSON(http.StatusOK, items)
}

// Create handles POST /<collection>. Server-side fields (id, timestamps) are filled before validation.
func (cc *CrudController[T]) Create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if p, ok := any(&item).(repository.Preparer); ok {
		p.Prepare(cc.clock())
	}
	if cc.Validator != nil {
		if err := cc.Validator.Validate(item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res := cc.Store.Add(c.Request.Context(), item)
	writeResult(c, http.StatusCreated, res)
}

// Delete handles DELETE /<collection>/:id.
func (cc *CrudController[T]) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}
	res := cc.Store.Delete(c.Request.Context(), id)
	writeResult(c, http.StatusOK, res)
}

// Increment handles POST /<collection>/:id/<action>.
func (cc *CrudController[T]) Increment(c *gin.Context) {
	if cc.Counter == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	res := cc.Counter.Increment(c.Request.Context(), c.Param("id"))
	writeResult(c, http.StatusOK, res)
}

func (cc *CrudController[T]) narrowing(c *gin.Context) func([]T) []T {
	if cc.Filter == nil {
		return nil
	}
	return cc.Filter(c)
}

func (cc *CrudController[T]) clock() time.Time {
	if cc.now != nil {
		return cc.now()
	}
	return time.Now()
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind repository.ErrorKind) int {
	switch kind {
	case repository.KindNotFound:
		return http.StatusNotFound
	case repository.KindRemoteRejected:
		return http.StatusUnprocessableEntity
	case repository.KindRemoteUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeResult(c *gin.Context, okStatus int, res cache.Result) {
	if res.Success {
		c.JSON(okStatus, res)
		return
	}
	_ = c.Error(res.Err())
	c.JSON(StatusFor(res.Kind), res)
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errInvalidLimit
	}
	return n, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
