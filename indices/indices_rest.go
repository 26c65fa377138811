package indices

import (
	"net/http"
	"time"

	"backdesk/bizerror"
	"backdesk/common"
	"backdesk/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"golang.org/x/time/rate"
)

var (
	PathResourceSearch  = "/v1/resource-search"
	PathResourceIndices = "/v1/resource-indices"

	// full reindex is expensive, allow at most one request per 10 seconds
	reindexLimiter = rate.NewLimiter(rate.Every(10*time.Second), 1)
)

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathResourceSearch, middleWares...)
	g.GET("", handleSearchResources)

	i := r.Group(PathResourceIndices, middleWares...)
	i.POST("", handleReindexResources)
}

func handleSearchResources(c *gin.Context) {
	query := ResourceSearchQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := SearchResourcesFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleReindexResources(c *gin.Context) {
	if !reindexLimiter.Allow() {
		c.JSON(http.StatusTooManyRequests, &common.ErrorBody{Code: "common.too_many_requests", Message: "reindex is rate limited"})
		return
	}
	indexed, err := ReindexResources(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"indexed": indexed})
}
