package event

import (
	"net/http"

	"backdesk/bizerror"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathScheduleEvents = "/v1/schedule-events"

func RegisterScheduleEventsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathScheduleEvents, middleWares...)
	g.POST("", handleCreateScheduleEvent)
	g.GET("", handleQueryScheduleEvents)
	g.DELETE(":id", handleDeleteScheduleEvent)
}

func handleCreateScheduleEvent(c *gin.Context) {
	creation := ScheduleEventCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateScheduleEventFunc(creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleQueryScheduleEvents(c *gin.Context) {
	query := ScheduleEventQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := QueryScheduleEventsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteScheduleEvent(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteScheduleEventFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
