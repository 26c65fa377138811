package access

import (
	"net/http"

	"backdesk/bizerror"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathAccessControls = "/v1/access-controls"

func RegisterAccessControlsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAccessControls, middleWares...)
	g.GET("", handleQueryAccessControls)
	g.GET("project/:projectId/channel/:channelId", handleGetOrCreateDefault)
	g.POST("project/:projectId/channel/:channelId/createOrUpdate", handleCreateOrUpdate)
	g.DELETE("project/:projectId/channel/:channelId", handleDeleteAccessControl)
}

func parseMatrixKey(c *gin.Context) (types.ID, types.ID) {
	projectId, err := types.ParseID(c.Param("projectId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	channelId, err := types.ParseID(c.Param("channelId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	return projectId, channelId
}

func handleGetOrCreateDefault(c *gin.Context) {
	projectId, channelId := parseMatrixKey(c)
	record, err := GetOrCreateDefaultFunc(projectId, channelId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleCreateOrUpdate(c *gin.Context) {
	projectId, channelId := parseMatrixKey(c)
	updating := AccessControlUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateOrUpdateFunc(projectId, channelId, updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteAccessControl(c *gin.Context) {
	projectId, channelId := parseMatrixKey(c)
	if err := DeleteAccessControlConfigFunc(projectId, channelId, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleQueryAccessControls(c *gin.Context) {
	query := AccessControlQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := QueryAccessControlConfigsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}
