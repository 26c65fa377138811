package resource

import (
	"io"
	"net/http"

	"backdesk/bizerror"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathResources = "/v1/resources"

func RegisterResourcesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathResources, middleWares...)
	g.POST("", handleUploadResource)
	g.GET("", handleQueryResources)
	g.GET(":id/content", handleDownloadResource)
	g.DELETE(":id", handleDeleteResource)
}

func handleUploadResource(c *gin.Context) {
	projectId, err := types.ParseID(c.PostForm("projectId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}
	creation := ResourceCreation{ProjectID: projectId, Name: name, Category: c.PostForm("category"),
		ContentType: fileHeader.Header.Get("Content-Type"), Size: fileHeader.Size}

	file, err := fileHeader.Open()
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	defer file.Close()

	record, err := CreateResourceFunc(creation, file, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleQueryResources(c *gin.Context) {
	query := ResourceQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := QueryResourcesFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDownloadResource(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	reader, record, err := DownloadResourceFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	defer reader.Close()

	c.Header("Content-Disposition", `attachment; filename="`+record.Name+`"`)
	c.Status(http.StatusOK)
	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		panic(err)
	}
}

func handleDeleteResource(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteResourceFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
