package resource

import (
	"io"

	"backdesk/bizerror"
	"backdesk/client/oss"
	"backdesk/common"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

type Resource struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	ProjectID types.ID `json:"projectId" gorm:"index:idx_resource_project"`

	Name        string `json:"name"`
	Category    string `json:"category"`
	ObjectKey   string `json:"objectKey"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ResourceCreation struct {
	ProjectID types.ID `json:"projectId" binding:"required"`

	Name        string `json:"name" binding:"required,lte=255"`
	Category    string `json:"category" binding:"lte=64"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type ResourceQuery struct {
	ProjectID types.ID `binding:"required" json:"projectId" form:"projectId"`
	Category  string   `json:"category" form:"category"`
}

var (
	resourceIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateResourceFunc   = CreateResource
	QueryResourcesFunc   = QueryResources
	DownloadResourceFunc = DownloadResource
	DeleteResourceFunc   = DeleteResource

	// IndexResourceFuncs are invoked after a resource row is stored; the
	// indices package registers the search indexing here.
	IndexResourceFuncs []func(r Resource, s *session.Session) error
)

func CreateResource(c ResourceCreation, content io.Reader, s *session.Session) (*Resource, error) {
	if !s.Perms.HasRoleSuffix("_" + c.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}

	r := Resource{ID: common.NextId(resourceIdWorker), ProjectID: c.ProjectID,
		Name: c.Name, Category: c.Category, ContentType: c.ContentType, Size: c.Size,
		CreatorID: s.Identity.ID, CreateTime: types.CurrentTimestamp()}
	r.ObjectKey = "resources/" + r.ID.String()

	if err := oss.PutObjectFunc(r.ObjectKey, content, s); err != nil {
		return nil, err
	}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&r).Error; err != nil {
		return nil, err
	}

	for _, f := range IndexResourceFuncs {
		if err := f(r, s); err != nil {
			common.Log.Warnf("failed to index resource %v: %v", r.ID, err)
		}
	}
	return &r, nil
}

func QueryResources(q ResourceQuery, s *session.Session) ([]Resource, error) {
	if !s.Perms.HasRoleSuffix("_" + q.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context).Order("ID ASC").Where("project_id = ?", q.ProjectID)
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	resources := []Resource{}
	if err := db.Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

func DownloadResource(id types.ID, s *session.Session) (io.ReadCloser, *Resource, error) {
	r, err := findResourceAndCheckPerms(id, s)
	if err != nil {
		return nil, nil, err
	}
	reader, err := oss.GetObjectFunc(r.ObjectKey, s)
	if err != nil {
		return nil, nil, err
	}
	return reader, r, nil
}

func DeleteResource(id types.ID, s *session.Session) error {
	r, err := findResourceAndCheckPerms(id, s)
	if err != nil {
		return err
	}
	// object blobs are retained; only the metadata row is removed
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Delete(Resource{}, "id = ?", r.ID).Error
}

func findResourceAndCheckPerms(id types.ID, s *session.Session) (*Resource, error) {
	var r Resource
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&Resource{ID: id}).First(&r).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, bizerror.NotFound("Resource with id %s not found", id.String())
		}
		return nil, err
	}
	if s == nil || !s.Perms.HasRoleSuffix("_"+r.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}
	return &r, nil
}
