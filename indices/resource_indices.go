package indices

import (
	"backdesk/client/es"
	"backdesk/domain/resource"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
)

var ResourceIndexName = "resources"

// ResourceDoc is the indexed projection of a resource row.
type ResourceDoc struct {
	ID types.ID `json:"id"`

	ProjectID types.ID `json:"projectId"`

	Name     string `json:"name"`
	Category string `json:"category"`

	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime"`
}

func Bootstrap() {
	resource.IndexResourceFuncs = append(resource.IndexResourceFuncs, IndexResource)
}

func IndexResource(r resource.Resource, s *session.Session) error {
	return es.IndexFunc(ResourceIndexName, r.ID, BuildResourceDoc(r), s)
}

func BuildResourceDoc(r resource.Resource) ResourceDoc {
	return ResourceDoc{ID: r.ID, ProjectID: r.ProjectID, Name: r.Name, Category: r.Category,
		ContentType: r.ContentType, Size: r.Size, CreatorID: r.CreatorID, CreateTime: r.CreateTime}
}

// ReindexResources rebuilds the whole resource index from the database.
func ReindexResources(s *session.Session) (int, error) {
	var records []resource.Resource
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Model(&resource.Resource{}).Order("ID ASC").Find(&records).Error; err != nil {
		return 0, err
	}

	indexed := 0
	for _, r := range records {
		if err := IndexResource(r, s); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}
