package project

import (
	"time"

	"backdesk/account"
	"backdesk/bizerror"
	"backdesk/common"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

type Project struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Identifier string `json:"identifier" gorm:"unique_index:uni_project_identifier"`
	Name       string `json:"name" gorm:"unique_index:uni_project_name"`

	CreateTime time.Time `json:"createTime" sql:"type:DATETIME(3) NOT NULL"`
	Creator    types.ID  `json:"creator"`
}

type ProjectCreating struct {
	Name       string `json:"name" binding:"required,lte=60"`
	Identifier string `json:"identifier" binding:"required,lte=6,uppercase"`
}

type ProjectUpdating struct {
	Name string `json:"name" binding:"required,lte=60"`
}

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryProjectsFunc = QueryProjects
	CreateProjectFunc = CreateProject
	UpdateProjectFunc = UpdateProject
)

func QueryProjects(s *session.Session) (*[]Project, error) {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	var projects []Project
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Find(&projects).Error; err != nil {
		return nil, err
	}
	return &projects, nil
}

func CreateProject(c *ProjectCreating, s *session.Session) (*Project, error) {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	now := time.Now()
	p := Project{ID: common.NextId(idWorker), Name: c.Name, Identifier: c.Identifier, CreateTime: now, Creator: s.Identity.ID}
	m := account.ProjectMember{ProjectID: p.ID, MemberId: s.Identity.ID, Role: account.ProjectRoleManager, CreateTime: now}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func UpdateProject(id types.ID, d *ProjectUpdating, s *session.Session) error {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var project Project
		if err := tx.Where(Project{ID: id}).First(&project).Error; err != nil {
			return err
		}
		return tx.Model(&Project{ID: id}).Where(Project{ID: id}).Update(Project{Name: d.Name}).Error
	})
}

func QueryProjectNames(ids []types.ID) (map[types.ID]string, error) {
	if len(ids) == 0 {
		return map[types.ID]string{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	var records []Project
	if err := db.Model(&Project{}).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for _, r := range records {
		result[r.ID] = r.Name
	}
	return result, nil
}
