package account

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type User struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Name     string `json:"name" gorm:"unique_index:uni_user_name"`
	Secret   string `json:"-"`
	Nickname string `json:"nickname"`
}

type UserInfo struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (u *UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

type UserCreation struct {
	Name     string `json:"name" binding:"required,lte=32"`
	Nickname string `json:"nickname" binding:"lte=32"`
	Secret   string `json:"secret" binding:"required,gte=6,lte=32"`
}

type UserUpdation struct {
	Nickname string `json:"nickname" binding:"required,lte=32"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret" binding:"required"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=32"`
}

// ProjectMember binds a user to a project with a named role; the role and
// project id join into the "role_projectId" permission string.
type ProjectMember struct {
	ProjectID types.ID `json:"projectId" gorm:"unique_index:uni_project_member"`
	MemberId  types.ID `json:"memberId" gorm:"unique_index:uni_project_member"`
	Role      string   `json:"role"`

	CreateTime time.Time `json:"createTime" sql:"type:DATETIME(3) NOT NULL"`
}

const ProjectRoleManager = "manager"
const ProjectRoleCommon = "common"

type Permission struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

var SystemAdminPermission = Permission{ID: "system:admin", Title: "System Administrator"}
