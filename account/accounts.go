package account

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"backdesk/authority"
	"backdesk/bizerror"
	"backdesk/common"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateUserFunc = CreateUser
	QueryUsersFunc = QueryUsers
	UpdateUserFunc = UpdateUser
	LoadPermFunc   = LoadPerms
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

func QueryUsers(s *session.Session) (*[]UserInfo, error) {
	var users []UserInfo
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&User{}).Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func CreateUser(c *UserCreation, s *session.Session) (*UserInfo, error) {
	if !s.Perms.HasRole(SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	user := User{ID: common.NextId(userIdWorker), Name: c.Name, Nickname: c.Nickname, Secret: HashSha256(c.Secret)}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Save(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Nickname: user.Nickname}, nil
}

func UpdateUser(userId types.ID, c *UserUpdation, s *session.Session) error {
	if !s.Perms.HasRole(SystemAdminPermission.ID) && userId != s.Identity.ID {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		user := User{ID: userId}
		if err := tx.Where(&user).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update(&User{Nickname: c.Nickname}).Error; err != nil {
			return err
		}
		return nil
	})
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, s *session.Session) error {
	user := User{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Model(&User{}).Where(&User{ID: s.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).Scan(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return bizerror.ErrInvalidPassword
		}
		return err
	}

	return db.Model(&User{}).Where(&User{ID: s.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).
		Update(&User{Secret: HashSha256(u.NewSecret)}).Error
}

// LoadPerms builds the permission strings of a user: "system:admin" for the
// bootstrap administrator, plus "role_projectId" for every project membership.
func LoadPerms(userId types.ID) (authority.Permissions, authority.ProjectRoles) {
	db := persistence.ActiveDataSourceManager.GormDB(nil)

	perms := authority.Permissions{}
	projectRoles := authority.ProjectRoles{}

	user := User{}
	if err := db.Model(&User{}).Where(&User{ID: userId}).Scan(&user).Error; err == nil && user.Name == "admin" {
		perms = append(perms, SystemAdminPermission.ID)
	}

	var members []ProjectMember
	if err := db.Model(&ProjectMember{}).Where(&ProjectMember{MemberId: userId}).Find(&members).Error; err != nil {
		common.Log.Warnf("failed to load project members of user %v: %v", userId, err)
		return perms, projectRoles
	}
	for _, m := range members {
		perms = append(perms, m.Role+"_"+m.ProjectID.String())
		projectRoles = append(projectRoles, authority.ProjectRole{ProjectID: m.ProjectID, Role: m.Role})
	}
	return perms, projectRoles
}

// BootstrapInitialAdministrator creates the "admin" user when the user table
// is still empty. ADMIN_INITIAL_SECRET overrides the default secret.
func BootstrapInitialAdministrator() error {
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	count := 0
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	secret := os.Getenv("ADMIN_INITIAL_SECRET")
	if secret == "" {
		secret = "admin123"
	}
	admin := User{ID: common.NextId(userIdWorker), Name: "admin", Nickname: "Administrator", Secret: HashSha256(secret)}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	common.Log.Info("initial administrator created")
	return nil
}
