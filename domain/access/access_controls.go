package access

import (
	"context"
	"fmt"
	"time"

	"backdesk/bizerror"
	"backdesk/common"
	"backdesk/domain/module"
	"backdesk/domain/role"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	accessIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	GetOrCreateDefaultFunc        = GetOrCreateDefault
	CreateOrUpdateFunc            = CreateOrUpdate
	DeleteAccessControlConfigFunc = DeleteAccessControlConfig
	QueryAccessControlConfigsFunc = QueryAccessControlConfigs
)

// GetOrCreateDefault returns the matrix of a (project, channel) pair,
// creating it lazily on first use and reconciling it with the current
// module/role catalogs otherwise. New modules and roles always appear with
// status=false; stored grants are never overwritten. The operation is
// idempotent: with stable catalogs a second call yields an identical matrix.
func GetOrCreateDefault(projectId, channelId types.ID, s *session.Session) (*AccessControlDetail, error) {
	if !s.Perms.HasRoleSuffix("_" + projectId.String()) {
		return nil, bizerror.ErrForbidden
	}

	roles, err := role.ListActiveRolesForChannelFunc(channelId)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		// a matrix with zero columns is meaningless
		return nil, bizerror.NotFound("No active roles found for the channel")
	}

	existing, err := FindAccessControlConfig(projectId, channelId, s.Context)
	if err != nil {
		return nil, err
	}

	var matrix ModuleConfigs
	moduleIndex := map[types.ID]module.Module{}
	if existing == nil {
		modules, err := module.ListActiveModulesFunc()
		if err != nil {
			return nil, err
		}
		if len(modules) == 0 {
			return nil, bizerror.NotFound("No active modules found")
		}
		for _, m := range modules {
			moduleIndex[m.ID] = m
		}
		matrix = BuildDefaultMatrix(modules, roles)
	} else {
		// a stored reference to a vanished module is a fatal data-integrity
		// condition, not something to drop silently
		for _, mc := range existing.ModuleConfigs {
			m, err := module.FindModuleByIdFunc(mc.ModuleID)
			if err != nil {
				return nil, err
			}
			moduleIndex[m.ID] = *m
		}
		// modules activated since the matrix was created appear as new rows
		modules, err := module.ListActiveModulesFunc()
		if err != nil {
			return nil, err
		}
		for _, m := range modules {
			moduleIndex[m.ID] = m
		}
		matrix = ReconcileMatrix(existing.ModuleConfigs, modules, roles)
	}

	saved, err := SaveAccessControlConfig(projectId, channelId, matrix, s.Context)
	if err != nil {
		return nil, err
	}
	return BuildAccessControlDetail(saved, moduleIndex)
}

// CreateOrUpdate replaces the whole matrix of a (project, channel) pair with
// the caller-supplied one. Every referenced module is resolved before any
// write, so an unknown module leaves the stored matrix untouched. Role ids
// are taken as given; validating them is the caller's responsibility.
func CreateOrUpdate(projectId, channelId types.ID, u AccessControlUpdating, s *session.Session) (*AccessControlDetail, error) {
	if !s.Perms.HasRoleSuffix("_" + projectId.String()) {
		return nil, bizerror.ErrForbidden
	}
	if err := checkMatrixShape(u.ModuleConfigs); err != nil {
		return nil, err
	}

	moduleIndex := map[types.ID]module.Module{}
	for _, mc := range u.ModuleConfigs {
		m, err := module.FindModuleByIdFunc(mc.ModuleID)
		if err != nil {
			return nil, err
		}
		moduleIndex[m.ID] = *m
	}

	saved, err := SaveAccessControlConfig(projectId, channelId, AssembleMatrix(u.ModuleConfigs), s.Context)
	if err != nil {
		return nil, err
	}
	return BuildAccessControlDetail(saved, moduleIndex)
}

func checkMatrixShape(changes []ModuleConfigChange) error {
	seenModules := map[uint64]bool{}
	for _, mc := range changes {
		if seenModules[uint64(mc.ModuleID)] {
			return &bizerror.ErrBadParam{Cause: fmt.Errorf("duplicated module %s in module configs", mc.ModuleID.String())}
		}
		seenModules[uint64(mc.ModuleID)] = true

		seenRoles := map[uint64]bool{}
		for _, a := range mc.RolesAssigned {
			if seenRoles[uint64(a.RoleID)] {
				return &bizerror.ErrBadParam{Cause: fmt.Errorf("duplicated role %s in module %s", a.RoleID.String(), mc.ModuleID.String())}
			}
			seenRoles[uint64(a.RoleID)] = true
		}
	}
	return nil
}

// BuildAccessControlDetail projects a stored config into the read model,
// attaching advisory display names resolved from the catalogs.
func BuildAccessControlDetail(c *AccessControlConfig, moduleIndex map[types.ID]module.Module) (*AccessControlDetail, error) {
	roleIds := make([]types.ID, 0, 10)
	seen := map[uint64]bool{}
	for _, mc := range c.ModuleConfigs {
		for _, rc := range mc.RoleConfigs {
			if !seen[uint64(rc.RoleID)] {
				seen[uint64(rc.RoleID)] = true
				roleIds = append(roleIds, rc.RoleID)
			}
		}
	}
	roleNames, err := role.QueryRoleNames(roleIds)
	if err != nil {
		return nil, err
	}

	detail := AccessControlDetail{ID: c.ID, ProjectID: c.ProjectID, ChannelID: c.ChannelID,
		CreateTime: c.CreateTime, UpdateTime: c.UpdateTime}
	for _, mc := range c.ModuleConfigs {
		mcDetail := ModuleConfigDetail{ModuleID: mc.ModuleID}
		if m, found := moduleIndex[mc.ModuleID]; found {
			mcDetail.ModuleName = m.Name
			mcDetail.ModuleCode = m.Code
		}
		for _, rc := range mc.RoleConfigs {
			mcDetail.RoleConfigs = append(mcDetail.RoleConfigs,
				RoleConfigDetail{RoleID: rc.RoleID, RoleName: roleNames[rc.RoleID], Status: rc.Status})
		}
		detail.ModuleConfigs = append(detail.ModuleConfigs, mcDetail)
	}
	return &detail, nil
}

// FindAccessControlConfig looks up the non-deleted config of a key, returning
// nil when absent.
func FindAccessControlConfig(projectId, channelId types.ID, ctx context.Context) (*AccessControlConfig, error) {
	var r AccessControlConfig
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	err := db.Where("project_id = ? AND channel_id = ? AND is_deleted = ?", projectId, channelId, false).First(&r).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// SaveAccessControlConfig replaces the whole document of a key in one atomic
// upsert. Concurrent first creations on the same key resolve to a single
// winning row through the unique index. A previously soft-deleted row is
// revived with the new document.
func SaveAccessControlConfig(projectId, channelId types.ID, matrix ModuleConfigs, ctx context.Context) (*AccessControlConfig, error) {
	doc, err := matrix.Value()
	if err != nil {
		return nil, err
	}
	now := types.CurrentTimestamp().Time()

	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	err = db.Exec("INSERT INTO access_control_configs"+
		" (id, project_id, channel_id, module_configs, is_deleted, deleted_at, create_time, update_time)"+
		" VALUES (?, ?, ?, ?, FALSE, NULL, ?, ?)"+
		" ON DUPLICATE KEY UPDATE module_configs = VALUES(module_configs), is_deleted = FALSE,"+
		" deleted_at = NULL, update_time = VALUES(update_time)",
		common.NextId(accessIdWorker), projectId, channelId, doc, now, now).Error
	if err != nil {
		return nil, err
	}

	saved, err := FindAccessControlConfig(projectId, channelId, ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, bizerror.NotFound("Access control config for project %s and channel %s not found",
			projectId.String(), channelId.String())
	}
	return saved, nil
}

// DeleteAccessControlConfig soft-deletes the config of a key; the row is
// excluded from subsequent lookups but never hard-deleted.
func DeleteAccessControlConfig(projectId, channelId types.ID, s *session.Session) error {
	if !s.Perms.HasRoleSuffix("_" + projectId.String()) {
		return bizerror.ErrForbidden
	}

	now := time.Now()
	db := persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&AccessControlConfig{}).
		Where("project_id = ? AND channel_id = ? AND is_deleted = ?", projectId, channelId, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now})
	if db.Error != nil {
		return db.Error
	}
	if db.RowsAffected == 0 {
		return bizerror.NotFound("Access control config for project %s and channel %s not found",
			projectId.String(), channelId.String())
	}
	return nil
}

// QueryAccessControlConfigs is the administrative listing over non-deleted
// configs, not part of the reconciliation algorithms. The listing never
// crosses tenant boundaries: an explicit project filter needs view permission
// on that project, an unfiltered listing is narrowed to the caller's visible
// projects unless the caller holds a global view role.
func QueryAccessControlConfigs(q AccessControlQuery, s *session.Session) (*AccessControlPage, error) {
	if q.ProjectID != 0 && !s.Perms.HasProjectViewPerm(q.ProjectID) {
		return nil, bizerror.ErrForbidden
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 500 {
		q.Limit = 10
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&AccessControlConfig{}).
		Where("is_deleted = ?", false)
	if q.ProjectID != 0 {
		db = db.Where("project_id = ?", q.ProjectID)
	} else if !s.Perms.HasGlobalViewRole() {
		visibleProjects := s.VisibleProjects()
		if len(visibleProjects) == 0 {
			return &AccessControlPage{Total: 0, Data: []AccessControlConfig{}}, nil
		}
		db = db.Where("project_id IN (?)", visibleProjects)
	}

	total := 0
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}
	records := []AccessControlConfig{}
	if err := db.Order("ID ASC").Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return &AccessControlPage{Total: total, Data: records}, nil
}
