package access

import (
	"backdesk/domain/module"
	"backdesk/domain/role"
)

// The merge logic works on immutable snapshots and returns new structures;
// all catalog reads and the store upsert stay in access_controls.go.

// BuildDefaultMatrix builds the first-use matrix: one row per active module,
// one status=false cell per active role.
func BuildDefaultMatrix(modules []module.Module, roles []role.Role) ModuleConfigs {
	matrix := make(ModuleConfigs, 0, len(modules))
	for _, m := range modules {
		matrix = append(matrix, ModuleConfig{ModuleID: m.ID, RoleConfigs: defaultRoleConfigs(roles)})
	}
	return matrix
}

// ReconcileMatrix merges a stored matrix with the current active module and
// role sets. Stored cells keep their status untouched, active roles missing
// from a row are appended with status=false, and active modules missing from
// the matrix are appended as rows of status=false cells. Stale cells of
// deactivated roles are left in place so nothing is lost if the role is
// reactivated later. Calling it twice with the same inputs yields identical
// output.
func ReconcileMatrix(existing ModuleConfigs, modules []module.Module, roles []role.Role) ModuleConfigs {
	matrix := make(ModuleConfigs, 0, len(existing)+len(modules))
	knownModules := make(map[uint64]bool, len(existing))
	for _, mc := range existing {
		knownModules[uint64(mc.ModuleID)] = true

		cells := make([]RoleConfig, 0, len(mc.RoleConfigs)+len(roles))
		known := make(map[uint64]bool, len(mc.RoleConfigs))
		for _, rc := range mc.RoleConfigs {
			cells = append(cells, rc)
			known[uint64(rc.RoleID)] = true
		}
		for _, r := range roles {
			if !known[uint64(r.ID)] {
				cells = append(cells, RoleConfig{RoleID: r.ID, Status: false})
			}
		}
		matrix = append(matrix, ModuleConfig{ModuleID: mc.ModuleID, RoleConfigs: cells})
	}
	for _, m := range modules {
		if !knownModules[uint64(m.ID)] {
			matrix = append(matrix, ModuleConfig{ModuleID: m.ID, RoleConfigs: defaultRoleConfigs(roles)})
		}
	}
	return matrix
}

// AssembleMatrix turns a caller-supplied full replacement into the storage
// shape, exactly as supplied.
func AssembleMatrix(changes []ModuleConfigChange) ModuleConfigs {
	matrix := make(ModuleConfigs, 0, len(changes))
	for _, c := range changes {
		cells := make([]RoleConfig, 0, len(c.RolesAssigned))
		for _, a := range c.RolesAssigned {
			cells = append(cells, RoleConfig{RoleID: a.RoleID, Status: a.Status})
		}
		matrix = append(matrix, ModuleConfig{ModuleID: c.ModuleID, RoleConfigs: cells})
	}
	return matrix
}

func defaultRoleConfigs(roles []role.Role) []RoleConfig {
	cells := make([]RoleConfig, 0, len(roles))
	for _, r := range roles {
		cells = append(cells, RoleConfig{RoleID: r.ID, Status: false})
	}
	return cells
}
