package access_test

import (
	"testing"

	"backdesk/domain/access"
	"backdesk/domain/module"
	"backdesk/domain/role"

	. "github.com/onsi/gomega"
)

func TestBuildDefaultMatrix(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should build one row per module and one false cell per role", func(t *testing.T) {
		modules := []module.Module{{ID: 10, Code: "onboarding"}, {ID: 20, Code: "resources"}}
		roles := []role.Role{{ID: 100}, {ID: 200}}

		matrix := access.BuildDefaultMatrix(modules, roles)
		Expect(matrix).To(Equal(access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: false}, {RoleID: 200, Status: false}}},
			{ModuleID: 20, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: false}, {RoleID: 200, Status: false}}},
		}))
	})

	t.Run("should build empty matrix from empty module set", func(t *testing.T) {
		matrix := access.BuildDefaultMatrix(nil, []role.Role{{ID: 100}})
		Expect(len(matrix)).To(BeZero())
	})
}

func TestReconcileMatrix(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should keep stored grants and append missing active roles with status false", func(t *testing.T) {
		existing := access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}}},
		}
		modules := []module.Module{{ID: 10}}
		roles := []role.Role{{ID: 100}, {ID: 200}}

		matrix := access.ReconcileMatrix(existing, modules, roles)
		Expect(matrix).To(Equal(access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}, {RoleID: 200, Status: false}}},
		}))
	})

	t.Run("should append newly active modules as rows of false cells", func(t *testing.T) {
		existing := access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}}},
		}
		modules := []module.Module{{ID: 10}, {ID: 20}}
		roles := []role.Role{{ID: 100}, {ID: 200}}

		matrix := access.ReconcileMatrix(existing, modules, roles)
		Expect(matrix).To(Equal(access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}, {RoleID: 200, Status: false}}},
			{ModuleID: 20, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: false}, {RoleID: 200, Status: false}}},
		}))
	})

	t.Run("should leave stale cells of deactivated roles in place", func(t *testing.T) {
		existing := access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}, {RoleID: 300, Status: true}}},
		}
		roles := []role.Role{{ID: 100}}

		matrix := access.ReconcileMatrix(existing, []module.Module{{ID: 10}}, roles)
		Expect(matrix).To(Equal(existing))
	})

	t.Run("should keep rows of deactivated modules in place", func(t *testing.T) {
		existing := access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}}},
		}

		matrix := access.ReconcileMatrix(existing, nil, []role.Role{{ID: 100}})
		Expect(matrix).To(Equal(existing))
	})

	t.Run("should be idempotent with stable inputs", func(t *testing.T) {
		existing := access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}}},
		}
		modules := []module.Module{{ID: 10}, {ID: 20}}
		roles := []role.Role{{ID: 100}, {ID: 200}}

		once := access.ReconcileMatrix(existing, modules, roles)
		twice := access.ReconcileMatrix(once, modules, roles)
		Expect(twice).To(Equal(once))
	})

	t.Run("should not mutate the input matrix", func(t *testing.T) {
		existing := access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}}},
		}
		access.ReconcileMatrix(existing, []module.Module{{ID: 10}, {ID: 20}}, []role.Role{{ID: 100}, {ID: 200}})
		Expect(existing).To(Equal(access.ModuleConfigs{
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}}},
		}))
	})
}

func TestAssembleMatrix(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should keep the supplied sequence exactly as given", func(t *testing.T) {
		matrix := access.AssembleMatrix([]access.ModuleConfigChange{
			{ModuleID: 20, RolesAssigned: []access.RoleAssignment{{RoleID: 200, Status: true}, {RoleID: 100, Status: false}}},
			{ModuleID: 10, RolesAssigned: []access.RoleAssignment{{RoleID: 100, Status: true}}},
		})
		Expect(matrix).To(Equal(access.ModuleConfigs{
			{ModuleID: 20, RoleConfigs: []access.RoleConfig{{RoleID: 200, Status: true}, {RoleID: 100, Status: false}}},
			{ModuleID: 10, RoleConfigs: []access.RoleConfig{{RoleID: 100, Status: true}}},
		}))
	})
}
