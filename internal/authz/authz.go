package authz

import "slices"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleUser     Role = "USER"
	RoleReadOnly Role = "READONLY"
)

type Module string

const (
	ModuleScripts    Module = "scripts"
	ModuleNotes      Module = "notes"
	ModuleTasks      Module = "tasks"
	ModuleRegistry   Module = "registry"
	ModuleMonitoring Module = "monitoring"
	ModuleFeeds      Module = "feeds"
	ModuleUsers      Module = "users"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var allActions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

var dashboardModules = []Module{
	ModuleScripts, ModuleNotes, ModuleTasks,
	ModuleRegistry, ModuleMonitoring, ModuleFeeds,
}

var rolePermissions = map[Role]map[Module][]Action{
	RoleAdmin:    fullAccess(append(dashboardModules, ModuleUsers)),
	RoleUser:     fullAccess(dashboardModules),
	RoleReadOnly: readOnly(dashboardModules),
}

func fullAccess(modules []Module) map[Module][]Action {
	perms := make(map[Module][]Action, len(modules))
	for _, m := range modules {
		perms[m] = allActions
	}
	return perms
}

func readOnly(modules []Module) map[Module][]Action {
	perms := make(map[Module][]Action, len(modules))
	for _, m := range modules {
		perms[m] = []Action{ActionRead}
	}
	return perms
}

// Can answers the static permission table. Unknown roles and modules deny.
func Can(role Role, module Module, action Action) bool {
	modules, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(modules[module], action)
}
