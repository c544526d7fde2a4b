package bootstrap

import "github.com/genes8/docuguard/internal/storage"

type permSeed struct {
	Resource    string
	Action      string
	Scope       storage.Scope
	Description string
}

// catalogue is the fixed permission set seeded on every startup; it is
// the Cartesian slice documented in the external interfaces.
var catalogue = []permSeed{
	{"users", "create", storage.ScopeAll, "Create new users"},
	{"users", "read", storage.ScopeOwn, "Read own user profile"},
	{"users", "read", storage.ScopeAll, "Read all users"},
	{"users", "update", storage.ScopeOwn, "Update own user profile"},
	{"users", "update", storage.ScopeAll, "Update any user"},
	{"users", "delete", storage.ScopeAll, "Delete users"},

	{"roles", "create", storage.ScopeAll, "Create new roles"},
	{"roles", "read", storage.ScopeAll, "Read all roles"},
	{"roles", "update", storage.ScopeAll, "Update roles"},
	{"roles", "delete", storage.ScopeAll, "Delete roles"},

	{"permissions", "read", storage.ScopeAll, "Read all permissions"},

	{"documents", "create", storage.ScopeOwn, "Create own documents"},
	{"documents", "read", storage.ScopeOwn, "Read own documents"},
	{"documents", "read", storage.ScopeTeam, "Read team documents"},
	{"documents", "read", storage.ScopeAll, "Read all documents"},
	{"documents", "update", storage.ScopeOwn, "Update own documents"},
	{"documents", "update", storage.ScopeTeam, "Update team documents"},
	{"documents", "update", storage.ScopeAll, "Update all documents"},
	{"documents", "delete", storage.ScopeOwn, "Delete own documents"},
	{"documents", "delete", storage.ScopeAll, "Delete all documents"},

	{"labels", "create", storage.ScopeOwn, "Create own labels"},
	{"labels", "read", storage.ScopeOwn, "Read own labels"},
	{"labels", "read", storage.ScopeAll, "Read all labels"},
	{"labels", "update", storage.ScopeOwn, "Update own labels"},
	{"labels", "update", storage.ScopeAll, "Update all labels"},
	{"labels", "delete", storage.ScopeOwn, "Delete own labels"},
	{"labels", "delete", storage.ScopeAll, "Delete all labels"},

	{"watch_folders", "create", storage.ScopeOwn, "Create own watch folders"},
	{"watch_folders", "read", storage.ScopeOwn, "Read own watch folders"},
	{"watch_folders", "read", storage.ScopeAll, "Read all watch folders"},
	{"watch_folders", "update", storage.ScopeOwn, "Update own watch folders"},
	{"watch_folders", "update", storage.ScopeAll, "Update all watch folders"},
	{"watch_folders", "delete", storage.ScopeOwn, "Delete own watch folders"},
	{"watch_folders", "delete", storage.ScopeAll, "Delete all watch folders"},

	{"system", "*", storage.ScopeAll, "Full system access (wildcard; Super Admin only)"},
}

type rolePattern struct {
	Resource string
	Action   string
	Scope    storage.Scope
}

type roleSeed struct {
	Name        string
	Description string
	Patterns    []rolePattern
}

var roleSeeds = []roleSeed{
	{
		Name:        "Super Admin",
		Description: "Full system access with all permissions",
		Patterns:    []rolePattern{{"*", "*", storage.ScopeAll}},
	},
	{
		Name:        "Admin",
		Description: "Administrative access to manage users, roles, and system settings",
		Patterns: []rolePattern{
			{"users", "*", storage.ScopeAll},
			{"roles", "*", storage.ScopeAll},
			{"permissions", "read", storage.ScopeAll},
			{"documents", "*", storage.ScopeAll},
			{"labels", "*", storage.ScopeAll},
			{"watch_folders", "*", storage.ScopeAll},
		},
	},
	{
		Name:        "Manager",
		Description: "Team management with access to team resources",
		Patterns: []rolePattern{
			{"users", "read", storage.ScopeAll},
			{"documents", "create", storage.ScopeOwn},
			{"documents", "read", storage.ScopeTeam},
			{"documents", "update", storage.ScopeTeam},
			{"documents", "delete", storage.ScopeOwn},
			{"labels", "create", storage.ScopeOwn},
			{"labels", "read", storage.ScopeAll},
			{"labels", "update", storage.ScopeOwn},
			{"labels", "delete", storage.ScopeOwn},
			{"watch_folders", "create", storage.ScopeOwn},
			{"watch_folders", "read", storage.ScopeOwn},
			{"watch_folders", "update", storage.ScopeOwn},
			{"watch_folders", "delete", storage.ScopeOwn},
		},
	},
	{
		Name:        "User",
		Description: "Standard user with access to own resources",
		Patterns: []rolePattern{
			{"users", "read", storage.ScopeOwn},
			{"users", "update", storage.ScopeOwn},
			{"documents", "create", storage.ScopeOwn},
			{"documents", "read", storage.ScopeOwn},
			{"documents", "update", storage.ScopeOwn},
			{"documents", "delete", storage.ScopeOwn},
			{"labels", "create", storage.ScopeOwn},
			{"labels", "read", storage.ScopeOwn},
			{"labels", "update", storage.ScopeOwn},
			{"labels", "delete", storage.ScopeOwn},
		},
	},
	{
		Name:        "Viewer",
		Description: "Read-only access to own resources",
		Patterns: []rolePattern{
			{"users", "read", storage.ScopeOwn},
			{"documents", "read", storage.ScopeOwn},
			{"labels", "read", storage.ScopeOwn},
		},
	},
}
