package storage

import "testing"

func TestScopeRank(t *testing.T) {
	if ScopeOwn.Rank() >= ScopeTeam.Rank() {
		t.Error("own must rank below team")
	}
	if ScopeTeam.Rank() >= ScopeAll.Rank() {
		t.Error("team must rank below all")
	}
	if Scope("bogus").Rank() != 0 {
		t.Error("unknown scope must rank 0")
	}
}

func TestPermissionSatisfies_ExactMatch(t *testing.T) {
	p := Permission{Resource: "documents", Action: "read", Scope: ScopeOwn}
	if !p.Satisfies("documents", "read", ScopeOwn) {
		t.Error("exact triple should satisfy itself")
	}
	if p.Satisfies("documents", "read", ScopeTeam) {
		t.Error("own-scoped permission must not satisfy a team-scoped request")
	}
}

func TestPermissionSatisfies_HigherScopeSatisfiesLower(t *testing.T) {
	p := Permission{Resource: "documents", Action: "read", Scope: ScopeAll}
	if !p.Satisfies("documents", "read", ScopeOwn) {
		t.Error("an all-scoped grant must satisfy an own-scoped request")
	}
	if !p.Satisfies("documents", "read", ScopeTeam) {
		t.Error("an all-scoped grant must satisfy a team-scoped request")
	}
}

func TestPermissionSatisfies_Wildcards(t *testing.T) {
	p := Permission{Resource: "*", Action: "*", Scope: ScopeAll}
	if !p.Satisfies("roles", "delete", ScopeAll) {
		t.Error("wildcard resource/action should satisfy any triple at an equal or lower scope")
	}

	p2 := Permission{Resource: "documents", Action: "*", Scope: ScopeOwn}
	if !p2.Satisfies("documents", "update", ScopeOwn) {
		t.Error("wildcard action should satisfy any action on the matching resource")
	}
	if p2.Satisfies("roles", "update", ScopeOwn) {
		t.Error("wildcard action must not satisfy a different resource")
	}
}

func TestPermissionSatisfies_WrongResourceOrAction(t *testing.T) {
	p := Permission{Resource: "documents", Action: "read", Scope: ScopeAll}
	if p.Satisfies("roles", "read", ScopeOwn) {
		t.Error("must not satisfy a different resource")
	}
	if p.Satisfies("documents", "delete", ScopeOwn) {
		t.Error("must not satisfy a different action")
	}
}
