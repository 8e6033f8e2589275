package service

// RouteTable maps paths to their declared authorization metadata. Unknown
// paths resolve to the zero meta: authenticated, any role.
type RouteTable map[string]RouteMeta

// Lookup builds the Route the guard consumes. fullPath may carry a query
// string and is preserved for post-redirect return.
func (t RouteTable) Lookup(path, fullPath string) Route {
	return Route{Path: path, FullPath: fullPath, Meta: t[path]}
}

// AdminRoutes is the back-office route table. Only the guard-relevant
// metadata lives here; page wiring is the embedding application's concern.
func AdminRoutes() RouteTable {
	t := RouteTable{
		SignInPath:   {Public: true},
		"/admin-2fa": {Public: true},

		// Reachable by any authenticated actor.
		"/account/security": {},
		ForbiddenPath:       {},
	}

	admin := []string{
		"/admin",
		"/admin/dashboard",
		"/admin/legal/agreements",
		"/admin/enterprises",
		"/admin/enterprise-bindings",
		"/admin/users",
		"/admin/accounts",
		"/admin/tags",
		"/admin/products",
		"/admin/orders",
		"/admin/after-sales",
		"/admin/entitlements",
		"/admin/service-packages",
		"/admin/service-categories",
		"/admin/sellable-cards",
		"/admin/venues",
		"/admin/bookings",
		"/admin/dealer-settlements",
		"/admin/audit-logs",
	}
	for _, p := range admin {
		t[p] = RouteMeta{Role: "ADMIN"}
	}

	dealer := []string{
		"/dealer",
		"/dealer/dashboard",
		"/dealer/links",
		"/dealer/orders",
		"/dealer/settlements",
		"/dealer/notifications",
	}
	for _, p := range dealer {
		t[p] = RouteMeta{Role: "DEALER"}
	}

	provider := []string{
		"/provider",
		ProviderWorkbenchPath,
		"/provider/venues",
		"/provider/notifications",
		ProviderServicesPath,
		"/provider/products",
		"/provider/schedules",
		"/provider/bookings",
		"/provider/redeem",
		"/provider/redemptions",
	}
	for _, p := range provider {
		t[p] = RouteMeta{Role: "PROVIDER"}
	}

	return t
}
