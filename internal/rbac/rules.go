package rbac

// Default policy. Students run sessions and look at their own results;
// admins author content and see everything.
var RolePermissions = map[string][]string{
	"student": {
		"exam:view",
		"exam:start",
		"attempt:answer",
		"attempt:submit",
		"attempt:view-own",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
