package rbac

const (
	RoleAuthor   = "author"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// Permission names are "<resource>:<action>". A trailing "*" in a granted
// permission matches any action.
type Permission string

const (
	PassageView   Permission = "passage:view"
	PassageEdit   Permission = "passage:edit"
	PassageDelete Permission = "passage:delete"
	SessionOpen   Permission = "session:open"
	SessionEdit   Permission = "session:edit"
)

// Default policy. Reviewers read passages; authors also edit them through
// sessions; only admins delete.
var RolePermissions = map[string][]Permission{
	RoleReviewer: {PassageView},
	RoleAuthor:   {PassageView, PassageEdit, "session:*"},
	RoleAdmin:    {"*"},
}
