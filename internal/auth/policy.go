package auth

// Policy is the single definition of the self-or-admin rule. Every
// ownership check in the service goes through CanActOn: deleting a user,
// sending as a user, listing a user's messages and deleting a message
// (where the owner is the message's sender). The admin username is held
// here rather than compared as a literal at call sites.
type Policy struct {
	AdminUsername string
}

func NewPolicy(adminUsername string) *Policy {
	return &Policy{AdminUsername: adminUsername}
}

// IsAdmin reports whether the username is the privileged identity.
func (p *Policy) IsAdmin(username string) bool {
	return username == p.AdminUsername
}

// CanActOn allows the request iff the requester owns the resource or is
// the admin. A false result must surface as a forbidden outcome, never a
// silent no-op.
func (p *Policy) CanActOn(requester, resourceOwner string) bool {
	return requester == resourceOwner || p.IsAdmin(requester)
}
