package domain

// actorKind distinguishes the system actor from a concrete user.
type actorKind int

const (
	actorSystem actorKind = iota
	actorUser
)

// Actor is a tagged variant: either the system (background tasks, always
// permitted) or a user with a staff flag. Permission checks branch on the tag
// instead of probing attributes.
type Actor struct {
	kind    actorKind
	isStaff bool
}

// SystemActor returns the actor used by background tasks and other internal
// callers. It bypasses permission checks but not domain rules.
func SystemActor() Actor {
	return Actor{kind: actorSystem}
}

// UserActor returns an actor for a concrete user with the given staff flag.
func UserActor(isStaff bool) Actor {
	return Actor{kind: actorUser, isStaff: isStaff}
}

func (a Actor) IsSystem() bool { return a.kind == actorSystem }

func (a Actor) IsStaff() bool { return a.kind == actorUser && a.isStaff }
