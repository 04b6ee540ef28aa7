package models

// ActorKind distinguishes who is asking for a state change.
type ActorKind string

const (
	ActorUser   ActorKind = "user"
	ActorAdmin  ActorKind = "admin"
	ActorSystem ActorKind = "system"
)

// Actor identifies the caller of an engine operation. System actors are
// trusted adapters that verified the request themselves (e.g. a signed webhook).
type Actor struct {
	ID   string
	Kind ActorKind
}

func UserActor(userID string) Actor { return Actor{ID: userID, Kind: ActorUser} }

func AdminActor(id string) Actor { return Actor{ID: id, Kind: ActorAdmin} }

func SystemActor(source string) Actor { return Actor{ID: source, Kind: ActorSystem} }
