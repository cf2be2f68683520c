package core

// EntityID identifies one networked entity within a room.
type EntityID uint64

// Role is who is touching a piece of replicated state. Only RoleServer may
// commit to an EntityStateStore; everything else holds copies.
type Role int

const (
	RoleServer Role = iota
	RoleOwningClient
	RoleObserver
)

func (r Role) String() string {
	switch r {
	case RoleServer:
		return "server"
	case RoleOwningClient:
		return "owning-client"
	case RoleObserver:
		return "observer"
	}
	return "unknown"
}

// NetworkedEntity is the identity of one replicated entity. Its kinematic
// state lives in the EntityStateStore, never here.
type NetworkedEntity struct {
	ID       EntityID
	OwnerUID int64
}
