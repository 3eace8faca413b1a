package engine

import "github.com/ftahirops/waitscope/model"

// Role is a symbolic label under which an event or buffer is stored in
// mLocal/mRemote so downstream callbacks can retrieve it by role rather
// than by raw event pointer (§3 "Role").
type Role string

const (
	RoleSend       Role = "SEND"
	RoleRecv       Role = "RECV"
	RoleEnterRecv  Role = "ENTER_RECV"
	RoleSendLS     Role = "SEND_LS"
	RoleRecvLR     Role = "RECV_LR"
	RoleBeginColl  Role = "BEGIN_COLL"
	RoleLastRMAOp  Role = "LAST_RMA_OP"
	RoleLastPost   Role = "LAST_POST"
	RoleLastComp   Role = "LAST_COMPLETE"
)

// EventSet stores events by role for one side (local or remote) of a
// peer exchange.
type EventSet map[Role]*model.Event

// Get retrieves the event under role, and whether it was present. A
// missing role that a callback requires is a fatal "missing peer datum"
// error per §7 kind 2.
func (s EventSet) Get(role Role) (*model.Event, bool) {
	ev, ok := s[role]
	return ev, ok
}

// Set stores ev under role, overwriting the role's previous occupant.
func (s EventSet) Set(role Role, ev *model.Event) { s[role] = ev }

// Clear empties the set; detectors re-initialize what they write at the
// start of each event they own, per §3's lifecycle note.
func (s EventSet) Clear() {
	for k := range s {
		delete(s, k)
	}
}
