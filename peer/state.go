package peer

import "fmt"

// Status is the peer's position in the Mealy machine. The zero value is
// not a valid status; always construct through New, which starts a peer
// in Waiting.
type Status int

const (
	// Waiting is both the initial state and the post-session resting
	// state: role is undetermined.
	Waiting Status = iota + 1
	// WaitingToSendFile is entered once a peer has picked an outbox file
	// and announced start_connection, before the remote confirms.
	WaitingToSendFile
	// SentData is the sender's steady state: one chunk outstanding,
	// waiting for its confirm_data or a repeat_data.
	SentData
	// Finished is entered after the sender emits finish, waiting for
	// confirm_finish (or a repeat of a dropped finish/confirm_data).
	Finished
	// ReceivingData is the receiver's steady state from confirm_connection
	// through to a contiguous finish.
	ReceivingData
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case WaitingToSendFile:
		return "waiting_to_send_file"
	case SentData:
		return "sent_data"
	case Finished:
		return "finished"
	case ReceivingData:
		return "receiving_data"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Role is derived from Status: idle in Waiting, sender in the three
// sending states, receiver in ReceivingData.
type Role int

const (
	RoleIdle Role = iota
	RoleSender
	RoleReceiver
)

func (r Role) String() string {
	switch r {
	case RoleIdle:
		return "idle"
	case RoleSender:
		return "sender"
	case RoleReceiver:
		return "receiver"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Role reports the role implied by s. It panics on an unrecognized status
// rather than silently falling through to idle — Status is a closed set
// and every switch over it handles all members.
func (s Status) Role() Role {
	switch s {
	case Waiting:
		return RoleIdle
	case WaitingToSendFile, SentData, Finished:
		return RoleSender
	case ReceivingData:
		return RoleReceiver
	default:
		panic(fmt.Sprintf("peer: unhandled status %d", int(s)))
	}
}
