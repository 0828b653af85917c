package telegram

import "strings"

// CallbackKind enumerates the closed set of inline-button commands the bot
// emits. Anything else arriving as callback data maps to CallbackUnknown
// and is answered without side effects.
type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackJoinCult
	CallbackJoinBureau
	CallbackAccept
	CallbackReject
	CallbackCase
	CallbackVictim
	CallbackMask
	CallbackRitual
	CallbackConfirm
	CallbackCancel
)

// Callback is a parsed inline-button press. Arg is the payload after the
// first colon, empty for argument-less commands.
type Callback struct {
	Kind CallbackKind
	Arg  string
}

// ParseCallback maps raw callback data onto the typed command set.
func ParseCallback(data string) Callback {
	cmd, arg := data, ""
	if i := strings.IndexByte(data, ':'); i >= 0 {
		cmd, arg = data[:i], data[i+1:]
	}

	switch cmd {
	case "join_cult":
		return Callback{Kind: CallbackJoinCult}
	case "join_bureau":
		return Callback{Kind: CallbackJoinBureau}
	case "accept":
		return Callback{Kind: CallbackAccept, Arg: arg}
	case "reject":
		return Callback{Kind: CallbackReject, Arg: arg}
	case "fbi_case":
		return Callback{Kind: CallbackCase, Arg: arg}
	case "victim":
		return Callback{Kind: CallbackVictim, Arg: arg}
	case "mask":
		return Callback{Kind: CallbackMask, Arg: arg}
	case "ritual":
		return Callback{Kind: CallbackRitual, Arg: arg}
	case "confirm_yes":
		return Callback{Kind: CallbackConfirm}
	case "confirm_no":
		return Callback{Kind: CallbackCancel}
	}
	return Callback{Kind: CallbackUnknown}
}
