package tcp

import (
	"fmt"
	"strings"

	"corpchat/domain"
)

// Client verbs. One command per line, fields separated by single spaces;
// the last field of REGISTER, LOGIN and MESSAGE may contain spaces.
const (
	verbRegister = "REGISTER"
	verbLogin    = "LOGIN"
	verbResume   = "RESUME"
	verbMessage  = "MESSAGE"
	verbHistory  = "HISTORY"
	verbWho      = "WHO"
	verbLogout   = "LOGOUT"
)

// Server reply and push verbs.
const (
	replySubmitOption    = "SUBMITOPTION"
	replyRegisterSuccess = "REGISTERSUCCESS"
	replyRegisterFail    = "REGISTERFAIL"
	replyLoginSuccess    = "LOGINSUCCESS"
	replyLoginFail       = "LOGINFAIL"
	replyResumeSuccess   = "RESUMESUCCESS"
	replyHistoryBegin    = "HISTORYBEGIN"
	replyHistoryEnd      = "HISTORYEND"
	replyOnline          = "ONLINE"
	replyBye             = "BYE"
	replyError           = "ERROR"

	pushChat   = "CHAT"
	pushJoined = "JOINED"
	pushLeft   = "LEFT"
	pushServer = "SERVER"
)

// command is one decoded client line. a and b are the verb's arguments;
// b carries the free-text tail where the verb allows one.
type command struct {
	verb string
	a    string
	b    string
}

// parseCommand splits a wire line into its verb and arguments. Unknown
// verbs are passed through so the dispatcher can answer with a protocol
// error instead of dropping the connection.
func parseCommand(line string) command {
	verb, rest, _ := strings.Cut(line, " ")

	switch verb {
	case verbRegister, verbLogin:
		a, b, _ := strings.Cut(rest, " ")
		return command{verb: verb, a: a, b: b}
	case verbResume, verbMessage:
		return command{verb: verb, b: rest}
	default:
		return command{verb: verb, b: rest}
	}
}

// encodeEntry renders one outbound event as a wire line.
func encodeEntry(e domain.Entry) string {
	switch e.Kind {
	case domain.KindChat:
		return fmt.Sprintf("%s %s %s", pushChat, e.Author, e.Text)
	case domain.KindJoined:
		return fmt.Sprintf("%s %s", pushJoined, e.Author)
	case domain.KindLeft:
		return fmt.Sprintf("%s %s", pushLeft, e.Author)
	case domain.KindServerBroadcast:
		return fmt.Sprintf("%s %s", pushServer, e.Text)
	}
	return fmt.Sprintf("%s %s %s", replyError, "unknown entry kind", string(e.Kind))
}
