package game

// Command is a single queued player action.
type Command byte

const (
	CmdUp    Command = 'u'
	CmdDown  Command = 'd'
	CmdLeft  Command = 'l'
	CmdRight Command = 'r'
	CmdBomb  Command = 'b'
)

// ContinuousMoveRepeat is how many steps SetMoveCommand queues for a held direction.
const ContinuousMoveRepeat = 100

// ParseCommand maps a wire token to a Command.
func ParseCommand(token string) (Command, bool) {
	if len(token) != 1 {
		return 0, false
	}
	switch c := Command(token[0]); c {
	case CmdUp, CmdDown, CmdLeft, CmdRight, CmdBomb:
		return c, true
	}
	return 0, false
}

// IsDirection reports whether c is a movement command.
func (c Command) IsDirection() bool {
	switch c {
	case CmdUp, CmdDown, CmdLeft, CmdRight:
		return true
	}
	return false
}

// Delta returns the one-cell offset for a direction, zero otherwise.
func (c Command) Delta() Cell {
	switch c {
	case CmdUp:
		return Cell{X: 0, Y: -1}
	case CmdDown:
		return Cell{X: 0, Y: 1}
	case CmdLeft:
		return Cell{X: -1, Y: 0}
	case CmdRight:
		return Cell{X: 1, Y: 0}
	}
	return Cell{}
}

// DirectionTo returns the command stepping from a to the adjacent cell b.
func DirectionTo(a, b Cell) (Command, bool) {
	switch {
	case b.Y < a.Y:
		return CmdUp, true
	case b.Y > a.Y:
		return CmdDown, true
	case b.X < a.X:
		return CmdLeft, true
	case b.X > a.X:
		return CmdRight, true
	}
	return 0, false
}

func (c Command) String() string {
	switch c {
	case CmdUp:
		return "up"
	case CmdDown:
		return "down"
	case CmdLeft:
		return "left"
	case CmdRight:
		return "right"
	case CmdBomb:
		return "bomb"
	default:
		return "unknown"
	}
}
